package cmd

import (
	"testing"

	"github.com/MeKo-Tech/mapmachine/internal/mmcolor"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
	"github.com/MeKo-Tech/mapmachine/internal/shape"
)

func schemeForValidation() *scheme.Scheme {
	return &scheme.Scheme{
		Colors: mmcolor.NewPalette(map[string]string{"default": "#000000", "water": "#8ec8e8"}),
		Shapes: &shape.ShapeExtractor{Shapes: map[string]shape.Shape{
			shape.DefaultShapeID:      {ID: shape.DefaultShapeID},
			shape.DefaultSmallShapeID: {ID: shape.DefaultSmallShapeID},
			"tree":                    {ID: "tree"},
		}},
	}
}

func TestValidateSchemeNoProblems(t *testing.T) {
	sch := schemeForValidation()
	sch.NodeMatchers = []scheme.NodeMatcher{
		{Shapes: []scheme.ShapeEntry{{Shape: "tree", Color: "water"}}, SetMainColor: "#ffffff"},
	}
	sch.RoadMatchers = []scheme.RoadMatcher{{Color: "water", BorderColor: "default"}}

	if problems := validateScheme(sch); len(problems) != 0 {
		t.Fatalf("expected no problems, got %v", problems)
	}
}

func TestValidateSchemeUnknownShape(t *testing.T) {
	sch := schemeForValidation()
	sch.NodeMatchers = []scheme.NodeMatcher{
		{Shapes: []scheme.ShapeEntry{{Shape: "not_a_real_shape"}}},
	}

	problems := validateScheme(sch)
	if len(problems) != 1 {
		t.Fatalf("expected 1 problem, got %v", problems)
	}
}

func TestValidateSchemeUnknownColor(t *testing.T) {
	sch := schemeForValidation()
	sch.RoadMatchers = []scheme.RoadMatcher{{Color: "not_a_real_color"}}

	problems := validateScheme(sch)
	if len(problems) != 1 {
		t.Fatalf("expected 1 problem, got %v", problems)
	}
}
