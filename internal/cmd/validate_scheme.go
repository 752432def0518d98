package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/mapmachine/internal/mmcolor"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var validateSchemeCmd = &cobra.Command{
	Use:   "validate-scheme",
	Short: "Check a scheme YAML file and icon library for unresolvable references",
	Long: `Validate-scheme loads the configured --scheme/--icons-svg/--icons-config
files the way "render"/"tile"/"serve" do, then additionally walks every
matcher for shape ids and color names that the icon library or color
palette doesn't define — references that Load itself accepts (since a
missing shape or color degrades gracefully at render time, spec §4.2/
§7 UnknownShape/UnknownColor) but that usually indicate a typo.`,
	RunE: runValidateScheme,
}

func init() {
	rootCmd.AddCommand(validateSchemeCmd)
}

func runValidateScheme(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	sch, err := loadSchemeFromConfig()
	if err != nil {
		return err
	}

	problems := validateScheme(sch)
	if len(problems) == 0 {
		logger.Info("scheme is valid", "scheme", viper.GetString("scheme"))
		return nil
	}

	for _, p := range problems {
		logger.Warn("scheme reference problem", "issue", p)
	}
	return fmt.Errorf("%d unresolved reference(s) found in scheme", len(problems))
}

// validateScheme walks sch's matchers for shape ids and color names the
// loaded shape library or color palette don't define.
func validateScheme(sch *scheme.Scheme) []string {
	var problems []string

	checkShape := func(context, id string) {
		if id == "" {
			return
		}
		if sch.Shapes == nil {
			problems = append(problems, fmt.Sprintf("%s: shape %q referenced but no icon library is loaded", context, id))
			return
		}
		if _, ok := sch.Shapes.Shapes[id]; !ok {
			problems = append(problems, fmt.Sprintf("%s: unknown shape id %q", context, id))
		}
	}

	checkColor := func(context, name string) {
		if name == "" {
			return
		}
		if _, ok := mmcolor.ParseHex(name); ok {
			return
		}
		if _, ok := sch.Colors.Lookup(name); !ok {
			problems = append(problems, fmt.Sprintf("%s: unknown color %q", context, name))
		}
	}

	checkEntries := func(context string, entries []scheme.ShapeEntry) {
		for _, e := range entries {
			checkShape(context, e.Shape)
			checkColor(context, e.Color)
		}
	}

	for i, m := range sch.NodeMatchers {
		context := fmt.Sprintf("node_matcher[%d]", i)
		checkEntries(context+".shapes", m.Shapes)
		checkEntries(context+".over_icon", m.OverIcon)
		checkEntries(context+".add_shapes", m.AddShapes)
		checkEntries(context+".under_icon", m.UnderIcon)
		checkEntries(context+".with_icon", m.WithIcon)
		checkColor(context+".set_main_color", m.SetMainColor)
	}

	for i, m := range sch.RoadMatchers {
		context := fmt.Sprintf("road_matcher[%d]", i)
		checkColor(context+".color", m.Color)
		checkColor(context+".border_color", m.BorderColor)
	}

	return problems
}
