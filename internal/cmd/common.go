package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/mapmachine/internal/osm"
	"github.com/MeKo-Tech/mapmachine/internal/pipeline"
	"github.com/MeKo-Tech/mapmachine/internal/scheme"
	"github.com/spf13/viper"
)

// loadSchemeFromConfig reads the scheme/icons paths bound by root.go's
// persistent flags and parses them into a *scheme.Scheme.
func loadSchemeFromConfig() (*scheme.Scheme, error) {
	sch, err := pipeline.LoadScheme(
		viper.GetString("scheme"),
		viper.GetString("icons-svg"),
		viper.GetString("icons-config"),
	)
	if err != nil {
		return nil, fmt.Errorf("load scheme: %w", err)
	}
	return sch, nil
}

// newFetcherFromConfig builds an osm.Fetcher for the configured
// data-source, mirroring the teacher's createOverpassDataSource.
func newFetcherFromConfig() (osm.Fetcher, error) {
	switch name := viper.GetString("data-source"); name {
	case "overpass", "":
		cfg := osm.DefaultOverpassConfig()
		if endpoint := viper.GetString("overpass.endpoint"); endpoint != "" {
			cfg.Endpoint = endpoint
		}
		if workers := viper.GetInt("overpass.workers"); workers > 0 {
			cfg.Workers = workers
		}
		return osm.NewOverpassFetcher(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported data source: %s", viper.GetString("data-source"))
	}
}
