package cli

import (
	"github.com/spf13/cobra"

	"github.com/lanl-future-campaign/c2-parquet-writer/config"
	"github.com/lanl-future-campaign/c2-parquet-writer/convert"
	"github.com/lanl-future-campaign/c2-parquet-writer/rowgroup"
	"github.com/lanl-future-campaign/c2-parquet-writer/stream"
)

var (
	flagConfig         string
	flagFragmentMB     int
	flagJobs           int
	flagSkipScattering int
	flagSkipAll        int
)

// loadConfig resolves the effective configuration: file (when --config is
// given) or defaults, with command line flags layered on top.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadConfig(flagConfig)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.LoadDefaultConfig()
	}

	if flagFragmentMB > 0 {
		cfg.Convert.FragmentSize = int64(flagFragmentMB) << 20
	}
	if flagJobs > 0 {
		cfg.Convert.Jobs = flagJobs
	}
	if flagSkipScattering != 0 {
		cfg.Convert.SkipScattering = true
	}
	if flagSkipAll != 0 {
		cfg.Convert.SkipPadding = true
		cfg.Convert.SkipScattering = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// convertOptions maps the configuration onto driver options.
func convertOptions(cfg *config.Config) convert.Options {
	return convert.Options{
		Writer: rowgroup.Options{
			RowGroupSize:   cfg.Convert.RowGroupSize,
			DiskPageSize:   cfg.Convert.DiskPageSize,
			SkipPadding:    cfg.Convert.SkipPadding,
			SkipScattering: cfg.Convert.SkipScattering,
		},
		Scatter: stream.ScatterOptions{
			FragmentSize: cfg.Convert.FragmentSize,
			SkipPadding:  cfg.Convert.SkipPadding,
		},
		Jobs: cfg.Convert.Jobs,
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := loggerFromContext(cmd.Context())
	if flagConfig != "" {
		if logger, err = config.SetupLogger(cfg); err != nil {
			return err
		}
	}

	logger.Info().
		Str("input", args[0]).
		Str("output", args[1]).
		Int("jobs", cfg.Convert.Jobs).
		Int64("fragment_size", cfg.Convert.FragmentSize).
		Msg("Starting conversion batch")

	c := convert.NewConverter(convertOptions(cfg), logger)
	return c.Run(cmd.Context(), args[0], args[1])
}
