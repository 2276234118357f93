// Package cli implements the converter command line.
package cli

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "converter [flags] <input-dir> <output-dir>",
	Short: "Convert binary particle dumps into aligned parquet directories",
	Long: `Converter walks an input directory of binary particle dumps and writes,
for each dump, a directory of fixed-size parquet fragments plus a metadata
file. Row groups and column chunks are padded so chunk boundaries line up
with the filesystem allocation unit (zfs ashift), keeping partial reads
page-aligned.`,
	Args:          cobra.ExactArgs(2),
	RunE:          runConvert,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteWithContext runs the root command with context containing the logger
func ExecuteWithContext(ctx context.Context) error {
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

type contextKey string

// LoggerKey is the context key the driver's logger travels under.
const LoggerKey contextKey = "logger"

// loggerFromContext retrieves the logger from context
func loggerFromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	rootCmd.Flags().IntVarP(&flagFragmentMB, "fragment-size", "f", 0, "fragment size in MB")
	rootCmd.Flags().IntVarP(&flagJobs, "jobs", "j", 0, "number of parallel conversions")
	rootCmd.Flags().IntVarP(&flagSkipScattering, "skip-scattering", "s", 0, "1 skips fragment scattering, writing one monolithic stream")
	rootCmd.Flags().IntVarP(&flagSkipAll, "skip-padding-and-scattering", "S", 0, "1 skips both alignment padding and fragment scattering")
	rootCmd.AddCommand(statsCmd)
}
