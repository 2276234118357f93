package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lanl-future-campaign/c2-parquet-writer/particle"
	"github.com/lanl-future-campaign/c2-parquet-writer/pkg/errors"
)

var statsReadDirFailed = errors.MustNewCode("cli.stats_read_dir_failed")

var statsCmd = &cobra.Command{
	Use:   "stats <input-dir>",
	Short: "Report the kinetic energy tail of a directory of particle dumps",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	logger := loggerFromContext(cmd.Context())
	inputDir := args[0]

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return errors.New(statsReadDirFailed, "failed to read input directory", err).AddContext("path", inputDir)
	}

	var stats particle.KEStats
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(inputDir, entry.Name())
		n, err := stats.AddFile(path)
		if err != nil {
			return err
		}
		logger.Info().Str("file", path).Int("particles", n).Msg("Processed dump")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Total particles: %d\n", stats.Count())
	for _, q := range stats.Summary() {
		fmt.Fprintf(out, "%.6f: %.6f\n", q.Ratio, q.Value)
	}
	return nil
}
