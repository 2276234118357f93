// Package convert is the batch driver: it walks a directory of particle
// dumps and converts each into an aligned, scattered columnar directory,
// fanning the per-file work out over a bounded worker pool.
package convert

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/lanl-future-campaign/c2-parquet-writer/particle"
	"github.com/lanl-future-campaign/c2-parquet-writer/pkg/errors"
	"github.com/lanl-future-campaign/c2-parquet-writer/rowgroup"
	"github.com/lanl-future-campaign/c2-parquet-writer/stream"
	"github.com/lanl-future-campaign/c2-parquet-writer/utils"
)

// Package-specific error codes for the batch driver
var (
	ConverterReadDirFailed = errors.MustNewCode("convert.read_dir_failed")
	ConverterTasksFailed   = errors.MustNewCode("convert.tasks_failed")
	ConverterCancelled     = errors.MustNewCode("convert.cancelled")
)

// ctxCheckInterval is how many particles a task moves between cancellation
// checkpoints.
const ctxCheckInterval = 4096

// Options configures a batch conversion run.
type Options struct {
	Writer  rowgroup.Options
	Scatter stream.ScatterOptions
	// Number of parallel conversions.
	// Default: 1
	Jobs int
}

// DefaultOptions returns the default conversion configuration.
func DefaultOptions() Options {
	return Options{
		Writer:  rowgroup.DefaultOptions(),
		Scatter: stream.DefaultScatterOptions(),
		Jobs:    1,
	}
}

// Converter runs one conversion batch.
type Converter struct {
	opts   Options
	logger zerolog.Logger
}

// NewConverter creates a batch converter.
func NewConverter(opts Options, logger zerolog.Logger) *Converter {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	return &Converter{opts: opts, logger: logger}
}

// Run converts every regular file under inputDir into
// <outputDir>/<name>.parquet/. Failing files are logged and counted without
// stopping the rest; a nonzero failure count is reported as an error.
func (c *Converter) Run(ctx context.Context, inputDir, outputDir string) error {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return errors.New(ConverterReadDirFailed, "failed to read input directory", err).AddContext("path", inputDir)
	}

	pool := NewWorkerPool(c.opts.Jobs, c.logger)
	if err := pool.Start(ctx); err != nil {
		return err
	}

	submitted := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		task := &fileTask{
			id:     utils.GenerateULIDString(),
			src:    filepath.Join(inputDir, entry.Name()),
			dst:    filepath.Join(outputDir, entry.Name()+".parquet"),
			opts:   c.opts,
			logger: c.logger,
		}
		if err := pool.Submit(ctx, task); err != nil {
			break
		}
		submitted++
	}
	pool.Wait()
	if err := pool.Stop(); err != nil {
		return err
	}

	stats := pool.GetStats()
	c.logger.Info().
		Int("files", submitted).
		Int64("completed", stats.TasksCompleted).
		Int64("failed", stats.TasksFailed).
		Msg("Conversion batch finished")
	if err := ctx.Err(); err != nil {
		return errors.New(ConverterCancelled, "conversion cancelled", err)
	}
	if stats.TasksFailed > 0 {
		return errors.Newf(ConverterTasksFailed, "%d of %d conversions failed", stats.TasksFailed, submitted)
	}
	return nil
}

// fileTask converts a single dump file into one output directory.
type fileTask struct {
	id     string
	src    string
	dst    string
	opts   Options
	logger zerolog.Logger
}

func (t *fileTask) GetID() string { return t.id }

func (t *fileTask) Execute(ctx context.Context) error {
	logger := t.logger.With().Str("task_id", t.id).Str("src", t.src).Logger()

	r, err := particle.Open(t.src)
	if err != nil {
		return err
	}
	defer r.Close()

	sink, err := stream.OpenScatter(t.opts.Scatter, t.dst)
	if err != nil {
		return err
	}
	w, err := rowgroup.NewWriter(t.opts.Writer, sink)
	if err != nil {
		sink.Close()
		return err
	}

	count := int64(0)
	for {
		if count%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				sink.Close()
				return errors.New(ConverterCancelled, "conversion cancelled", err)
			}
		}
		p, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			sink.Close()
			return err
		}
		if err := w.Add(p); err != nil {
			sink.Close()
			return err
		}
		count++
	}
	if err := w.Finish(); err != nil {
		sink.Close()
		return err
	}
	if err := sink.Close(); err != nil {
		return err
	}

	logger.Info().
		Int64("particles", count).
		Int("row_groups", w.NumRowGroups()).
		Str("dst", t.dst).
		Msg("Converted particle dump")
	return nil
}
