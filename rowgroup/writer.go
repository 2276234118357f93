// Package rowgroup writes particle data as fixed-size, disk-page-aligned
// Parquet row groups. Every row group is a self-contained Parquet sub-file
// occupying exactly RowGroupSize bytes of the output stream, with column
// chunks padded to per-column budgets so chunk boundaries coincide with disk
// pages; a combined footer referencing all row groups is emitted at the end.
package rowgroup

import (
	"fmt"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/metadata"
	"github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/lanl-future-campaign/c2-parquet-writer/particle"
	"github.com/lanl-future-campaign/c2-parquet-writer/pkg/errors"
	"github.com/lanl-future-campaign/c2-parquet-writer/stream"
)

// Options controls row group generation.
type Options struct {
	// Size of each parquet row group.
	// Default: 1MB
	RowGroupSize int64
	// Size of a single disk page (zfs ashift)
	// Default: 512B
	DiskPageSize int64
	// Suppress header, column and row-group padding. Output is no longer
	// aligned; fragment padding is typically skipped along with it.
	// Default: false
	SkipPadding bool
	// Skip calling the sink's BeginRowGroup(), EndRowGroup(), and Finish()
	// functions that are required to generate scattered parquet row groups,
	// producing one monolithic byte sequence. This option is mainly used by
	// internal test code.
	// Default: false
	SkipScattering bool
}

// DefaultOptions returns the default writer configuration.
func DefaultOptions() Options {
	return Options{RowGroupSize: 1 << 20, DiskPageSize: 1 << 9}
}

// rgLog remembers where a finished row group landed and what its own footer
// said about it.
type rgLog struct {
	base int64
	meta *metadata.FileMetaData
}

// Writer is the aligned row-group writer. It wraps the sink it is given in a
// stash layer but never closes it; one Parquet encoder is spun up per row group
// over a rebased view of that sink. Not safe for concurrent use.
type Writer struct {
	opts    Options
	sink    *stream.Stashable
	root    *schema.GroupNode
	props   *parquet.WriterProperties
	cols    []column
	maxRows int64

	fw     *file.Writer
	rg     file.BufferedRowGroupWriter
	rgBase int64
	rgRows int64
	rgLogs []rgLog

	i64 [1]int64
	f32 [1]float32

	finished bool
}

// NewWriter creates a writer over out. The caller keeps ownership of out and
// closes it after Finish.
func NewWriter(opts Options, out stream.OutputStream) (*Writer, error) {
	if opts.RowGroupSize == 0 {
		opts.RowGroupSize = 1 << 20
	}
	if opts.DiskPageSize == 0 {
		opts.DiskPageSize = 1 << 9
	}
	root, cols, err := newParticleSchema()
	if err != nil {
		return nil, err
	}
	maxRows, err := computeLayout(opts, cols)
	if err != nil {
		return nil, err
	}
	props := parquet.NewWriterProperties(
		parquet.WithEncoding(parquet.Encodings.Plain),
		parquet.WithDictionaryDefault(false),
		parquet.WithStats(true),
		parquet.WithDataPageSize(opts.RowGroupSize),
	)
	return &Writer{
		opts:    opts,
		sink:    stream.NewStashable(out),
		root:    root,
		props:   props,
		cols:    cols,
		maxRows: maxRows,
	}, nil
}

// MaxRowsPerGroup returns the row capacity of one row group.
func (w *Writer) MaxRowsPerGroup() int64 { return w.maxRows }

// NumRowGroups returns the number of row groups flushed so far.
func (w *Writer) NumRowGroups() int { return len(w.rgLogs) }

// subFileView exposes the sink to one sub-file encoder with offsets rebased
// to the row group base. Close is a no-op so the encoder cannot close the
// shared sink.
type subFileView struct {
	base   *stream.Stashable
	origin int64
}

func (v *subFileView) Write(p []byte) (int, error) { return v.base.Write(p) }
func (v *subFileView) Tell() int64                 { return v.base.Tell() - v.origin }
func (v *subFileView) Close() error                { return nil }

// Add appends one particle, flushing and reopening the row group when the
// current one is full.
func (w *Writer) Add(p particle.Particle) error {
	if w.finished {
		return errors.New(WriterFinished, "writer is already finished", nil)
	}
	if w.rg != nil && w.rgRows >= w.maxRows {
		if err := w.flushRowGroup(); err != nil {
			return err
		}
	}
	if w.rg == nil {
		if err := w.openRowGroup(); err != nil {
			return err
		}
	}
	if err := w.writeInt64(0, p.ID); err != nil {
		return err
	}
	if err := w.writeFloat(1, p.X); err != nil {
		return err
	}
	if err := w.writeFloat(2, p.Y); err != nil {
		return err
	}
	if err := w.writeFloat(3, p.Z); err != nil {
		return err
	}
	if err := w.writeFloat(4, p.KE); err != nil {
		return err
	}
	w.rgRows++
	return nil
}

func (w *Writer) writeInt64(col int, v int64) error {
	cw, err := w.rg.Column(col)
	if err != nil {
		return errors.New(WriterEncodeFailed, "failed to get column writer", err).AddContext("column", w.cols[col].name)
	}
	w.i64[0] = v
	if _, err := cw.(*file.Int64ColumnChunkWriter).WriteBatch(w.i64[:], nil, nil); err != nil {
		return errors.New(WriterEncodeFailed, "failed to write value", err).AddContext("column", w.cols[col].name)
	}
	return nil
}

func (w *Writer) writeFloat(col int, v float32) error {
	cw, err := w.rg.Column(col)
	if err != nil {
		return errors.New(WriterEncodeFailed, "failed to get column writer", err).AddContext("column", w.cols[col].name)
	}
	w.f32[0] = v
	if _, err := cw.(*file.Float32ColumnChunkWriter).WriteBatch(w.f32[:], nil, nil); err != nil {
		return errors.New(WriterEncodeFailed, "failed to write value", err).AddContext("column", w.cols[col].name)
	}
	return nil
}

// openRowGroup starts the next sub-file: signal the sink, record the base
// offset, stand up a fresh encoder over a rebased view, and pad the encoder
// header out to one disk page.
func (w *Writer) openRowGroup() error {
	if !w.opts.SkipScattering {
		if err := w.sink.BeginRowGroup(); err != nil {
			return errors.New(WriterSinkFailed, "begin row group failed", err)
		}
	}
	w.rgBase = w.sink.Tell()
	view := &subFileView{base: w.sink, origin: w.rgBase}
	w.fw = file.NewParquetWriter(view, w.root, file.WithWriterProps(w.props))
	w.rg = w.fw.AppendBufferedRowGroup()
	w.rgRows = 0
	if w.opts.SkipPadding {
		return nil
	}
	hdr := view.Tell()
	if hdr > w.opts.DiskPageSize {
		panic(fmt.Sprintf("rowgroup: encoder header (%dB) exceeds the disk page (%dB)", hdr, w.opts.DiskPageSize))
	}
	if err := stream.PadZeros(w.sink, w.opts.DiskPageSize-hdr); err != nil {
		return errors.New(WriterSinkFailed, "header padding failed", err)
	}
	return nil
}

// flushRowGroup ends the current sub-file: close every column at its chunk
// budget, capture the encoder footer in the stash, pad the sub-file to
// RowGroupSize, then pop the footer so it lands flush against the end.
func (w *Writer) flushRowGroup() error {
	for i := range w.cols {
		colBase := w.sink.Tell()
		cw, err := w.rg.Column(i)
		if err != nil {
			return errors.New(WriterEncodeFailed, "failed to get column writer", err).AddContext("column", w.cols[i].name)
		}
		if err := cw.Close(); err != nil {
			return errors.New(WriterEncodeFailed, "failed to close column", err).AddContext("column", w.cols[i].name)
		}
		if w.opts.SkipPadding {
			continue
		}
		cur := w.sink.Tell() - colBase
		if cur > w.cols[i].chunkSize {
			panic(fmt.Sprintf("rowgroup: column %s (%dB) overflows its chunk budget (%dB)",
				w.cols[i].name, cur, w.cols[i].chunkSize))
		}
		if err := stream.PadZeros(w.sink, w.cols[i].chunkSize-cur); err != nil {
			return errors.New(WriterSinkFailed, "column padding failed", err)
		}
	}
	if err := w.rg.Close(); err != nil {
		return errors.New(WriterEncodeFailed, "failed to close row group", err)
	}

	// The encoder emits its footer at Close; hold it in the stash so the
	// sub-file padding can slide underneath it.
	w.sink.StashWrites()
	if err := w.fw.Close(); err != nil {
		w.sink.StashResume()
		return errors.New(WriterEncodeFailed, "failed to close encoder", err)
	}
	md, err := parseFooter(w.sink.StashGet())
	if err != nil {
		return err
	}
	if got := len(md.RowGroups); got != 1 {
		panic(fmt.Sprintf("rowgroup: sub-file footer reports %d row groups", got))
	}
	w.rgLogs = append(w.rgLogs, rgLog{base: w.rgBase, meta: md})

	w.sink.StashResume()
	if !w.opts.SkipPadding {
		cur := w.sink.Tell() - w.rgBase
		if cur > w.opts.RowGroupSize {
			panic(fmt.Sprintf("rowgroup: row group (%dB incl. footer) overflows rowgroup_size (%dB)",
				cur, w.opts.RowGroupSize))
		}
		if err := stream.PadZeros(w.sink, w.opts.RowGroupSize-cur); err != nil {
			return errors.New(WriterSinkFailed, "row group padding failed", err)
		}
	}
	if err := w.sink.StashPop(); err != nil {
		return errors.New(WriterSinkFailed, "failed to apply stashed footer", err)
	}

	if !w.opts.SkipScattering {
		if err := w.sink.EndRowGroup(); err != nil {
			return errors.New(WriterSinkFailed, "end row group failed", err)
		}
	}
	w.fw = nil
	w.rg = nil
	w.rgRows = 0
	return nil
}

// Flush force-ends the current row group. Remaining space in the group is
// padded.
func (w *Writer) Flush() error {
	if w.rg == nil {
		return nil
	}
	return w.flushRowGroup()
}

// Finish flushes the open row group, finishes the sink, and writes the
// combined footer for every row group to the metadata stream. The writer is
// unusable afterwards; closing the sink remains the caller's job.
func (w *Writer) Finish() error {
	if w.finished {
		return nil
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if !w.opts.SkipScattering {
		if err := w.sink.Finish(); err != nil {
			return errors.New(WriterSinkFailed, "sink finish failed", err)
		}
	}
	combined, err := emptyFileMetadata(w.root, w.props)
	if err != nil {
		return err
	}
	for _, lg := range w.rgLogs {
		rebase(lg.meta, lg.base)
		if err := combined.AppendRowGroups(lg.meta); err != nil {
			return errors.New(WriterMetaFailed, "failed to append row group metadata", err)
		}
	}
	if err := writeMetadataFile(combined, w.sink); err != nil {
		return err
	}
	w.finished = true
	return nil
}
