package stream

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lanl-future-campaign/c2-parquet-writer/pkg/errors"
)

// Package-specific error codes for the scatter stream
var (
	ScatterCreateDirFailed  = errors.MustNewCode("scatter.create_dir_failed")
	ScatterCreateFileFailed = errors.MustNewCode("scatter.create_file_failed")
	ScatterWriteFailed      = errors.MustNewCode("scatter.write_failed")
	ScatterCloseFailed      = errors.MustNewCode("scatter.close_failed")
)

// ScatterOptions controls fragment generation.
type ScatterOptions struct {
	// Byte size for each row group batch
	// Default: 4MB
	FragmentSize int64
	// Fragments are padded unless the following is true.
	// Padding may be skipped when all fragments are known to consume at least
	// two zfs records, in which case zfs will perform the padding for us.
	// Default: false
	SkipPadding bool
}

// DefaultScatterOptions returns the default fragment configuration.
func DefaultScatterOptions() ScatterOptions {
	return ScatterOptions{FragmentSize: 4 << 20}
}

// Scatter turns one linear byte sequence into a directory of fragment files
// plus a metadata file. Bytes written between BeginRowGroup and EndRowGroup
// land in the current rgb-<offset> fragment; everything else lands in
// <dir>/metadata. A single virtual offset advances across both destinations.
type Scatter struct {
	opts      ScatterOptions
	dir       string
	meta      *os.File
	frag      *os.File
	fragPath  string
	fragBytes int64
	offset    int64
	closed    bool
}

// OpenScatter creates dir (and parents) and the metadata file inside it.
// The first fragment is created lazily on the first BeginRowGroup.
func OpenScatter(opts ScatterOptions, dir string) (*Scatter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.New(ScatterCreateDirFailed, "failed to create output directory", err).AddContext("path", dir)
	}
	meta, err := os.Create(filepath.Join(dir, "metadata"))
	if err != nil {
		return nil, errors.New(ScatterCreateFileFailed, "failed to create metadata file", err).AddContext("path", dir)
	}
	return &Scatter{opts: opts, dir: dir, meta: meta}, nil
}

func (s *Scatter) Write(p []byte) (int, error) {
	var n int
	var err error
	if s.frag != nil {
		n, err = s.frag.Write(p)
		s.fragBytes += int64(n)
	} else {
		n, err = s.meta.Write(p)
	}
	s.offset += int64(n)
	if err != nil {
		return n, errors.New(ScatterWriteFailed, "scatter write failed", err).AddContext("dir", s.dir)
	}
	return n, nil
}

// Tell returns the virtual offset across all destinations.
func (s *Scatter) Tell() int64 { return s.offset }

// BeginRowGroup opens a fragment named by the current virtual offset unless
// one is already open; consecutive row groups share a fragment.
func (s *Scatter) BeginRowGroup() error {
	if s.frag != nil {
		return nil
	}
	path := filepath.Join(s.dir, fmt.Sprintf("rgb-%010d", s.offset))
	f, err := os.Create(path)
	if err != nil {
		return errors.New(ScatterCreateFileFailed, "failed to create fragment", err).AddContext("path", path)
	}
	s.frag = f
	s.fragPath = path
	s.fragBytes = 0
	return nil
}

// EndRowGroup closes the current fragment if it is exactly full. Short
// fragments stay open for the next row group.
func (s *Scatter) EndRowGroup() error { return s.flushFragment(false) }

// Finish pads the current fragment, if any, to FragmentSize (unless
// SkipPadding) and closes it.
func (s *Scatter) Finish() error { return s.flushFragment(true) }

func (s *Scatter) flushFragment(force bool) error {
	if s.frag == nil {
		return nil
	}
	if s.fragBytes > s.opts.FragmentSize {
		// The caller sizes row groups to divide FragmentSize evenly; an
		// overfull fragment cannot be produced by a valid configuration.
		panic(fmt.Sprintf("stream: fragment %s overflows fragment_size: %d > %d",
			s.fragPath, s.fragBytes, s.opts.FragmentSize))
	}
	if s.fragBytes < s.opts.FragmentSize {
		if !force {
			return nil
		}
		if !s.opts.SkipPadding {
			if err := PadZeros(s, s.opts.FragmentSize-s.fragBytes); err != nil {
				return err
			}
		}
	}
	err := s.frag.Close()
	s.frag = nil
	s.fragBytes = 0
	if err != nil {
		return errors.New(ScatterCloseFailed, "failed to close fragment", err).AddContext("path", s.fragPath)
	}
	return nil
}

// Close implies Finish and then closes the metadata file.
func (s *Scatter) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	ferr := s.Finish()
	if err := s.meta.Close(); err != nil {
		return errors.New(ScatterCloseFailed, "failed to close metadata file", err).AddContext("dir", s.dir)
	}
	return ferr
}
