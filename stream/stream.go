// Package stream provides the byte sinks behind the aligned row-group writer:
// a stashable pass-through used to relocate Parquet footers past padding, and
// a scatter stream that splits row groups across fixed-size fragment files.
package stream

import "io"

// OutputStream is a positioned byte sink with row-group lifecycle hints.
//
// Tell returns int64 without an error so that implementations (and the
// writer's rebased views of them) satisfy the sink interface the Parquet
// encoder probes for; the encoder then shares the exact offsets the padding
// logic sees.
//
// Clients are expected to call 0, 1, or more pairs of BeginRowGroup() and
// EndRowGroup(), followed by a single Finish(). Close may be called at most
// once.
type OutputStream interface {
	io.WriteCloser
	Tell() int64
	BeginRowGroup() error
	EndRowGroup() error
	Finish() error
}

var zeros [32 << 10]byte

// PadZeros writes n zero bytes to w.
func PadZeros(w io.Writer, n int64) error {
	for n > 0 {
		c := n
		if c > int64(len(zeros)) {
			c = int64(len(zeros))
		}
		if _, err := w.Write(zeros[:c]); err != nil {
			return err
		}
		n -= c
	}
	return nil
}
