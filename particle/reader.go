package particle

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/lanl-future-campaign/c2-parquet-writer/pkg/errors"
)

// Package-specific error codes for dump reading
var (
	ReaderOpenFailed  = errors.MustNewCode("particle.open_failed")
	ReaderBadRecord   = errors.MustNewCode("particle.bad_record")
	ReaderReadFailed  = errors.MustNewCode("particle.read_failed")
	ReaderCloseFailed = errors.MustNewCode("particle.close_failed")
)

// Reader decodes particle records from a single dump file.
// Implementation is not thread safe.
type Reader struct {
	path string
	file *os.File
	br   *bufio.Reader
}

// Open opens a dump file for reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(ReaderOpenFailed, "failed to open particle dump", err).AddContext("path", path)
	}
	return &Reader{
		path: path,
		file: f,
		br:   bufio.NewReaderSize(f, 1<<16),
	}, nil
}

// Next decodes the next record. It returns io.EOF at a clean end of file and
// a particle.bad_record error when the file ends mid-record.
func (r *Reader) Next() (Particle, error) {
	var buf [RecordSize]byte
	if _, err := io.ReadFull(r.br, buf[:]); err != nil {
		if err == io.EOF {
			return Particle{}, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return Particle{}, errors.New(ReaderBadRecord, "truncated particle record", err).AddContext("path", r.path)
		}
		return Particle{}, errors.New(ReaderReadFailed, "failed to read particle record", err).AddContext("path", r.path)
	}
	p := Particle{
		ID: int64(binary.LittleEndian.Uint64(buf[0:8])),
		// buf[8:16] is struct padding
		X:  f32(buf[16:20]),
		Y:  f32(buf[20:24]),
		Z:  f32(buf[24:28]),
		I:  f32(buf[28:32]),
		UX: f32(buf[32:36]),
		UY: f32(buf[36:40]),
		UZ: f32(buf[40:44]),
		KE: f32(buf[44:48]),
	}
	return p, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	if err != nil {
		return errors.New(ReaderCloseFailed, "failed to close particle dump", err).AddContext("path", r.path)
	}
	return nil
}

func f32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
