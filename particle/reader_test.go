package particle

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanl-future-campaign/c2-parquet-writer/pkg/errors"
)

// encodeRecord lays out one particle the way the dumps do.
func encodeRecord(p Particle) []byte {
	buf := make([]byte, RecordSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(p.ID))
	// buf[8:16] padding stays zero
	for i, v := range []float32{p.X, p.Y, p.Z, p.I, p.UX, p.UY, p.UZ, p.KE} {
		binary.LittleEndian.PutUint32(buf[16+4*i:20+4*i], math.Float32bits(v))
	}
	return buf
}

func writeDump(t *testing.T, particles []Particle, extra []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "particles.bin")
	var data []byte
	for _, p := range particles {
		data = append(data, encodeRecord(p)...)
	}
	data = append(data, extra...)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestReaderRoundTrip(t *testing.T) {
	want := []Particle{
		{ID: 0, X: 1.5, Y: -2.25, Z: 3.125, I: 0.5, UX: 4, UY: 5, UZ: 6, KE: 7.75},
		{ID: 9, X: -0.125, KE: 0.001},
		{ID: -1, KE: 12},
	}
	r, err := Open(writeDump(t, want, nil))
	require.NoError(t, err)
	defer r.Close()

	for i, w := range want {
		got, err := r.Next()
		require.NoError(t, err, "record %d", i)
		assert.Equal(t, w, got, "record %d", i)
	}
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
	assert.NoError(t, r.Close())
}

func TestReaderTruncatedRecord(t *testing.T) {
	r, err := Open(writeDump(t, []Particle{{ID: 1}}, make([]byte, 17)))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ReaderBadRecord))
}

func TestReaderEmptyFile(t *testing.T) {
	r, err := Open(writeDump(t, nil, nil))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.bin"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ReaderOpenFailed))
}
