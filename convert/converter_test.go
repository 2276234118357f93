package convert

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanl-future-campaign/c2-parquet-writer/particle"
	"github.com/lanl-future-campaign/c2-parquet-writer/pkg/errors"
	"github.com/lanl-future-campaign/c2-parquet-writer/rowgroup"
	"github.com/lanl-future-campaign/c2-parquet-writer/stream"
)

// smallOptions shrinks the geometry so tests stay fast: 64KiB row groups
// (2560 rows) and 256KiB fragments holding four of them.
func smallOptions(jobs int) Options {
	return Options{
		Writer:  rowgroup.Options{RowGroupSize: 64 << 10, DiskPageSize: 512},
		Scatter: stream.ScatterOptions{FragmentSize: 256 << 10},
		Jobs:    jobs,
	}
}

const smallMaxRows = 2560

func writeDumpFile(t *testing.T, path string, n int64) {
	t.Helper()
	var buf bytes.Buffer
	rec := make([]byte, particle.RecordSize)
	for i := int64(0); i < n; i++ {
		for j := range rec {
			rec[j] = 0
		}
		binary.LittleEndian.PutUint64(rec[0:8], uint64(i))
		binary.LittleEndian.PutUint32(rec[44:48], math.Float32bits(float32(i)))
		buf.Write(rec)
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func fragments(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if e.Name() != "metadata" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// assembleOutput rebuilds the linear stream view: fragments in offset order
// followed by the metadata file, whose tail is the combined footer.
func assembleOutput(t *testing.T, dir string) []byte {
	t.Helper()
	var out []byte
	for _, name := range fragments(t, dir) {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		out = append(out, data...)
	}
	meta, err := os.ReadFile(filepath.Join(dir, "metadata"))
	require.NoError(t, err)
	return append(out, meta...)
}

func readBackIDs(t *testing.T, dir string) []int64 {
	t.Helper()
	rdr, err := file.NewParquetReader(bytes.NewReader(assembleOutput(t, dir)))
	require.NoError(t, err)
	defer rdr.Close()

	var ids []int64
	md := rdr.MetaData()
	for i := 0; i < rdr.NumRowGroups(); i++ {
		n := md.RowGroups[i].NumRows
		cr, err := rdr.RowGroup(i).Column(0)
		require.NoError(t, err)
		vals := make([]int64, n)
		total, read, err := cr.(*file.Int64ColumnChunkReader).ReadBatch(n, vals, nil, nil)
		require.NoError(t, err)
		require.EqualValues(t, n, total)
		require.EqualValues(t, n, read)
		ids = append(ids, vals...)
	}
	return ids
}

func runConversion(t *testing.T, opts Options, counts map[string]int64) string {
	t.Helper()
	inDir := filepath.Join(t.TempDir(), "in")
	outDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(inDir, 0755))
	for name, n := range counts {
		writeDumpFile(t, filepath.Join(inDir, name), n)
	}
	c := NewConverter(opts, zerolog.Nop())
	require.NoError(t, c.Run(context.Background(), inDir, outDir))
	return outDir
}

func TestConvertSingleFullGroup(t *testing.T) {
	out := runConversion(t, smallOptions(1), map[string]int64{"a.bin": smallMaxRows})
	dir := filepath.Join(out, "a.bin.parquet")

	frags := fragments(t, dir)
	require.Equal(t, []string{"rgb-0000000000"}, frags)
	info, err := os.Stat(filepath.Join(dir, frags[0]))
	require.NoError(t, err)
	assert.EqualValues(t, 256<<10, info.Size(), "short fragment is padded to fragment_size")

	ids := readBackIDs(t, dir)
	require.Len(t, ids, smallMaxRows)
	assert.EqualValues(t, 0, ids[0])
	assert.EqualValues(t, smallMaxRows-1, ids[len(ids)-1])
}

func TestConvertFragmentExactlyFull(t *testing.T) {
	out := runConversion(t, smallOptions(1), map[string]int64{"a.bin": 4 * smallMaxRows})
	dir := filepath.Join(out, "a.bin.parquet")

	frags := fragments(t, dir)
	require.Equal(t, []string{"rgb-0000000000"}, frags)

	rdr, err := file.NewParquetReader(bytes.NewReader(assembleOutput(t, dir)))
	require.NoError(t, err)
	assert.Equal(t, 4, rdr.NumRowGroups())
	require.NoError(t, rdr.Close())
}

func TestConvertRollsIntoSecondFragment(t *testing.T) {
	out := runConversion(t, smallOptions(1), map[string]int64{"a.bin": 4*smallMaxRows + 1})
	dir := filepath.Join(out, "a.bin.parquet")

	frags := fragments(t, dir)
	require.Equal(t, []string{"rgb-0000000000", "rgb-0000262144"}, frags)
	for _, f := range frags {
		info, err := os.Stat(filepath.Join(dir, f))
		require.NoError(t, err)
		assert.EqualValues(t, 256<<10, info.Size(), f)
	}

	ids := readBackIDs(t, dir)
	require.Len(t, ids, 4*smallMaxRows+1)
	for i, id := range ids {
		require.EqualValues(t, i, id)
	}
}

func TestConvertSkipPadding(t *testing.T) {
	opts := smallOptions(1)
	opts.Writer.SkipPadding = true
	opts.Scatter.SkipPadding = true
	out := runConversion(t, opts, map[string]int64{"a.bin": 1})
	dir := filepath.Join(out, "a.bin.parquet")

	frags := fragments(t, dir)
	require.Len(t, frags, 1)
	info, err := os.Stat(filepath.Join(dir, frags[0]))
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(256<<10), "fragment keeps its true sub-file length")

	ids := readBackIDs(t, dir)
	assert.Equal(t, []int64{0}, ids)
}

func TestConvertManyFilesParallel(t *testing.T) {
	counts := map[string]int64{
		"a.bin": smallMaxRows + 1,
		"b.bin": 17,
		"c.bin": 0,
	}
	out := runConversion(t, smallOptions(3), counts)
	for name, n := range counts {
		dir := filepath.Join(out, name+".parquet")
		ids := readBackIDs(t, dir)
		assert.Len(t, ids, int(n), name)
	}
}

func TestConvertFailureIsolation(t *testing.T) {
	inDir := filepath.Join(t.TempDir(), "in")
	outDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(inDir, 0755))
	writeDumpFile(t, filepath.Join(inDir, "good.bin"), 5)
	// A torn record: conversion of this file must fail.
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "bad.bin"), make([]byte, particle.RecordSize+7), 0644))

	c := NewConverter(smallOptions(2), zerolog.Nop())
	err := c.Run(context.Background(), inDir, outDir)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ConverterTasksFailed))

	// The good file still converted fully.
	ids := readBackIDs(t, filepath.Join(outDir, "good.bin.parquet"))
	assert.Len(t, ids, 5)
}

func TestConvertEmptyInputDir(t *testing.T) {
	inDir := filepath.Join(t.TempDir(), "in")
	require.NoError(t, os.MkdirAll(inDir, 0755))
	c := NewConverter(smallOptions(1), zerolog.Nop())
	require.NoError(t, c.Run(context.Background(), inDir, t.TempDir()))
}
