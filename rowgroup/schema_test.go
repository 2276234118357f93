package rowgroup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanl-future-campaign/c2-parquet-writer/pkg/errors"
)

func TestParticleSchemaShape(t *testing.T) {
	root, cols, err := newParticleSchema()
	require.NoError(t, err)
	require.NotNil(t, root)
	require.Len(t, cols, 5)

	assert.Equal(t, "particle", root.Name())
	assert.Equal(t, 5, root.NumFields())

	wantNames := []string{"ID", "x", "y", "z", "ke"}
	wantSizes := []int64{8, 4, 4, 4, 4}
	for i, c := range cols {
		assert.Equal(t, wantNames[i], c.name)
		assert.Equal(t, wantSizes[i], c.byteSize)
		assert.Equal(t, wantNames[i], root.Field(i).Name())
	}
}

func TestComputeLayoutDefaults(t *testing.T) {
	_, cols, err := newParticleSchema()
	require.NoError(t, err)

	maxRows, err := computeLayout(DefaultOptions(), cols)
	require.NoError(t, err)

	// 1MiB groups, 512B pages: t = 2048-2 = 2046.
	assert.EqualValues(t, 43520, maxRows)
	assert.EqualValues(t, 349184, cols[0].chunkSize)
	for _, c := range cols[1:] {
		assert.EqualValues(t, 174592, c.chunkSize)
	}

	// Header page + chunks leave exactly one page for the footer.
	var sum int64 = 512
	for _, c := range cols {
		sum += c.chunkSize
	}
	assert.EqualValues(t, (1<<20)-512, sum)

	// The row bound leaves slack inside each chunk.
	assert.LessOrEqual(t, maxRows*8, cols[0].chunkSize)
	assert.LessOrEqual(t, maxRows*4, cols[1].chunkSize)
}

func TestComputeLayoutRejectsBadConfigs(t *testing.T) {
	_, cols, err := newParticleSchema()
	require.NoError(t, err)

	tests := []struct {
		name string
		opts Options
	}{
		{"NotAMultiple", Options{RowGroupSize: 1<<20 + 1, DiskPageSize: 512}},
		{"TooSmall", Options{RowGroupSize: 1024, DiskPageSize: 512}},
		{"ZeroPage", Options{RowGroupSize: 1 << 20, DiskPageSize: 0}},
		{"Negative", Options{RowGroupSize: -1, DiskPageSize: 512}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := computeLayout(tt.opts, cols)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, WriterBadConfig))
		})
	}
}
