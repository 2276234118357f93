package rowgroup

import (
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/lanl-future-campaign/c2-parquet-writer/pkg/errors"
)

// Package-specific error codes for the aligned writer
var (
	WriterBadConfig    = errors.MustNewCode("rowgroup.bad_config")
	WriterSchemaFailed = errors.MustNewCode("rowgroup.schema_failed")
	WriterSinkFailed   = errors.MustNewCode("rowgroup.sink_failed")
	WriterEncodeFailed = errors.MustNewCode("rowgroup.encode_failed")
	WriterMetaFailed   = errors.MustNewCode("rowgroup.metadata_failed")
	WriterFinished     = errors.MustNewCode("rowgroup.already_finished")
)

// particleRowSize is the nominal serialized byte size of one row
// (i64 id + four f32 fields).
const particleRowSize = 24

// column is one leaf of the particle schema plus its alignment budget.
type column struct {
	name     string
	byteSize int64
	// chunkSize is the exact on-disk span of the column chunk inside a row
	// group, encoder output plus padding.
	chunkSize int64
}

// newParticleSchema builds the writer schema: ID as physical INT64 annotated
// UINT_64 (ids come from a signed counter; downstream readers interpret the
// column as unsigned), then x, y, z, ke as FLOAT. All fields are REQUIRED and
// the order is fixed.
func newParticleSchema() (*schema.GroupNode, []column, error) {
	id, err := schema.NewPrimitiveNodeConverted("ID", parquet.Repetitions.Required,
		parquet.Types.Int64, schema.ConvertedTypes.Uint64, 0, 0, 0, -1)
	if err != nil {
		return nil, nil, errors.New(WriterSchemaFailed, "failed to build ID field", err)
	}
	fields := schema.FieldList{id}
	cols := []column{{name: "ID", byteSize: 8}}
	for _, name := range []string{"x", "y", "z", "ke"} {
		f, err := schema.NewPrimitiveNode(name, parquet.Repetitions.Required,
			parquet.Types.Float, -1, -1)
		if err != nil {
			return nil, nil, errors.New(WriterSchemaFailed, "failed to build field", err).AddContext("field", name)
		}
		fields = append(fields, f)
		cols = append(cols, column{name: name, byteSize: 4})
	}
	root, err := schema.NewGroupNode("particle", parquet.Repetitions.Required, fields, -1)
	if err != nil {
		return nil, nil, errors.New(WriterSchemaFailed, "failed to build root group", err)
	}
	return root, cols, nil
}

// computeLayout derives each column's chunk budget and the row capacity of a
// group. With p = RowGroupSize/DiskPageSize, one page is reserved for the
// encoder header and one for the footer, leaving t = p-2 pages apportioned by
// physical byte size; the -1 inside the row bound keeps a partially filled
// last data page plus encoder overhead within the budget.
func computeLayout(opts Options, cols []column) (int64, error) {
	if opts.RowGroupSize <= 0 || opts.DiskPageSize <= 0 {
		return 0, errors.Newf(WriterBadConfig, "row group size %d and disk page size %d must be positive",
			opts.RowGroupSize, opts.DiskPageSize)
	}
	if opts.RowGroupSize%opts.DiskPageSize != 0 {
		return 0, errors.Newf(WriterBadConfig, "row group size %d is not a multiple of disk page size %d",
			opts.RowGroupSize, opts.DiskPageSize)
	}
	t := opts.RowGroupSize/opts.DiskPageSize - 2
	maxRows := int64(-1)
	for i := range cols {
		s := cols[i].byteSize
		cols[i].chunkSize = t * s / particleRowSize * opts.DiskPageSize
		n := (t*s/particleRowSize - 1) * opts.DiskPageSize / s
		if maxRows < 0 || n < maxRows {
			maxRows = n
		}
	}
	if maxRows < 1 {
		return 0, errors.Newf(WriterBadConfig, "row group size %d is too small for the particle schema",
			opts.RowGroupSize)
	}
	return maxRows, nil
}
