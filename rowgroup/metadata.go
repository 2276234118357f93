package rowgroup

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/metadata"
	"github.com/apache/arrow-go/v18/parquet/schema"

	"github.com/lanl-future-campaign/c2-parquet-writer/pkg/errors"
)

var parquetMagic = []byte("PAR1")

// parseFooter deserializes the FileMetaData from the tail of a Parquet byte
// sequence laid out as [... thrift footer][len:u32le]["PAR1"]. The stashed
// bytes captured around an encoder close have exactly this shape.
func parseFooter(tail []byte) (*metadata.FileMetaData, error) {
	if len(tail) < 8 || !bytes.Equal(tail[len(tail)-4:], parquetMagic) {
		return nil, errors.Newf(WriterMetaFailed, "parquet footer magic missing (%d trailing bytes)", len(tail))
	}
	n := int(binary.LittleEndian.Uint32(tail[len(tail)-8 : len(tail)-4]))
	if n <= 0 || n+8 > len(tail) {
		return nil, errors.Newf(WriterMetaFailed, "parquet footer length %d out of range", n)
	}
	md, err := metadata.NewFileMetaData(tail[len(tail)-8-n:len(tail)-8], nil)
	if err != nil {
		return nil, errors.New(WriterMetaFailed, "failed to deserialize parquet footer", err)
	}
	return md, nil
}

// emptyFileMetadata produces a FileMetaData for the particle schema with an
// empty row-group list by closing a throwaway encoder over a scratch buffer.
// It seeds the combined footer so that zero-particle outputs still carry a
// decodable schema.
func emptyFileMetadata(root *schema.GroupNode, props *parquet.WriterProperties) (*metadata.FileMetaData, error) {
	var buf bytes.Buffer
	fw := file.NewParquetWriter(&buf, root, file.WithWriterProps(props))
	if err := fw.Close(); err != nil {
		return nil, errors.New(WriterMetaFailed, "failed to close scratch encoder", err)
	}
	return parseFooter(buf.Bytes())
}

// rebase shifts every file offset in md by base, expressing column chunk
// positions in the outer stream's coordinates instead of the sub-file's.
// Dictionary and index page offsets are absent for this writer configuration
// but are shifted when present so the math never silently diverges.
func rebase(md *metadata.FileMetaData, base int64) {
	for _, rg := range md.RowGroups {
		if rg.FileOffset != nil {
			*rg.FileOffset += base
		}
		for _, col := range rg.Columns {
			col.FileOffset += base
			cm := col.MetaData
			if cm == nil {
				continue
			}
			cm.DataPageOffset += base
			if cm.DictionaryPageOffset != nil {
				*cm.DictionaryPageOffset += base
			}
			if cm.IndexPageOffset != nil {
				*cm.IndexPageOffset += base
			}
		}
	}
}

// writeMetadataFile serializes md as a standalone parquet metadata stream:
// "PAR1", the thrift-encoded footer, its length and the closing magic.
func writeMetadataFile(md *metadata.FileMetaData, w io.Writer) error {
	if _, err := w.Write(parquetMagic); err != nil {
		return errors.New(WriterSinkFailed, "failed to write metadata header", err)
	}
	n, err := md.WriteTo(w, nil)
	if err != nil {
		return errors.New(WriterMetaFailed, "failed to serialize combined footer", err)
	}
	var tail [8]byte
	binary.LittleEndian.PutUint32(tail[:4], uint32(n))
	copy(tail[4:], parquetMagic)
	if _, err := w.Write(tail[:]); err != nil {
		return errors.New(WriterSinkFailed, "failed to write metadata trailer", err)
	}
	return nil
}
