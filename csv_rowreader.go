package datamorph

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
)

// CsvRowReader opens a dedicated file handle positioned at a byte offset and
// materializes rows through a strict comma-separated reader, independent of
// the header row (§4.5). Each FetchRows call opens and closes its own
// handle so concurrent callers (display cache, filter indexer, schema
// rescans) never contend on file-position state.
type CsvRowReader struct {
	path        string
	columnCount int
}

// NewCsvRowReader returns a CsvRowReader over path, padding/truncating every
// materialized row to columnCount fields.
func NewCsvRowReader(path string, columnCount int) *CsvRowReader {
	return &CsvRowReader{path: path, columnCount: columnCount}
}

// FetchRows opens path, seeks to offset, skips rowsToSkip records, then
// reads up to rowsToRead records. Ragged records (wrong field count) are
// recoverable: fields beyond columnCount are dropped and missing fields are
// left empty, matching the "strict readers MAY surface a schema-mismatch
// error for ragged rows; callers treat it as recoverable" contract.
func (r *CsvRowReader) FetchRows(offset RowOffset, rowsToSkip, rowsToRead int) ([]CachedRow, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1 // tolerate ragged rows ourselves rather than aborting the read

	for i := 0; i < rowsToSkip; i++ {
		if _, err := cr.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			continue
		}
	}

	rows := make([]CachedRow, 0, rowsToRead)
	for i := 0; i < rowsToRead; i++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		fields := make([]string, r.columnCount)
		n := len(rec)
		if n > r.columnCount {
			n = r.columnCount
		}
		copy(fields, rec[:n])
		rows = append(rows, csvCachedRow(fields))
	}
	return rows, nil
}
