package datamorph

import (
	"context"
	"fmt"
)

// CsvRowIndexer scans a CSV source once, building a checkpointed RowIndex
// under cooperative scheduling (§4.3). It is single-threaded: exactly one
// goroutine calls BuildIndex, while GetCheckpoint and TotalRows may be
// called concurrently from the UI thread at any point during the build.
type CsvRowIndexer struct {
	src   *MmapSource
	index *RowIndex

	// headerEnd is the byte offset immediately after the header line; row 0
	// of the data begins here. Set by the caller once the header has been
	// located (the scanner itself does not re-derive header boundaries).
	headerEnd RowOffset
}

// NewCsvRowIndexer returns a CsvRowIndexer that will scan src starting at
// headerEnd (the offset of the first data row, i.e. immediately after the
// header line).
func NewCsvRowIndexer(src *MmapSource, headerEnd RowOffset) *CsvRowIndexer {
	return &CsvRowIndexer{src: src, index: newRowIndexAt(headerEnd), headerEnd: headerEnd}
}

// Index returns the shared RowIndex backing this indexer.
func (ix *CsvRowIndexer) Index() *RowIndex { return ix.index }

// TotalRows is a convenience forward to Index().TotalRows().
func (ix *CsvRowIndexer) TotalRows() int { return ix.index.TotalRows() }

// GetCheckpoint is a convenience forward to Index().GetCheckpoint().
func (ix *CsvRowIndexer) GetCheckpoint(targetRow int) (RowOffset, int) {
	return ix.index.GetCheckpoint(targetRow)
}

// BuildIndex scans the entire file once from headerEnd, tracking CSV
// quote-state across chunk boundaries (scanChunkSize: 1 MiB on CPUs with
// AVX2, 512 KiB otherwise), incrementing the row counter on
// every newline found outside a quoted region, and publishing a checkpoint
// every checkpointInterval rows. It yields (checks ctx) every
// checkpointInterval rows so the caller's scheduler can observe cancellation
// and progress. I/O errors are fatal and abort the build.
func (ix *CsvRowIndexer) BuildIndex(ctx context.Context) error {
	length := ix.src.Len()
	chunkSize := scanChunkSize()
	buf := make([]byte, chunkSize)

	var (
		offset       = ix.headerEnd
		inQuotes     bool
		rowCount     int
		lastByteRead byte
		sawAnyByte   bool
	)

	for offset < length {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n := int64(chunkSize)
		if offset+n > length {
			n = length - offset
		}
		chunk := buf[:n]
		if _, err := ix.src.Read(offset, chunk); err != nil {
			return fmt.Errorf("datamorph: csv index scan at offset %d: %w", offset, err)
		}
		sawAnyByte = true
		lastByteRead = chunk[len(chunk)-1]

		pos := 0
		for pos < len(chunk) {
			if inQuotes {
				q := findByte(chunk, pos, '"')
				if q < 0 {
					break // quoted region continues into the next chunk
				}
				inQuotes = false
				pos = q + 1
				continue
			}
			q := findByte(chunk, pos, '"')
			nl := findByte(chunk, pos, '\n')
			if nl >= 0 && (q < 0 || nl < q) {
				rowCount++
				pos = nl + 1
				if rowCount%checkpointInterval == 0 {
					ix.index.setTotalRows(rowCount)
					ix.index.appendCheckpoint(rowCount, offset+RowOffset(pos))
					select {
					case <-ctx.Done():
						return nil
					default:
					}
				}
				continue
			}
			if q >= 0 {
				inQuotes = true
				pos = q + 1
				continue
			}
			break
		}
		offset += n
	}

	if sawAnyByte && lastByteRead != '\n' && !inQuotes {
		rowCount++
	}
	ix.index.setTotalRows(rowCount)
	return nil
}
