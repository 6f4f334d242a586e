package datamorph

import (
	"context"
	"fmt"
)

// JsonLinesRowIndexer scans a JSON-Lines source once, building a
// checkpointed RowIndex from row 0 (there is no header to skip). Identical
// to CsvRowIndexer minus the quote-state bookkeeping (§4.3).
type JsonLinesRowIndexer struct {
	src   *MmapSource
	index *RowIndex
}

// NewJsonLinesRowIndexer returns a JsonLinesRowIndexer over src.
func NewJsonLinesRowIndexer(src *MmapSource) *JsonLinesRowIndexer {
	return &JsonLinesRowIndexer{src: src, index: newRowIndex()}
}

// Index returns the shared RowIndex backing this indexer.
func (ix *JsonLinesRowIndexer) Index() *RowIndex { return ix.index }

// TotalRows is a convenience forward to Index().TotalRows().
func (ix *JsonLinesRowIndexer) TotalRows() int { return ix.index.TotalRows() }

// GetCheckpoint is a convenience forward to Index().GetCheckpoint().
func (ix *JsonLinesRowIndexer) GetCheckpoint(targetRow int) (RowOffset, int) {
	return ix.index.GetCheckpoint(targetRow)
}

// BuildIndex scans the entire file once from offset 0, incrementing the row
// counter on every newline, unconditionally (JSONL has no quoting to
// respect at the line-boundary level).
func (ix *JsonLinesRowIndexer) BuildIndex(ctx context.Context) error {
	length := ix.src.Len()
	chunkSize := scanChunkSize()
	buf := make([]byte, chunkSize)

	var (
		offset       RowOffset
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
			return fmt.Errorf("datamorph: jsonl index scan at offset %d: %w", offset, err)
		}

		pos := 0
		for {
			nl := findByte(chunk, pos, '\n')
			if nl < 0 {
				if len(chunk) > 0 {
					sawAnyByte = true
					lastByteRead = chunk[len(chunk)-1]
				}
				break
			}
			sawAnyByte = true
			lastByteRead = '\n'
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
		}
		offset += n
	}

	if sawAnyByte && lastByteRead != '\n' {
		rowCount++
	}
	ix.index.setTotalRows(rowCount)
	return nil
}
