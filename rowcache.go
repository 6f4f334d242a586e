package datamorph

// CachedRow is one materialized row's backing data, abstracting over the
// CSV (parsed field slice) and JSONL (raw line bytes) representations so
// RowByteCache can stay format-agnostic (§4.5).
type CachedRow interface {
	// Cell renders column colIndex (CSV path) or colName (JSONL path) as a
	// string. Implementations ignore whichever argument they don't need.
	Cell(colIndex int, colName string) string
}

type csvCachedRow []string

func (r csvCachedRow) Cell(colIndex int, _ string) string {
	if colIndex < 0 || colIndex >= len(r) {
		return ""
	}
	return r[colIndex]
}

type jsonlCachedRow []byte

func (r jsonlCachedRow) Cell(_ int, colName string) string {
	return ExtractCell(r, colName)
}

// rowFetcher materializes rows[rowsToSkip : rowsToSkip+rowsToRead) starting
// from byte offset, implemented by CsvRowReader and JsonLinesLineReader.
type rowFetcher interface {
	FetchRows(offset RowOffset, rowsToSkip, rowsToRead int) ([]CachedRow, error)
}

// checkpointLookup is the subset of CsvRowIndexer/JsonLinesRowIndexer that
// RowByteCache needs.
type checkpointLookup interface {
	GetCheckpoint(targetRow int) (RowOffset, int)
	TotalRows() int
}

const defaultCacheSize = 200

// RowByteCache owns a sliding window of up to cacheSize contiguous rows
// centered on the most recently requested row (§4.5). Single-threaded
// (UI-thread) access only; no internal locking.
type RowByteCache struct {
	fetcher   rowFetcher
	index     checkpointLookup
	cacheSize int

	windowStart int
	rows        []CachedRow
	haveWindow  bool
}

// NewRowByteCache returns a RowByteCache with the default window size (200).
func NewRowByteCache(fetcher rowFetcher, index checkpointLookup) *RowByteCache {
	return &RowByteCache{fetcher: fetcher, index: index, cacheSize: defaultCacheSize}
}

// WithCacheSize overrides the default window size; returns the same cache
// for chaining.
func (c *RowByteCache) WithCacheSize(n int) *RowByteCache {
	if n > 0 {
		c.cacheSize = n
		c.haveWindow = false
	}
	return c
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GetRow returns the cached row at rowIndex, fetching a new window on a
// cache miss. Returns ErrIndexOutOfRange if rowIndex is outside
// [0, total_rows).
func (c *RowByteCache) GetRow(rowIndex int) (CachedRow, error) {
	total := c.index.TotalRows()
	if rowIndex < 0 || rowIndex >= total {
		return nil, ErrIndexOutOfRange
	}

	if c.haveWindow && rowIndex >= c.windowStart && rowIndex < c.windowStart+len(c.rows) {
		return c.rows[rowIndex-c.windowStart], nil
	}

	windowStart := clampInt(rowIndex-c.cacheSize/2, 0, total-c.cacheSize)
	toRead := c.cacheSize
	if total-windowStart < toRead {
		toRead = total - windowStart
	}

	offset, skip := c.index.GetCheckpoint(windowStart)
	rows, err := c.fetcher.FetchRows(offset, skip, toRead)
	if err != nil {
		return nil, err
	}

	c.windowStart = windowStart
	c.rows = rows
	c.haveWindow = true

	rel := rowIndex - windowStart
	if rel < 0 || rel >= len(rows) {
		return nil, ErrIndexOutOfRange
	}
	return rows[rel], nil
}

// Cell returns the rendered value of (rowIndex, colIndex/colName).
func (c *RowByteCache) Cell(rowIndex, colIndex int, colName string) (string, error) {
	row, err := c.GetRow(rowIndex)
	if err != nil {
		return "", err
	}
	return row.Cell(colIndex, colName), nil
}
