package datamorph

import (
	"context"
	"sync"
	"sync/atomic"
)

// filterCellSource reads one raw cell by (sourceRow, sourceColumnIndex) for
// FilterRowIndexer's dedicated scan pass. TableSource itself satisfies this
// via its Cell method.
type filterCellSource interface {
	Cell(row, col int) (string, error)
}

// FilterRowIndexer asynchronously materializes a matched-row index over a
// table source, used by LazyTransformer once one or more Filter actions are
// present (§4.7). The source must be a dedicated scan path with its own
// read position — never the UI's display cache, whose window the full scan
// would both race and evict. Construction precondition: the row indexer
// backing the source must already have finished (the UI gates "add filter"
// on FilterReady.CanApplyFilter).
type FilterRowIndexer struct {
	source    filterCellSource
	filters   []FilterSpec
	totalRows int

	matched      []int
	mu           sync.Mutex
	totalMatched int64 // atomic
}

// NewFilterRowIndexer returns a FilterRowIndexer over source's totalRows
// rows, matching every filter in filters (logical AND).
func NewFilterRowIndexer(source filterCellSource, totalRows int, filters []FilterSpec) *FilterRowIndexer {
	return &FilterRowIndexer{source: source, filters: filters, totalRows: totalRows}
}

// TotalMatchedRows returns the current matched-row count; grows
// monotonically while BuildIndexAsync runs.
func (fi *FilterRowIndexer) TotalMatchedRows() int {
	return int(atomic.LoadInt64(&fi.totalMatched))
}

// GetSourceRow maps a filtered-row index to its source-row index, or -1 if
// not yet materialized (filteredRow >= TotalMatchedRows(), or out of range).
func (fi *FilterRowIndexer) GetSourceRow(filteredRow int) int {
	if filteredRow < 0 {
		return -1
	}
	fi.mu.Lock()
	defer fi.mu.Unlock()
	if filteredRow >= len(fi.matched) {
		return -1
	}
	return fi.matched[filteredRow]
}

// BuildIndexAsync scans source rows [0, totalRows) once, evaluating every
// filter against its column's raw value and appending matches. Yields
// (checks ctx) every 1000 rows. On cancellation, returns promptly after the
// current row with the partial index left intact and usable.
func (fi *FilterRowIndexer) BuildIndexAsync(ctx context.Context) error {
	for row := 0; row < fi.totalRows; row++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		matched := MatchesAllFilters(fi.filters, func(col int) string {
			v, err := fi.source.Cell(row, col)
			if err != nil {
				return ""
			}
			return v
		})

		if matched {
			fi.mu.Lock()
			fi.matched = append(fi.matched, row)
			fi.mu.Unlock()
			atomic.AddInt64(&fi.totalMatched, 1)
		}

		if row > 0 && row%checkpointInterval == 0 {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
		}
	}
	return nil
}
