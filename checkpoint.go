package datamorph

import (
	"sort"
	"sync"
	"sync/atomic"
)

// checkpointInterval is the number of rows between recorded checkpoints (§3).
const checkpointInterval = 1000

// RowOffset is a nonnegative byte offset into a source file.
type RowOffset = int64

// Checkpoint records the byte offset at which row Row begins. The first
// checkpoint (row 0) sits where row 0 begins: offset 0 for JSONL, the offset
// just after the header line for CSV.
type Checkpoint struct {
	Row    int
	Offset RowOffset
}

// RowIndex is the shared checkpoint/counter state built by CsvRowIndexer and
// JsonLinesRowIndexer. TotalRows is updated atomically so the UI thread can
// poll it concurrently with an in-progress build; Checkpoints grows under a
// short-held lock and is itself append-only (monotonically increasing
// offsets), so readers may safely snapshot it without a lock as long as they
// only read indices below the length they observed.
type RowIndex struct {
	totalRows   int64 // atomic
	mu          sync.Mutex
	checkpoints []Checkpoint
}

// newRowIndex returns a RowIndex seeded with checkpoint 0 at offset 0.
func newRowIndex() *RowIndex {
	return newRowIndexAt(0)
}

// newRowIndexAt returns a RowIndex whose checkpoint 0 sits at start — the
// offset where row 0 begins. CSV indexers pass the offset immediately after
// the header line; JSONL indexers pass 0.
func newRowIndexAt(start RowOffset) *RowIndex {
	return &RowIndex{checkpoints: []Checkpoint{{Row: 0, Offset: start}}}
}

// TotalRows returns the current row count. Safe to call concurrently with an
// in-progress build; the value is monotonically nondecreasing.
func (idx *RowIndex) TotalRows() int {
	return int(atomic.LoadInt64(&idx.totalRows))
}

func (idx *RowIndex) setTotalRows(n int) {
	atomic.StoreInt64(&idx.totalRows, int64(n))
}

// appendCheckpoint records a new checkpoint under lock. Callers must only
// append strictly-increasing Row/Offset pairs.
func (idx *RowIndex) appendCheckpoint(row int, offset RowOffset) {
	idx.mu.Lock()
	idx.checkpoints = append(idx.checkpoints, Checkpoint{Row: row, Offset: offset})
	idx.mu.Unlock()
}

// GetCheckpoint returns the byte offset of the nearest checkpoint at or
// before targetRow and the number of rows to skip forward from it to reach
// targetRow exactly. When the index is incomplete and targetRow exceeds the
// last available checkpoint, the result clamps to the last checkpoint with a
// skip computed against it (the caller may over- or under-shoot slightly if
// the build has since progressed, which is an accepted race per §4.3).
func (idx *RowIndex) GetCheckpoint(targetRow int) (offset RowOffset, skip int) {
	idx.mu.Lock()
	cps := idx.checkpoints
	idx.mu.Unlock()

	if len(cps) == 0 {
		return 0, targetRow
	}

	// cps is sorted by Row ascending by construction (append-only, strictly
	// increasing). Find the last checkpoint with Row <= targetRow.
	i := sort.Search(len(cps), func(i int) bool { return cps[i].Row > targetRow })
	if i == 0 {
		i = 1
	}
	cp := cps[i-1]
	return cp.Offset, targetRow - cp.Row
}

// checkpointCount reports how many checkpoints have been recorded so far
// (test/diagnostic helper).
func (idx *RowIndex) checkpointCount() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.checkpoints)
}
