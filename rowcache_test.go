package datamorph

import "testing"

type fakeIndexLookup struct {
	total       int
	checkpoints map[int]RowOffset
}

func (f *fakeIndexLookup) TotalRows() int { return f.total }
func (f *fakeIndexLookup) GetCheckpoint(target int) (RowOffset, int) {
	return f.checkpoints[target], 0
}

type recordingFetcher struct {
	calls []RowOffset
	rows  [][]string // rows[i] is the CSV-style fields for row i
}

func (f *recordingFetcher) FetchRows(offset RowOffset, skip, n int) ([]CachedRow, error) {
	f.calls = append(f.calls, offset)
	start := int(offset) + skip
	out := make([]CachedRow, 0, n)
	for i := start; i < start+n && i < len(f.rows); i++ {
		out = append(out, csvCachedRow(f.rows[i]))
	}
	return out, nil
}

func TestRowByteCache_FetchesOnMissAndCachesHits(t *testing.T) {
	t.Parallel()

	rows := make([][]string, 10)
	for i := range rows {
		rows[i] = []string{string(rune('a' + i))}
	}
	fetcher := &recordingFetcher{rows: rows}
	lookup := &fakeIndexLookup{total: 10, checkpoints: map[int]RowOffset{0: 0}}

	cache := NewRowByteCache(fetcher, lookup).WithCacheSize(4)

	row, err := cache.GetRow(2)
	if err != nil {
		t.Fatalf("GetRow(2) error = %v", err)
	}
	if got := row.Cell(0, ""); got != "c" {
		t.Errorf("Cell = %q, want c", got)
	}
	if len(fetcher.calls) != 1 {
		t.Fatalf("expected 1 fetch, got %d", len(fetcher.calls))
	}

	// A second request within the same window must not trigger a refetch.
	if _, err := cache.GetRow(3); err != nil {
		t.Fatalf("GetRow(3) error = %v", err)
	}
	if len(fetcher.calls) != 1 {
		t.Errorf("expected no additional fetch for a cache hit, got %d calls", len(fetcher.calls))
	}
}

func TestRowByteCache_OutOfRange(t *testing.T) {
	t.Parallel()

	fetcher := &recordingFetcher{rows: [][]string{{"a"}}}
	lookup := &fakeIndexLookup{total: 1}
	cache := NewRowByteCache(fetcher, lookup)

	if _, err := cache.GetRow(5); err == nil {
		t.Error("expected an error for an out-of-range row")
	}
}
