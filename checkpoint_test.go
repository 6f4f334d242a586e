package datamorph

import "testing"

func TestRowIndex_GetCheckpoint(t *testing.T) {
	t.Parallel()

	idx := newRowIndex()
	idx.setTotalRows(2000)
	idx.appendCheckpoint(1000, 5000)
	idx.appendCheckpoint(2000, 10000)

	tests := []struct {
		name       string
		target     int
		wantOffset RowOffset
		wantSkip   int
	}{
		{"row 0 clamps to checkpoint 0", 0, 0, 0},
		{"row 500 within first interval", 500, 0, 500},
		{"row exactly 1000", 1000, 5000, 0},
		{"row 1500 between checkpoints", 1500, 5000, 500},
		{"row beyond last checkpoint clamps", 5000, 10000, 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			offset, skip := idx.GetCheckpoint(tt.target)
			if offset != tt.wantOffset || skip != tt.wantSkip {
				t.Errorf("GetCheckpoint(%d) = (%d, %d), want (%d, %d)", tt.target, offset, skip, tt.wantOffset, tt.wantSkip)
			}
		})
	}
}

func TestRowIndex_TotalRowsMonotonic(t *testing.T) {
	t.Parallel()

	idx := newRowIndex()
	idx.setTotalRows(100)
	if idx.TotalRows() != 100 {
		t.Fatalf("TotalRows() = %d, want 100", idx.TotalRows())
	}
	idx.setTotalRows(200)
	if idx.TotalRows() != 200 {
		t.Fatalf("TotalRows() = %d, want 200", idx.TotalRows())
	}
}
