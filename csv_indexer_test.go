package datamorph

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}
	return path
}

func TestCsvRowIndexer_BuildIndex(t *testing.T) {
	t.Parallel()

	header := "a\n"
	var b strings.Builder
	b.WriteString(header)
	for i := 0; i < 2000; i++ {
		b.WriteString("x,y\n")
	}
	path := writeTempFile(t, b.String())

	src, err := OpenMmapSource(path)
	if err != nil {
		t.Fatalf("OpenMmapSource() error = %v", err)
	}
	defer src.Close()

	indexer := NewCsvRowIndexer(src, RowOffset(len(header)))
	if err := indexer.BuildIndex(context.Background()); err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}

	if got := indexer.TotalRows(); got != 2000 {
		t.Fatalf("TotalRows() = %d, want 2000", got)
	}

	// Checkpoint 0 sits immediately after the header, never at byte 0.
	offset, skip := indexer.GetCheckpoint(0)
	if offset != RowOffset(len(header)) || skip != 0 {
		t.Errorf("GetCheckpoint(0) = (%d, %d), want (%d, 0)", offset, skip, len(header))
	}

	offset, skip = indexer.GetCheckpoint(1500)
	wantOffset := RowOffset(len(header) + 1000*4)
	if offset != wantOffset || skip != 500 {
		t.Errorf("GetCheckpoint(1500) = (%d, %d), want (%d, 500)", offset, skip, wantOffset)
	}
}

func TestCsvRowIndexer_TrailingNewlineInvariant(t *testing.T) {
	t.Parallel()

	header := "a,b\n"
	base := header + "1,2\n3,4\n5,6"
	withTrailing := base + "\n"

	for _, content := range []string{base, withTrailing} {
		content := content
		path := writeTempFile(t, content)
		src, err := OpenMmapSource(path)
		if err != nil {
			t.Fatalf("OpenMmapSource() error = %v", err)
		}
		indexer := NewCsvRowIndexer(src, RowOffset(len(header)))
		if err := indexer.BuildIndex(context.Background()); err != nil {
			t.Fatalf("BuildIndex() error = %v", err)
		}
		if got := indexer.TotalRows(); got != 3 {
			t.Errorf("TotalRows() for %q = %d, want 3", content, got)
		}
		src.Close()
	}
}

func TestCsvRowIndexer_QuotedNewlinesIgnored(t *testing.T) {
	t.Parallel()

	header := "a,b\n"
	content := header + "\"line1\nline2\",val\nplain,row\n"
	path := writeTempFile(t, content)

	src, err := OpenMmapSource(path)
	if err != nil {
		t.Fatalf("OpenMmapSource() error = %v", err)
	}
	defer src.Close()

	indexer := NewCsvRowIndexer(src, RowOffset(len(header)))
	if err := indexer.BuildIndex(context.Background()); err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	if got := indexer.TotalRows(); got != 2 {
		t.Errorf("TotalRows() = %d, want 2 (embedded newline must not split a row)", got)
	}
}

func TestJsonLinesRowIndexer_BuildIndex(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 2500; i++ {
		b.WriteString(`{"a":1}` + "\n")
	}
	path := writeTempFile(t, b.String())

	src, err := OpenMmapSource(path)
	if err != nil {
		t.Fatalf("OpenMmapSource() error = %v", err)
	}
	defer src.Close()

	indexer := NewJsonLinesRowIndexer(src)
	if err := indexer.BuildIndex(context.Background()); err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	if got := indexer.TotalRows(); got != 2500 {
		t.Fatalf("TotalRows() = %d, want 2500", got)
	}
}
