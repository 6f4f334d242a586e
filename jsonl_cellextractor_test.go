package datamorph

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractCell_RenderingTable(t *testing.T) {
	t.Parallel()

	line := []byte(`{"s":"hi","i":42,"f":1.5,"t":true,"fa":false,"n":null,"o":{"x":1},"a":[1,2]}`)

	tests := []struct {
		col  string
		want string
	}{
		{"s", "hi"},
		{"i", "42"},
		{"f", "1.5"},
		{"t", "True"},
		{"fa", "False"},
		{"n", "<null>"},
		{"o", "{...}"},
		{"a", "[...]"},
		{"missing", "<null>"},
	}

	for _, tt := range tests {
		if got := ExtractCell(line, tt.col); got != tt.want {
			t.Errorf("ExtractCell(%q) = %q, want %q", tt.col, got, tt.want)
		}
	}
}

func TestExtractCell_MalformedLineIsError(t *testing.T) {
	t.Parallel()

	if got := ExtractCell([]byte("not json"), "a"); got != "<error>" {
		t.Errorf("ExtractCell() = %q, want <error>", got)
	}
	if got := ExtractCell([]byte("  "), "a"); got != "<error>" {
		t.Errorf("ExtractCell(blank) = %q, want <error>", got)
	}
}

func TestJsonLinesLineReader_FetchRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.jsonl")
	content := "{\"a\":1}\n{\"a\":2}\n{\"a\":3}\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	reader := NewJsonLinesLineReader(path)
	rows, err := reader.FetchRows(0, 1, 2)
	if err != nil {
		t.Fatalf("FetchRows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if got := rows[0].Cell(0, "a"); got != "2" {
		t.Errorf("rows[0].Cell = %q, want 2", got)
	}
	if got := rows[1].Cell(0, "a"); got != "3" {
		t.Errorf("rows[1].Cell = %q, want 3", got)
	}
}

func TestJsonLinesLineReader_SkipPastEndReturnsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.jsonl")
	if err := os.WriteFile(path, []byte("{\"a\":1}\n"), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	reader := NewJsonLinesLineReader(path)
	rows, err := reader.FetchRows(0, 5, 2)
	if err != nil {
		t.Fatalf("FetchRows() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}
