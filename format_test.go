package datamorph

import (
	"errors"
	"io"
	"strings"
	"testing"
)

type nopCloserReader struct{ io.Reader }

func (nopCloserReader) Close() error { return nil }

func opener(s string) StreamOpener {
	return func() (io.ReadCloser, error) {
		return nopCloserReader{strings.NewReader(s)}, nil
	}
}

func TestFormatDetector_Detect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    DataFormat
		wantErr bool
	}{
		{"csv basic", "id,name,age\n1,Alice,30\n", Csv, false},
		{"csv with bom", "\xEF\xBB\xBFid,name\n1,a\n", Csv, false},
		{"json array", "[1,2,3]", JsonArray, false},
		{"json array with leading whitespace", "  \n[1,2,3]", JsonArray, false},
		{"json object single", `{"a":1,"b":2}`, JsonObject, false},
		{"json lines two objects", "{\"a\":1}\n{\"a\":2}\n", JsonLines, false},
		{"nested newline inside single object", "{\"a\":1,\n\"b\":2}", JsonObject, false},
		{"empty file", "", 0, true},
		{"whitespace only", "   \n\t\n", 0, true},
		{"csv single column rejected", "onlyone\nvalue\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := NewFormatDetector()
			got, err := d.Detect(opener(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Detect(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Detect(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatDetector_EmptyFileSentinel(t *testing.T) {
	t.Parallel()

	d := NewFormatDetector()
	_, err := d.Detect(opener(""))
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("expected ErrEmptyFile, got %v", err)
	}
}

func TestFormatDetector_WhitespaceOnlySentinel(t *testing.T) {
	t.Parallel()

	d := NewFormatDetector()
	_, err := d.Detect(opener("   \n  "))
	if !errors.Is(err, ErrWhitespaceOnly) {
		t.Errorf("expected ErrWhitespaceOnly, got %v", err)
	}
}
