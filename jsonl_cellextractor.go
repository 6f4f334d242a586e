package datamorph

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strconv"

	json "github.com/goccy/go-json"
)

// JsonLinesLineReader opens a dedicated file handle positioned at a byte
// offset and materializes raw line bytes, one per row, without parsing them
// (cell extraction happens lazily per-column via ExtractCell).
type JsonLinesLineReader struct {
	path string
}

// NewJsonLinesLineReader returns a JsonLinesLineReader over path.
func NewJsonLinesLineReader(path string) *JsonLinesLineReader {
	return &JsonLinesLineReader{path: path}
}

// FetchRows opens path, seeks to offset, skips rowsToSkip lines, then reads
// up to rowsToRead lines, each returned as a jsonlCachedRow over its raw
// bytes (trailing newline stripped).
func (r *JsonLinesLineReader) FetchRows(offset RowOffset, rowsToSkip, rowsToRead int) ([]CachedRow, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for i := 0; i < rowsToSkip; i++ {
		if !sc.Scan() {
			return nil, nil
		}
	}

	rows := make([]CachedRow, 0, rowsToRead)
	for i := 0; i < rowsToRead && sc.Scan(); i++ {
		line := append([]byte(nil), sc.Bytes()...)
		rows = append(rows, jsonlCachedRow(line))
	}
	return rows, sc.Err()
}

// ExtractCell performs a forward scan of a top-level JSON object's fields
// with a streaming token decoder, returning the rendered string for
// columnName per §4.5's rendering table. Each call allocates a decoder and a
// buffer for every field value it passes over; the scan is not
// allocation-free. Column names are compared byte-wise against the decoded
// key strings.
func ExtractCell(lineBytes []byte, columnName string) string {
	line := bytes.TrimSpace(lineBytes)
	if len(line) == 0 {
		return "<error>"
	}

	dec := json.NewDecoder(bytes.NewReader(line))
	tok, err := dec.Token()
	if err != nil {
		return "<error>"
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return "<error>"
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return "<error>"
		}
		key, ok := keyTok.(string)
		if !ok {
			return "<error>"
		}

		var valRaw json.RawMessage
		if err := dec.Decode(&valRaw); err != nil {
			return "<error>"
		}

		if key != columnName {
			continue
		}
		return renderJSONToken(bytes.TrimSpace(valRaw))
	}
	return "<null>"
}

// renderJSONToken implements §4.5's token -> output-string table.
func renderJSONToken(raw []byte) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "<null>"
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "<error>"
		}
		return s
	case '{':
		return "{...}"
	case '[':
		return "[...]"
	case 't':
		return "True"
	case 'f':
		return "False"
	default:
		if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			return strconv.FormatInt(n, 10)
		}
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return "<error>"
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}
