package datamorph

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// StreamOpener opens a fresh readable stream over the same underlying data.
// FormatDetector accepts a factory rather than a single reader because CSV
// candidate validation re-opens the stream after an initial peek of the
// JSON/CSV discriminating byte.
type StreamOpener func() (io.ReadCloser, error)

var utf8BOM = [3]byte{0xEF, 0xBB, 0xBF}

// FormatDetector classifies a streaming input as one of the four supported
// DataFormat shapes without reading the whole file into memory.
type FormatDetector struct{}

// NewFormatDetector returns a ready-to-use FormatDetector. It holds no state.
func NewFormatDetector() *FormatDetector {
	return &FormatDetector{}
}

// Detect implements the algorithm in the format-detection design: skip a
// UTF-8 BOM and ASCII whitespace, then branch on the first meaningful byte.
func (d *FormatDetector) Detect(open StreamOpener) (DataFormat, error) {
	rc, err := open()
	if err != nil {
		return 0, newFormatError(0, fmt.Sprintf("opening stream: %v", err), ErrUnsupportedFormat)
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, 64*1024)
	offset, err := skipBOMAndWhitespace(br)
	if err != nil {
		return 0, err
	}

	first, err := br.Peek(1)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, newFormatError(offset, "file contains only whitespace", ErrWhitespaceOnly)
		}
		return 0, newFormatError(offset, fmt.Sprintf("reading stream: %v", err), ErrUnsupportedFormat)
	}

	switch first[0] {
	case '[':
		return JsonArray, nil
	case '{':
		return classifyJSON(br, offset)
	default:
		return d.validateCSV(open)
	}
}

// skipBOMAndWhitespace discards an optional UTF-8 BOM followed by ASCII
// whitespace (space, tab, CR, LF), returning the number of bytes discarded.
func skipBOMAndWhitespace(br *bufio.Reader) (int64, error) {
	var discarded int64
	sawAnyByte := false

	if peek, err := br.Peek(3); err == nil && peek[0] == utf8BOM[0] && peek[1] == utf8BOM[1] && peek[2] == utf8BOM[2] {
		_, _ = br.Discard(3)
		discarded += 3
		sawAnyByte = true
	}

	for {
		b, err := br.Peek(1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if sawAnyByte {
					return discarded, newFormatError(discarded, "file contains only whitespace", ErrWhitespaceOnly)
				}
				return discarded, newFormatError(discarded, "file is empty", ErrEmptyFile)
			}
			return discarded, newFormatError(discarded, fmt.Sprintf("reading stream: %v", err), ErrUnsupportedFormat)
		}
		sawAnyByte = true
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.Discard(1)
			discarded++
		default:
			return discarded, nil
		}
	}
}

// classifyJSON decides JsonObject vs JsonLines once the first non-whitespace
// byte is known to be '{'. It decodes exactly one top-level JSON value, then
// probes for a second one: if a second value decodes (or the stream fails
// mid-attempt) after the first completed cleanly, more than one root-level
// object is present and the input is JsonLines; a clean io.EOF after the
// first value means a single JsonObject.
func classifyJSON(br *bufio.Reader, offset int64) (DataFormat, error) {
	dec := json.NewDecoder(br)

	var first json.RawMessage
	if err := dec.Decode(&first); err != nil {
		return 0, newFormatError(offset, fmt.Sprintf("invalid JSON format: %v", err), ErrUnsupportedFormat)
	}

	var second json.RawMessage
	switch err := dec.Decode(&second); {
	case err == nil:
		return JsonLines, nil
	case errors.Is(err, io.EOF):
		return JsonObject, nil
	default:
		// Parse error after completed_first_object is true: the next
		// root-level value is what tripped a single-document read.
		return JsonLines, nil
	}
}

// validateCSV re-opens the stream and parses the header with a strict
// comma-separated reader, requiring at least two columns.
func (d *FormatDetector) validateCSV(open StreamOpener) (DataFormat, error) {
	rc, err := open()
	if err != nil {
		return 0, newFormatError(0, fmt.Sprintf("reopening stream: %v", err), ErrUnsupportedFormat)
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, 64*1024)
	if _, err := skipBOMAndWhitespace(br); err != nil {
		return 0, err
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil || len(header) < 2 {
		return 0, newFormatError(0,
			"invalid CSV format: requires at least 2 columns. Supported formats: CSV, JSON Lines, JSON Array, JSON Object",
			ErrUnsupportedFormat)
	}
	return Csv, nil
}
