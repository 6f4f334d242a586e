package datamorph

import (
	"fmt"
	"strings"
)

// CsvSchemaScanner infers and progressively refines a TableSchema from CSV
// rows (§4.4). Construction mirrors the teacher's functional-options style.
type CsvSchemaScanner struct {
	initialScanCount int
}

// ScanOption configures a CsvSchemaScanner or JsonLinesSchemaScanner.
type ScanOption func(*scanConfig)

type scanConfig struct {
	initialScanCount int
}

// WithInitialScanCount overrides the default 200-row/line initial scan
// window used to seed a schema (§9 Open Question 3: made configurable
// rather than hard-coded).
func WithInitialScanCount(n int) ScanOption {
	return func(c *scanConfig) { c.initialScanCount = n }
}

func newScanConfig(opts []ScanOption) scanConfig {
	c := scanConfig{initialScanCount: 200}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewCsvSchemaScanner returns a ready-to-use CsvSchemaScanner.
func NewCsvSchemaScanner(opts ...ScanOption) *CsvSchemaScanner {
	return &CsvSchemaScanner{initialScanCount: newScanConfig(opts).initialScanCount}
}

// ScanSchema seeds a TableSchema from columnNames (the CSV header) and up to
// initialScanCount data rows. Row 0 seeds each column's type directly; rows
// 1..k-1 refine via RefineSchema. Rows whose column count disagrees with the
// header are skipped during the initial scan. Empty header names are
// replaced with Column{i+1} (1-based).
func (s *CsvSchemaScanner) ScanSchema(columnNames []string, rows [][]string) (*TableSchema, error) {
	if len(columnNames) == 0 {
		return nil, newSchemaError(-1, "no columns in header", ErrNoRows)
	}

	names := make([]string, len(columnNames))
	for i, n := range columnNames {
		if n == "" {
			names[i] = fmt.Sprintf("Column%d", i+1)
		} else {
			names[i] = n
		}
	}

	types := make([]ColumnType, len(names))
	nullable := make([]bool, len(names))
	for i := range types {
		types[i] = Text
	}

	limit := len(rows)
	if s.initialScanCount > 0 && s.initialScanCount < limit {
		limit = s.initialScanCount
	}

	seeded := false
	schema, err := NewTableSchema(Csv, names, types, nullable)
	if err != nil {
		return nil, newSchemaError(-1, err.Error(), ErrNoRows)
	}

	for i := 0; i < limit; i++ {
		row := rows[i]
		if len(row) != len(names) {
			continue
		}
		if !seeded {
			schema = seedCsvRow(schema, row)
			seeded = true
			continue
		}
		schema = s.RefineSchema(schema, row)
	}

	if !seeded {
		// Header-only CSV: all columns Text, nullable, row count 0 (§8).
		for i := range names {
			schema = schema.WithMarkedNullable(i)
		}
	}

	return schema, nil
}

func seedCsvRow(schema *TableSchema, row []string) *TableSchema {
	for i, v := range row {
		if isEmptyOrWhitespace(v) {
			schema = schema.WithMarkedNullable(i)
			continue
		}
		schema = schema.WithUpdatedType(i, InferScalar(v))
	}
	return schema
}

// RefineSchema processes one CSV row and returns the original instance
// (copy-on-write) if no cell altered any column's type or nullability.
func (s *CsvSchemaScanner) RefineSchema(schema *TableSchema, row []string) *TableSchema {
	cols := schema.Columns()
	if len(row) != len(cols) {
		return schema
	}
	for i, v := range row {
		if isEmptyOrWhitespace(v) {
			schema = schema.WithMarkedNullable(i)
			continue
		}
		observed := InferScalar(v)
		resolved := ResolveType(schema.Columns()[i].Type, observed)
		schema = schema.WithUpdatedType(i, resolved)
	}
	return schema
}

// normalizeHeaderName trims surrounding whitespace from a raw CSV header
// cell; used by callers before passing names to ScanSchema.
func normalizeHeaderName(raw string) string {
	return strings.TrimSpace(raw)
}
