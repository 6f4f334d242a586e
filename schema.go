package datamorph

import (
	"fmt"

	deepcopy "github.com/tiendc/go-deepcopy"
)

// ColumnSchema is an immutable record describing one column. Name and
// ColumnIndex are fixed at creation; Type and IsNullable evolve only through
// copy-on-write methods on the owning TableSchema.
type ColumnSchema struct {
	Name          string
	Type          ColumnType
	IsNullable    bool
	ColumnIndex   int
	DisplayFormat string
}

// TableSchema is an immutable, ordered collection of ColumnSchema. Column
// order is insertion order; names are unique; columns[i].ColumnIndex == i.
// Row count is deliberately not a field here — see FileLoader/TableSource
// for why that counter lives elsewhere.
type TableSchema struct {
	columns      []ColumnSchema
	sourceFormat DataFormat
}

// NewTableSchema builds a TableSchema, assigning ColumnIndex by position and
// validating that names are unique.
func NewTableSchema(format DataFormat, names []string, types []ColumnType, nullable []bool) (*TableSchema, error) {
	if len(names) != len(types) || len(names) != len(nullable) {
		return nil, fmt.Errorf("datamorph: mismatched column slice lengths")
	}
	seen := make(map[string]struct{}, len(names))
	cols := make([]ColumnSchema, len(names))
	for i, name := range names {
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("datamorph: duplicate column name %q", name)
		}
		seen[name] = struct{}{}
		cols[i] = ColumnSchema{
			Name:        name,
			Type:        types[i],
			IsNullable:  nullable[i],
			ColumnIndex: i,
		}
	}
	return &TableSchema{columns: cols, sourceFormat: format}, nil
}

// Columns returns the ordered column list. Callers must not mutate the
// returned slice's elements' exported fields in place; treat it as read-only.
func (s *TableSchema) Columns() []ColumnSchema { return s.columns }

// SourceFormat returns the DataFormat this schema was inferred from.
func (s *TableSchema) SourceFormat() DataFormat { return s.sourceFormat }

// ColumnByName returns the column with the given name and true, or a zero
// value and false.
func (s *TableSchema) ColumnByName(name string) (ColumnSchema, bool) {
	for _, c := range s.columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSchema{}, false
}

// cloneColumns deep-clones the column slice so a single-field mutation below
// never aliases a live ColumnSchema from the original into the new schema's
// backing array.
func cloneColumns(src []ColumnSchema) []ColumnSchema {
	var cloned []ColumnSchema
	if err := deepcopy.Copy(&cloned, src); err != nil {
		// deepcopy only fails on unsupported field types; ColumnSchema is a
		// flat value struct, so fall back defensively rather than panic.
		cloned = append([]ColumnSchema(nil), src...)
	}
	return cloned
}

// WithUpdatedType returns a TableSchema where column i has the given type.
// Returns the same instance (no allocation) when the type is unchanged.
func (s *TableSchema) WithUpdatedType(i int, t ColumnType) *TableSchema {
	if s.columns[i].Type == t {
		return s
	}
	cols := cloneColumns(s.columns)
	cols[i].Type = t
	return &TableSchema{columns: cols, sourceFormat: s.sourceFormat}
}

// WithMarkedNullable returns a TableSchema where column i is nullable.
// Returns the same instance when already nullable (nullability is monotone:
// it is never cleared once set).
func (s *TableSchema) WithMarkedNullable(i int) *TableSchema {
	if s.columns[i].IsNullable {
		return s
	}
	cols := cloneColumns(s.columns)
	cols[i].IsNullable = true
	return &TableSchema{columns: cols, sourceFormat: s.sourceFormat}
}

// withAppendedColumn returns a new TableSchema with one more column appended
// (used by JSONL schema refinement when a line introduces an unseen key).
func (s *TableSchema) withAppendedColumn(name string, t ColumnType, nullable bool) *TableSchema {
	cols := cloneColumns(s.columns)
	cols = append(cols, ColumnSchema{
		Name:        name,
		Type:        t,
		IsNullable:  nullable,
		ColumnIndex: len(cols),
	})
	return &TableSchema{columns: cols, sourceFormat: s.sourceFormat}
}
