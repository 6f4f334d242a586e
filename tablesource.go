package datamorph

// rowCounter is the subset of CsvRowIndexer/JsonLinesRowIndexer that a raw
// TableSource needs to report a live row count (§9 "Row count outside the
// schema": RowCount lives on the indexer, not on the immutable TableSchema).
type rowCounter interface {
	TotalRows() int
}

// RawTableSource is the TableSource implementation sitting directly over a
// RowByteCache: the bottom of the data/control flow in §2, before any
// LazyTransformer wrapping. One is constructed per loaded file by
// FileLoader.
type RawTableSource struct {
	schema  *TableSchema
	cache   *RowByteCache
	counter rowCounter
	names   []string
}

// NewRawTableSource binds a RowByteCache, its backing row counter, and a
// TableSchema into a TableSource.
func NewRawTableSource(schema *TableSchema, cache *RowByteCache, counter rowCounter) *RawTableSource {
	cols := schema.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return &RawTableSource{schema: schema, cache: cache, counter: counter, names: names}
}

// Rows returns the live row count from the backing indexer.
func (t *RawTableSource) Rows() int { return t.counter.TotalRows() }

// Columns returns the column count at construction time. Column count
// itself does not change for CSV; for JSONL it reflects the schema instance
// this source was built against on the first ToggleTableMode. A schema
// later republished by background refinement does not change it.
func (t *RawTableSource) Columns() int { return len(t.names) }

// ColumnNames returns the ordered column-name list.
func (t *RawTableSource) ColumnNames() []string { return t.names }

// Cell returns the rendered value at (row, col), consulting the sliding
// window cache.
func (t *RawTableSource) Cell(row, col int) (string, error) {
	if col < 0 || col >= len(t.names) {
		return "", newIndexError(row, col)
	}
	return t.cache.Cell(row, col, t.names[col])
}

// Schema returns the TableSchema this source was built against.
func (t *RawTableSource) Schema() *TableSchema { return t.schema }
