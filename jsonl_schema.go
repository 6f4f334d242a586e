package datamorph

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// JsonLinesSchemaScanner infers and progressively refines a TableSchema
// from JSON-Lines records by maintaining a dynamic union of observed keys
// (§4.4, glossary "Dynamic Union").
type JsonLinesSchemaScanner struct {
	initialScanCount int
}

// NewJsonLinesSchemaScanner returns a ready-to-use JsonLinesSchemaScanner.
func NewJsonLinesSchemaScanner(opts ...ScanOption) *JsonLinesSchemaScanner {
	return &JsonLinesSchemaScanner{initialScanCount: newScanConfig(opts).initialScanCount}
}

// jsonlScanState tracks the dynamic union while scanning.
type jsonlScanState struct {
	columnMap     map[string]ColumnType
	keyOrder      []string
	observedCount map[string]int
	rowsScanned   int
}

func newJSONLScanState() *jsonlScanState {
	return &jsonlScanState{
		columnMap:     make(map[string]ColumnType),
		observedCount: make(map[string]int),
	}
}

// inferJSONScalar converts a JSON-encoded scalar's raw bytes into the
// ColumnType the CSV-style scalar inferencer would assign to its text
// rendering, and reports whether it was the null literal.
func inferJSONScalar(raw []byte) (t ColumnType, isNull bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return Text, true
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Text, false
		}
		return InferScalar(s), false
	}
	return InferScalar(string(raw)), false
}

// observeObject walks one top-level JSON object's fields in document order,
// updating the dynamic-union state per §4.4's JSONL scan algorithm.
func (st *jsonlScanState) observeObject(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errNotObject
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return errNotObject
		}

		var valRaw json.RawMessage
		if err := dec.Decode(&valRaw); err != nil {
			return err
		}

		_, known := st.columnMap[key]
		if !known {
			st.keyOrder = append(st.keyOrder, key)
			st.columnMap[key] = Text
		}

		trimmed := bytes.TrimSpace(valRaw)
		switch {
		case len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '['):
			observed := JSONObject
			if trimmed[0] == '[' {
				observed = JSONArray
			}
			if known {
				st.columnMap[key] = ResolveType(st.columnMap[key], observed)
			} else {
				st.columnMap[key] = observed
			}
			st.observedCount[key]++
		case string(trimmed) == "null":
			// do not change type or increment observed count
		default:
			observed, _ := inferJSONScalar(trimmed)
			if known {
				st.columnMap[key] = ResolveType(st.columnMap[key], observed)
			} else {
				st.columnMap[key] = observed
			}
			st.observedCount[key]++
		}
	}
	st.rowsScanned++
	return nil
}

var errNotObject = newSchemaError(-1, "line is not a JSON object", ErrSchemaMismatch)

// ScanSchema scans up to initialScanCount lines, building the dynamic-union
// TableSchema. Malformed lines (not a JSON object) are silently skipped;
// empty input or all-malformed input is an error.
func (s *JsonLinesSchemaScanner) ScanSchema(lines [][]byte) (*TableSchema, error) {
	st := newJSONLScanState()
	limit := len(lines)
	if s.initialScanCount > 0 && s.initialScanCount < limit {
		limit = s.initialScanCount
	}

	for i := 0; i < limit; i++ {
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 {
			continue
		}
		_ = st.observeObject(line) // malformed lines are silently skipped
	}

	if st.rowsScanned == 0 {
		return nil, newSchemaError(-1, "no well-formed JSON object lines to infer schema from", ErrNoRows)
	}

	names := append([]string(nil), st.keyOrder...)
	types := make([]ColumnType, len(names))
	nullable := make([]bool, len(names))
	for i, name := range names {
		types[i] = st.columnMap[name]
		nullable[i] = st.observedCount[name] < st.rowsScanned
	}
	return NewTableSchema(JsonLines, names, types, nullable)
}

// RefineSchema processes one JSONL line and returns the original instance
// (copy-on-write) when no cell altered any column's type or nullability.
// New keys discovered during refinement are appended with IsNullable=true
// (absent from every prior row); existing keys absent from the current line
// are marked nullable.
func (s *JsonLinesSchemaScanner) RefineSchema(schema *TableSchema, line []byte) *TableSchema {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return schema
	}

	present := make(map[string]bool, len(schema.Columns()))
	dec := json.NewDecoder(bytes.NewReader(line))
	tok, err := dec.Token()
	if err != nil {
		return schema
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return schema
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return schema
		}
		key, ok := keyTok.(string)
		if !ok {
			return schema
		}
		var valRaw json.RawMessage
		if err := dec.Decode(&valRaw); err != nil {
			return schema
		}
		present[key] = true

		trimmed := bytes.TrimSpace(valRaw)
		col, existed := schema.ColumnByName(key)
		if string(trimmed) == "null" {
			if existed {
				schema = schema.WithMarkedNullable(col.ColumnIndex)
			} else {
				schema = schema.withAppendedColumn(key, Text, true)
			}
			continue
		}

		var observed ColumnType
		switch {
		case len(trimmed) > 0 && trimmed[0] == '{':
			observed = JSONObject
		case len(trimmed) > 0 && trimmed[0] == '[':
			observed = JSONArray
		default:
			observed, _ = inferJSONScalar(trimmed)
		}

		if !existed {
			schema = schema.withAppendedColumn(key, observed, true)
			continue
		}
		resolved := ResolveType(col.Type, observed)
		schema = schema.WithUpdatedType(col.ColumnIndex, resolved)
	}

	for _, col := range schema.Columns() {
		if !present[col.Name] {
			schema = schema.WithMarkedNullable(col.ColumnIndex)
		}
	}
	return schema
}
