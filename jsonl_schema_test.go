package datamorph

import "testing"

func TestJsonLinesSchemaScanner_DynamicUnion(t *testing.T) {
	t.Parallel()

	scanner := NewJsonLinesSchemaScanner()
	lines := [][]byte{
		[]byte(`{"id":1,"name":"A"}`),
		[]byte(`{"id":2,"email":"b@x"}`),
	}

	schema, err := scanner.ScanSchema(lines)
	if err != nil {
		t.Fatalf("ScanSchema() error = %v", err)
	}

	cols := schema.Columns()
	wantNames := []string{"id", "name", "email"}
	if len(cols) != len(wantNames) {
		t.Fatalf("got %d columns, want %d", len(cols), len(wantNames))
	}
	for i, name := range wantNames {
		if cols[i].Name != name {
			t.Errorf("column %d = %q, want %q", i, cols[i].Name, name)
		}
	}

	idCol, _ := schema.ColumnByName("id")
	nameCol, _ := schema.ColumnByName("name")
	emailCol, _ := schema.ColumnByName("email")

	if idCol.Type != WholeNumber || idCol.IsNullable {
		t.Errorf("id column = %+v, want WholeNumber/not nullable", idCol)
	}
	if nameCol.Type != Text || !nameCol.IsNullable {
		t.Errorf("name column = %+v, want Text/nullable", nameCol)
	}
	if emailCol.Type != Text || !emailCol.IsNullable {
		t.Errorf("email column = %+v, want Text/nullable", emailCol)
	}
}

func TestJsonLinesSchemaScanner_NullDoesNotChangeType(t *testing.T) {
	t.Parallel()

	scanner := NewJsonLinesSchemaScanner()
	lines := [][]byte{
		[]byte(`{"a":1}`),
		[]byte(`{"a":null}`),
		[]byte(`{"a":2}`),
	}
	schema, err := scanner.ScanSchema(lines)
	if err != nil {
		t.Fatalf("ScanSchema() error = %v", err)
	}
	col, _ := schema.ColumnByName("a")
	if col.Type != WholeNumber {
		t.Errorf("type = %v, want WholeNumber (null observations must not alter type)", col.Type)
	}
	if !col.IsNullable {
		t.Error("expected nullable: 2 non-null observations out of 3 rows scanned")
	}
}

func TestJsonLinesSchemaScanner_AllMalformedIsError(t *testing.T) {
	t.Parallel()

	scanner := NewJsonLinesSchemaScanner()
	_, err := scanner.ScanSchema([][]byte{[]byte("not json"), []byte("{broken")})
	if err == nil {
		t.Fatal("expected error for all-malformed input")
	}
}

func TestJsonLinesSchemaScanner_ObjectArrayWithAnythingResolvesText(t *testing.T) {
	t.Parallel()

	scanner := NewJsonLinesSchemaScanner()
	lines := [][]byte{
		[]byte(`{"a":{"x":1}}`),
		[]byte(`{"a":"plain string"}`),
	}
	schema, err := scanner.ScanSchema(lines)
	if err != nil {
		t.Fatalf("ScanSchema() error = %v", err)
	}
	col, _ := schema.ColumnByName("a")
	if col.Type != Text {
		t.Errorf("type = %v, want Text", col.Type)
	}
}

func TestJsonLinesSchemaScanner_RefineSchema_NewKeyAppendedNullable(t *testing.T) {
	t.Parallel()

	scanner := NewJsonLinesSchemaScanner()
	schema, err := scanner.ScanSchema([][]byte{[]byte(`{"a":1}`)})
	if err != nil {
		t.Fatalf("ScanSchema() error = %v", err)
	}

	refined := scanner.RefineSchema(schema, []byte(`{"a":2,"b":"new"}`))
	if refined == schema {
		t.Fatal("expected a new schema instance after a new key appears")
	}
	col, ok := refined.ColumnByName("b")
	if !ok || !col.IsNullable {
		t.Errorf("new key b = %+v, ok=%v, want nullable", col, ok)
	}
}

func TestJsonLinesSchemaScanner_RefineSchema_NoOpReturnsSameInstance(t *testing.T) {
	t.Parallel()

	scanner := NewJsonLinesSchemaScanner()
	schema, err := scanner.ScanSchema([][]byte{[]byte(`{"a":1}`)})
	if err != nil {
		t.Fatalf("ScanSchema() error = %v", err)
	}

	same := scanner.RefineSchema(schema, []byte(`{"a":2}`))
	if same != schema {
		t.Error("expected the same schema instance when nothing changed")
	}
}
