package datamorph

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"
)

// Exporter snapshot-exports the current TableSource view (post-transform,
// post-filter, exactly what is currently displayed) to Parquet or XLSX.
// This is a supplemented feature beyond the core spec (see SPEC_FULL.md
// SUPPLEMENTED FEATURES): it never rewrites the source file, only produces
// a new file in a different format, so it does not conflict with the
// "no writing back to the source format" Non-goal.
type Exporter struct {
	source TableSource
}

// NewExporter wraps source for export. Every column is exported as text;
// DataMorph's cell model is string-rendered end to end (§4.6), so a Cast
// action already controls the textual representation exported here.
func NewExporter(source TableSource) *Exporter {
	return &Exporter{source: source}
}

// dynamicRowType builds a struct type at runtime with one string field per
// column, tagged for parquet-go's struct-tag-driven schema inference —
// the same mechanism the teacher's own test suite uses
// (parquet.NewGenericWriter[T] over a tagged struct), just with T
// constructed via reflection since DataMorph's column set isn't known at
// compile time.
func dynamicRowType(names []string) reflect.Type {
	fields := make([]reflect.StructField, len(names))
	for i, name := range names {
		fields[i] = reflect.StructField{
			Name: fmt.Sprintf("F%d", i),
			Type: reflect.TypeOf(""),
			Tag:  reflect.StructTag(fmt.Sprintf(`parquet:%q`, sanitizeParquetFieldName(name))),
		}
	}
	return reflect.StructOf(fields)
}

// sanitizeParquetFieldName strips characters parquet-go's tag parser treats
// as option separators.
func sanitizeParquetFieldName(name string) string {
	return strings.ReplaceAll(name, ",", "_")
}

// ExportParquet writes every currently-visible row to a new Parquet file at
// path, one row group, default codec (grounded on the teacher's
// parseParquet, reversed into a write path).
func (e *Exporter) ExportParquet(path string) error {
	names := e.source.ColumnNames()
	rowType := dynamicRowType(names)
	sliceType := reflect.SliceOf(rowType)
	rowsVal := reflect.MakeSlice(sliceType, 0, e.source.Rows())

	for r := 0; r < e.source.Rows(); r++ {
		rowVal := reflect.New(rowType).Elem()
		for c := range names {
			cell, err := e.source.Cell(r, c)
			if err != nil {
				return fmt.Errorf("datamorph: export parquet: row %d col %d: %w", r, c, err)
			}
			rowVal.Field(c).SetString(cell)
		}
		rowsVal = reflect.Append(rowsVal, rowVal)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("datamorph: create %s: %w", path, err)
	}
	defer f.Close()

	writer := parquet.NewGenericWriter[any](f, parquet.SchemaOf(reflect.New(rowType).Interface()))
	n := rowsVal.Len()
	rowsIface := make([]any, n)
	for i := 0; i < n; i++ {
		rowsIface[i] = rowsVal.Index(i).Interface()
	}
	if _, err := writer.Write(rowsIface); err != nil {
		return fmt.Errorf("datamorph: write parquet rows: %w", err)
	}
	return writer.Close()
}

// ExportXLSX writes every currently-visible row (plus a header row of
// column names) to a new XLSX file at path, single sheet (grounded on the
// teacher's parseXLSX, reversed into a write path).
func (e *Exporter) ExportXLSX(path string) error {
	names := e.source.ColumnNames()

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	for c, name := range names {
		cellRef, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return fmt.Errorf("datamorph: export xlsx header: %w", err)
		}
		if err := f.SetCellValue(sheet, cellRef, name); err != nil {
			return fmt.Errorf("datamorph: export xlsx header: %w", err)
		}
	}

	for r := 0; r < e.source.Rows(); r++ {
		for c := range names {
			cell, err := e.source.Cell(r, c)
			if err != nil {
				return fmt.Errorf("datamorph: export xlsx: row %d col %d: %w", r, c, err)
			}
			cellRef, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("datamorph: export xlsx: %w", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				return fmt.Errorf("datamorph: export xlsx: %w", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("datamorph: save %s: %w", path, err)
	}
	return nil
}
