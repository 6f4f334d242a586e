// Package datamorph is the data engine behind an interactive terminal
// explorer for multi-gigabyte CSV, JSON-Lines, JSON-Array, and JSON-Object
// files: format detection, byte-offset row indexing, progressive schema
// inference, a sliding-window row cache, a lazy rename/delete/cast/filter
// action stack, an asynchronous filter-match index, and a hand-editable
// recipe codec for persisting the action stack.
//
// # Basic Usage
//
//	loader := datamorph.NewFileLoader()
//	state, err := loader.Load("events.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer state.Close()
//
//	source := state.CurrentSource()
//	fmt.Println(source.ColumnNames())
//	cell, _ := source.Cell(0, 0)
//
//	// Append a morph action; the view rebuilds lazily.
//	_ = state.ActionSink().Append(datamorph.NewCastAction("age", datamorph.WholeNumber))
//
// # Memory Usage
//
// datamorph never loads a whole file into memory. MmapSource provides
// bounded random-access reads over the mapped file; row indexing streams
// over fixed-size chunks (1 MiB on CPUs with AVX2, 512 KiB otherwise);
// schema inference reads a bounded number of rows at a time; RowByteCache
// holds only a sliding
// window (default 200 rows) at a time. Background tasks (row indexing,
// schema refinement, filter indexing) yield every 1000 rows so the UI
// thread is never blocked for more than a frame.
//
// # Supported Formats
//
//   - CSV (RFC 4180, comma-delimited, double-quote escaped)
//   - JSON Lines (one JSON object per line)
//   - JSON Array / JSON Object (tree-mode navigation; tabular schema
//     inference is available on demand via ToggleTableMode for JSON Lines
//     sources only — arrays/objects stay in tree mode)
//
// Format-specific limitations:
//   - Nested object/array values are surfaced as opaque JsonObject/JsonArray
//     cells, never flattened into sub-columns.
//   - The recipe codec persists the action stack, never cell data; DataMorph
//     does not write back to the source file's original format.
package datamorph
