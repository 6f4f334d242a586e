package datamorph

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Mode is the UI's tree-vs-table view mode for JSONL/JSON sources (§6
// ToggleTableMode). CSV sources are always Table.
type Mode int

const (
	ModeTree Mode = iota
	ModeTable
)

// LoaderOption configures a FileLoader.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	scanOpts  []ScanOption
	cacheSize int
}

// WithLoaderScanOptions forwards ScanOption values (e.g.
// WithInitialScanCount) to every SchemaScanner the loader constructs.
func WithLoaderScanOptions(opts ...ScanOption) LoaderOption {
	return func(c *loaderConfig) { c.scanOpts = append(c.scanOpts, opts...) }
}

// WithLoaderCacheSize overrides the RowByteCache window size (default 200).
func WithLoaderCacheSize(n int) LoaderOption {
	return func(c *loaderConfig) { c.cacheSize = n }
}

// AppState is the single process-wide mutable record the UI collaborator
// reads and writes (§6). Only the UI thread mutates it directly; background
// tasks publish through the atomic schema pointer and the indexers' own
// atomic counters.
type AppState struct {
	CurrentFilePath string
	CurrentMode     Mode
	Format          DataFormat

	source *MmapSource

	schemaPtr atomic.Pointer[TableSchema]

	csvIndexer   *CsvRowIndexer
	jsonlIndexer *JsonLinesRowIndexer

	raw         TableSource
	transformer *LazyTransformer
	filterIdx   *FilterRowIndexer

	actionStack *ActionStack

	// tableSetup runs the deferred JSONL schema scan on the first table-mode
	// entry (§6 capability 3). Nil for CSV (always table) and for
	// JSON-Array/Object sources (tree-only).
	tableSetup func() error

	// newScanSource builds a dedicated read path for a filter index build:
	// a fresh reader and its own row window, reading off the shared file
	// independently of the display cache. RowByteCache is UI-thread-only
	// and a background full scan through it would race the display window,
	// so the filter indexer never touches it.
	newScanSource func() filterCellSource

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	indexDone atomic.Bool
	LastError error
}

// Schema returns the current TableSchema via a single atomic pointer load,
// so the UI thread observes either the prior or the newly-published
// complete instance, never a partially-initialized one (§5).
func (a *AppState) Schema() *TableSchema { return a.schemaPtr.Load() }

// CurrentSource returns the currently displayed TableSource: the
// LazyTransformer built from the live ActionStack (itself wrapping the raw
// source), or the raw source directly when the stack is empty.
func (a *AppState) CurrentSource() TableSource {
	if a.transformer != nil {
		return a.transformer
	}
	return a.raw
}

// ActionStackSnapshot returns the currently active ActionStack.
func (a *AppState) ActionStackSnapshot() *ActionStack { return a.actionStack }

// Close cancels any in-flight background tasks and releases the mapped
// file. Safe to call once per Load.
func (a *AppState) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.group != nil {
		_ = a.group.Wait()
	}
	if a.source != nil {
		return a.source.Close()
	}
	return nil
}

// FilterReady exposes whether a new filter can be applied: the row indexer
// must have finished building before FilterRowIndexer construction is safe
// (§4.7 precondition, §6 capability 5).
type FilterReady struct{ state *AppState }

// CanApplyFilter reports whether the backing row indexer has finished.
func (f FilterReady) CanApplyFilter() bool { return f.state.indexDone.Load() }

// FilterReady returns the FilterReady capability bound to this AppState.
func (a *AppState) FilterReady() FilterReady { return FilterReady{state: a} }

// ActionSink is the append(action) capability of §6: replacing the
// ActionStack and rebuilding the displayed LazyTransformer.
type ActionSink struct{ state *AppState }

// ActionSink returns the ActionSink capability bound to this AppState.
func (a *AppState) ActionSink() ActionSink { return ActionSink{state: a} }

// Append extends the ActionStack with action, rebuilds the LazyTransformer
// over the raw source, and — if the new stack carries any Filter actions —
// starts a fresh FilterRowIndexer background build over a dedicated scan
// source (never the display cache, which is UI-thread-only). The previous
// transformer/filter indexer (if any) is discarded; in-flight filter builds
// for a superseded stack are not explicitly cancelled here since
// FilterRowIndexer construction already requires the row indexer to be
// done, so there is no overlapping background task to race against.
func (s ActionSink) Append(action MorphAction) error {
	schema := s.state.Schema()
	if schema == nil {
		return fmt.Errorf("datamorph: cannot append action before a schema is available")
	}
	if action.Kind == ActionFilter && !s.state.FilterReady().CanApplyFilter() {
		return ErrFilterIndexerBusy
	}

	s.state.actionStack = s.state.actionStack.Append(action)
	t := NewLazyTransformer(s.state.raw, schema, s.state.actionStack)
	s.state.transformer = t

	if t.HasFilters() {
		fi := NewFilterRowIndexer(s.state.newScanSource(), s.state.raw.Rows(), t.Filters())
		t.SetFilterIndex(fi)
		s.state.filterIdx = fi
		s.state.group.Go(func() error {
			return fi.BuildIndexAsync(s.state.ctx)
		})
	} else {
		s.state.filterIdx = nil
	}
	return nil
}

// FileLoader is the §6 entry point that loads a path, populates a fresh
// AppState, and dispatches background index/schema-refinement tasks.
type FileLoader struct {
	cfg loaderConfig
}

// NewFileLoader returns a FileLoader. Defaults: 200-row/line initial schema
// scan, 200-row RowByteCache window.
func NewFileLoader(opts ...LoaderOption) *FileLoader {
	cfg := loaderConfig{cacheSize: defaultCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &FileLoader{cfg: cfg}
}

// Load opens path, detects its format, builds the initial schema, and
// starts background row indexing (and, for table-eligible formats,
// progressive schema refinement). The returned AppState's action stack
// starts empty (§3 Lifecycles).
func (l *FileLoader) Load(path string) (*AppState, error) {
	src, err := OpenMmapSource(path)
	if err != nil {
		return nil, err
	}

	format, err := detectFormatFromMmap(src, path)
	if err != nil {
		_ = src.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)

	state := &AppState{
		CurrentFilePath: path,
		Format:          format,
		source:          src,
		actionStack:     NewActionStack(),
		ctx:             ctx,
		cancel:          cancel,
		group:           group,
	}

	switch format {
	case Csv:
		if err := l.loadCSV(state, gctx, group, path, src); err != nil {
			cancel()
			_ = src.Close()
			return nil, err
		}
		state.CurrentMode = ModeTable
	case JsonLines:
		if err := l.loadJSONL(state, gctx, group, path, src); err != nil {
			cancel()
			_ = src.Close()
			return nil, err
		}
		state.CurrentMode = ModeTree // ToggleTableMode triggers schema scan lazily (§6 capability 3)
	case JsonArray, JsonObject:
		state.CurrentMode = ModeTree
		state.indexDone.Store(true) // no row indexer applies; filters are never offered in tree mode
	}

	return state, nil
}

// detectFormatFromMmap runs FormatDetector against path by reopening the
// file for each StreamOpener invocation (the detector may re-read the
// stream during CSV validation).
func detectFormatFromMmap(_ *MmapSource, path string) (DataFormat, error) {
	d := NewFormatDetector()
	return d.Detect(func() (io.ReadCloser, error) {
		return os.Open(path)
	})
}

// scanFirstCSVLine locates the header line's end offset by applying the
// same quote-aware newline scan CsvRowIndexer uses, bounded to a generous
// prefix of the file (CSV headers are never multi-megabyte).
func scanFirstCSVLine(src *MmapSource) (header []byte, end RowOffset, err error) {
	const maxHeaderScan = 4 << 20
	n := src.Len()
	if n > maxHeaderScan {
		n = maxHeaderScan
	}
	buf := make([]byte, n)
	if _, err := src.Read(0, buf); err != nil {
		return nil, 0, err
	}

	var inQuotes bool
	for i := 0; i < len(buf); i++ {
		switch buf[i] {
		case '"':
			inQuotes = !inQuotes
		case '\n':
			if !inQuotes {
				line := buf[:i+1]
				if len(line) > 0 && line[len(line)-1] == '\n' {
					line = line[:len(line)-1]
				}
				if len(line) > 0 && line[len(line)-1] == '\r' {
					line = line[:len(line)-1]
				}
				return line, RowOffset(i + 1), nil
			}
		}
	}
	return buf, RowOffset(len(buf)), nil
}

func (l *FileLoader) loadCSV(state *AppState, gctx context.Context, group *errgroup.Group, path string, src *MmapSource) error {
	headerLine, headerEnd, err := scanFirstCSVLine(src)
	if err != nil {
		return err
	}
	hr := csv.NewReader(bytes.NewReader(headerLine))
	hr.FieldsPerRecord = -1
	header, err := hr.Read()
	if err != nil {
		return newSchemaError(-1, "could not parse CSV header: "+err.Error(), ErrNoRows)
	}
	for i, h := range header {
		header[i] = normalizeHeaderName(h)
	}

	reader := NewCsvRowReader(path, len(header))
	scanner := NewCsvSchemaScanner(l.cfg.scanOpts...)

	cfg := newScanConfig(l.cfg.scanOpts)
	initialRows, err := reader.FetchRows(headerEnd, 0, cfg.initialScanCount)
	if err != nil {
		return err
	}
	rows := make([][]string, len(initialRows))
	for i, r := range initialRows {
		rows[i] = []string(r.(csvCachedRow))
	}

	schema, err := scanner.ScanSchema(header, rows)
	if err != nil {
		return err
	}
	state.schemaPtr.Store(schema)

	indexer := NewCsvRowIndexer(src, headerEnd)
	state.csvIndexer = indexer

	cache := NewRowByteCache(reader, indexer).WithCacheSize(l.cfg.cacheSize)
	state.raw = NewRawTableSource(schema, cache, indexer)

	cacheSize := l.cfg.cacheSize
	columnCount := len(header)
	state.newScanSource = func() filterCellSource {
		scanCache := NewRowByteCache(NewCsvRowReader(path, columnCount), indexer).WithCacheSize(cacheSize)
		return NewRawTableSource(state.Schema(), scanCache, indexer)
	}

	group.Go(func() error {
		err := indexer.BuildIndex(gctx)
		state.indexDone.Store(true)
		return err
	})
	group.Go(func() error {
		refineCSVSchemaInBackground(gctx, state, reader, scanner, indexer, len(rows))
		return nil
	})
	return nil
}

// refineCSVSchemaInBackground advances past the initial scan window,
// refining the schema row-by-row as the row indexer makes more rows
// available, publishing a new schema instance via atomic pointer swap
// whenever refinement actually changes something (RefineSchema's
// copy-on-write early-exit means most publishes are no-ops skipped here by
// pointer identity).
func refineCSVSchemaInBackground(ctx context.Context, state *AppState, reader *CsvRowReader, scanner *CsvSchemaScanner, indexer *CsvRowIndexer, startRow int) {
	schema := state.Schema()
	next := startRow
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		total := indexer.TotalRows()
		if next >= total {
			if state.indexDone.Load() && next >= indexer.TotalRows() {
				return
			}
			time.Sleep(5 * time.Millisecond)
			continue
		}

		batch := 1000
		if total-next < batch {
			batch = total - next
		}
		offset, skip := indexer.GetCheckpoint(next)
		rows, err := reader.FetchRows(offset, skip, batch)
		if err != nil || len(rows) == 0 {
			return
		}
		for _, r := range rows {
			refined := scanner.RefineSchema(schema, []string(r.(csvCachedRow)))
			if refined != schema {
				schema = refined
				state.schemaPtr.Store(schema)
			}
		}
		next += len(rows)
	}
}

func (l *FileLoader) loadJSONL(state *AppState, gctx context.Context, group *errgroup.Group, path string, src *MmapSource) error {
	indexer := NewJsonLinesRowIndexer(src)
	state.jsonlIndexer = indexer

	group.Go(func() error {
		err := indexer.BuildIndex(gctx)
		state.indexDone.Store(true)
		return err
	})

	cfg := newScanConfig(l.cfg.scanOpts)
	lineReader := NewJsonLinesLineReader(path)
	scanOpts := l.cfg.scanOpts
	cacheSize := l.cfg.cacheSize

	// The schema scan is deferred until the first table-mode entry (§6
	// capability 3): a JSONL file opened for tree navigation never pays for
	// tabular inference it may not use.
	state.tableSetup = func() error {
		initialRows, err := lineReader.FetchRows(0, 0, cfg.initialScanCount)
		if err != nil {
			return err
		}
		lines := make([][]byte, len(initialRows))
		for i, r := range initialRows {
			lines[i] = []byte(r.(jsonlCachedRow))
		}

		scanner := NewJsonLinesSchemaScanner(scanOpts...)
		schema, err := scanner.ScanSchema(lines)
		if err != nil {
			return err
		}
		state.schemaPtr.Store(schema)

		cache := NewRowByteCache(lineReader, indexer).WithCacheSize(cacheSize)
		state.raw = NewRawTableSource(schema, cache, indexer)

		state.newScanSource = func() filterCellSource {
			scanCache := NewRowByteCache(NewJsonLinesLineReader(path), indexer).WithCacheSize(cacheSize)
			return NewRawTableSource(state.Schema(), scanCache, indexer)
		}

		group.Go(func() error {
			refineJSONLSchemaInBackground(gctx, state, lineReader, scanner, indexer, len(lines))
			return nil
		})
		return nil
	}
	return nil
}

func refineJSONLSchemaInBackground(ctx context.Context, state *AppState, reader *JsonLinesLineReader, scanner *JsonLinesSchemaScanner, indexer *JsonLinesRowIndexer, startRow int) {
	schema := state.Schema()
	next := startRow
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		total := indexer.TotalRows()
		if next >= total {
			if state.indexDone.Load() && next >= indexer.TotalRows() {
				return
			}
			time.Sleep(5 * time.Millisecond)
			continue
		}

		batch := 1000
		if total-next < batch {
			batch = total - next
		}
		offset, skip := indexer.GetCheckpoint(next)
		rows, err := reader.FetchRows(offset, skip, batch)
		if err != nil || len(rows) == 0 {
			return
		}
		for _, r := range rows {
			refined := scanner.RefineSchema(schema, []byte(r.(jsonlCachedRow)))
			if refined != schema {
				schema = refined
				state.schemaPtr.Store(schema)
			}
		}
		next += len(rows)
	}
}

// ToggleTableMode flips between tree and table view for JSONL/JSON sources.
// Entering Table mode for the first time triggers the lazy JSONL schema scan
// (§6 capability 3); CSV sources are unaffected (always Table).
func (a *AppState) ToggleTableMode() error {
	if a.Format != JsonLines {
		// CSV is always table; JSON-Array/Object sources are tree-only.
		return nil
	}
	if a.CurrentMode == ModeTree {
		if a.Schema() == nil && a.tableSetup != nil {
			if err := a.tableSetup(); err != nil {
				a.LastError = err
				return err
			}
		}
		a.CurrentMode = ModeTable
		return nil
	}
	a.CurrentMode = ModeTree
	return nil
}
