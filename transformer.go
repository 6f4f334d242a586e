package datamorph

import (
	"strconv"
	"strings"
	"time"
)

// TableSource is the capability LazyTransformer wraps and, transparently,
// re-exposes: a random-access table with live-updated row count (§6).
type TableSource interface {
	Rows() int
	Columns() int
	ColumnNames() []string
	Cell(row, col int) (string, error)
}

// workingColumn is one entry of LazyTransformer's construction-time working
// list (§4.6): one per original column, mutated in place by Rename/Delete/
// Cast actions, never by Filter.
type workingColumn struct {
	sourceIndex int
	name        string
	colType     ColumnType
	isNullable  bool
	casted      bool
}

// filterSourceRowLookup is the subset of FilterRowIndexer that LazyTransformer
// needs; kept as an interface so tests can supply a fake without a real
// background build.
type filterSourceRowLookup interface {
	TotalMatchedRows() int
	GetSourceRow(filteredRow int) int
}

// LazyTransformer applies an immutable ActionStack over an underlying
// TableSource, producing a transparent TableSource of its own (§4.6). An
// empty ActionStack makes it a pure passthrough.
type LazyTransformer struct {
	source TableSource
	orig   *TableSchema

	outputNames   []string
	outputTypes   []ColumnType
	sourceIndices []int
	castedOutput  []bool // parallel to outputs: true if this output column was Cast

	filters     []FilterSpec
	filterIndex filterSourceRowLookup
}

// NewLazyTransformer builds a LazyTransformer from source (with schema orig)
// and actions, applied in order per §4.6's construction algorithm. Pass a
// nil/empty actions stack for a passthrough.
func NewLazyTransformer(source TableSource, orig *TableSchema, actions *ActionStack) *LazyTransformer {
	cols := orig.Columns()
	working := make([]workingColumn, len(cols))
	for i, c := range cols {
		working[i] = workingColumn{sourceIndex: i, name: c.Name, colType: c.Type, isNullable: c.IsNullable}
	}

	var filters []FilterSpec

	for _, act := range actions.Actions() {
		switch act.Kind {
		case ActionRename:
			if idx := findWorkingColumn(working, act.OldName); idx >= 0 {
				working[idx].name = act.NewName
			}
		case ActionDelete:
			if idx := findWorkingColumn(working, act.ColumnName); idx >= 0 {
				working = append(working[:idx], working[idx+1:]...)
			}
		case ActionCast:
			if idx := findWorkingColumn(working, act.ColumnName); idx >= 0 {
				working[idx].colType = act.TargetType
				working[idx].casted = true
			}
		case ActionFilter:
			if idx := findWorkingColumn(working, act.ColumnName); idx >= 0 {
				filters = append(filters, FilterSpec{
					SourceColumnIndex: working[idx].sourceIndex,
					ColumnType:        working[idx].colType,
					Operator:          act.Operator,
					Value:             act.Value,
				})
			}
		}
	}

	t := &LazyTransformer{source: source, orig: orig, filters: filters}
	t.outputNames = make([]string, len(working))
	t.outputTypes = make([]ColumnType, len(working))
	t.sourceIndices = make([]int, len(working))
	t.castedOutput = make([]bool, len(working))
	for i, w := range working {
		t.outputNames[i] = w.name
		t.outputTypes[i] = w.colType
		t.sourceIndices[i] = w.sourceIndex
		t.castedOutput[i] = w.casted
	}
	return t
}

func findWorkingColumn(working []workingColumn, name string) int {
	for i, w := range working {
		if w.name == name {
			return i
		}
	}
	return -1
}

// SetFilterIndex wires the asynchronously-built FilterRowIndexer once the
// FileLoader constructs one for this transformer's filters. Until wired,
// Rows()/Cell() behave as if no rows have matched yet.
func (t *LazyTransformer) SetFilterIndex(idx filterSourceRowLookup) {
	t.filterIndex = idx
}

// Filters returns the derived FilterSpec list, for FilterRowIndexer
// construction.
func (t *LazyTransformer) Filters() []FilterSpec { return t.filters }

// HasFilters reports whether any Filter action survived construction.
func (t *LazyTransformer) HasFilters() bool { return len(t.filters) > 0 }

// Columns reports the output column count.
func (t *LazyTransformer) Columns() int { return len(t.outputNames) }

// ColumnNames returns the output column name list in order.
func (t *LazyTransformer) ColumnNames() []string { return t.outputNames }

// Rows delegates to the filter indexer's matched-row count when filters are
// present, else to the underlying source's row count.
func (t *LazyTransformer) Rows() int {
	if len(t.filters) > 0 {
		if t.filterIndex == nil {
			return 0
		}
		return t.filterIndex.TotalMatchedRows()
	}
	return t.source.Rows()
}

// Cell implements §4.6's indexer algorithm.
func (t *LazyTransformer) Cell(row, col int) (string, error) {
	if col < 0 || col >= len(t.outputNames) {
		return "", newIndexError(row, col)
	}

	sourceRow := row
	if len(t.filters) > 0 {
		if t.filterIndex == nil {
			return "", nil
		}
		sourceRow = t.filterIndex.GetSourceRow(row)
		if sourceRow < 0 {
			return "", nil
		}
	} else if row < 0 || row >= t.source.Rows() {
		return "", newIndexError(row, col)
	}

	raw, err := t.source.Cell(sourceRow, t.sourceIndices[col])
	if err != nil {
		return "", err
	}

	if t.castedOutput[col] {
		return RenderCast(t.outputTypes[col], raw), nil
	}
	return raw, nil
}

// evaluateFilter applies one FilterSpec to a raw source-cell value, per
// §4.6's operator table. Order operators on a Text column degrade to
// Eq/Ne (§9 Open Question 2).
func evaluateFilter(spec FilterSpec, raw string) bool {
	switch spec.Operator {
	case Eq:
		return strings.EqualFold(raw, spec.Value)
	case Ne:
		return !strings.EqualFold(raw, spec.Value)
	case Contains:
		return strings.Contains(strings.ToLower(raw), strings.ToLower(spec.Value))
	case NotContains:
		return !strings.Contains(strings.ToLower(raw), strings.ToLower(spec.Value))
	case StartsWith:
		return strings.HasPrefix(strings.ToLower(raw), strings.ToLower(spec.Value))
	case EndsWith:
		return strings.HasSuffix(strings.ToLower(raw), strings.ToLower(spec.Value))
	case Gt, Lt, Ge, Le:
		return evaluateOrderFilter(spec, raw)
	default:
		return false
	}
}

func evaluateOrderFilter(spec FilterSpec, raw string) bool {
	switch spec.ColumnType {
	case WholeNumber:
		a, errA := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		b, errB := strconv.ParseInt(strings.TrimSpace(spec.Value), 10, 64)
		if errA != nil || errB != nil {
			return false
		}
		return compareOrder(spec.Operator, int64Compare(a, b))
	case FloatingPoint:
		a, errA := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		b, errB := strconv.ParseFloat(strings.TrimSpace(spec.Value), 64)
		if errA != nil || errB != nil {
			return false
		}
		return compareOrder(spec.Operator, floatCompare(a, b))
	case Timestamp:
		a, okA := parseTimestamp(strings.TrimSpace(raw))
		b, okB := parseTimestamp(strings.TrimSpace(spec.Value))
		if !okA || !okB {
			return false
		}
		return compareOrder(spec.Operator, timeCompare(a, b))
	default:
		// Text (or any other type): degrade to Eq/Ne per §4.6.
		eq := strings.EqualFold(raw, spec.Value)
		switch spec.Operator {
		case Gt, Ge:
			return eq
		default: // Lt, Le
			return !eq
		}
	}
}

func int64Compare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func floatCompare(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func timeCompare(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func compareOrder(op FilterOperator, cmp int) bool {
	switch op {
	case Gt:
		return cmp > 0
	case Lt:
		return cmp < 0
	case Ge:
		return cmp >= 0
	case Le:
		return cmp <= 0
	default:
		return false
	}
}

// MatchesAllFilters reports whether sourceRowCells (indexed by the source
// column index recorded in each FilterSpec) satisfies every filter — the
// logical-AND combination §4.6 specifies.
func MatchesAllFilters(filters []FilterSpec, cellAt func(sourceColIndex int) string) bool {
	for _, f := range filters {
		if !evaluateFilter(f, cellAt(f.SourceColumnIndex)) {
			return false
		}
	}
	return true
}
