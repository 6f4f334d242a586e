package datamorph

// ColumnType is the tagged variant of inferred/cast column types. Text is the
// universal top of the promotion lattice resolved by TypeResolver.
type ColumnType int

const (
	// Text is the absorbing top type: any promotion conflict resolves to Text.
	Text ColumnType = iota
	WholeNumber
	FloatingPoint
	Boolean
	Timestamp
	JSONObject
	JSONArray
)

func (t ColumnType) String() string {
	switch t {
	case Text:
		return "Text"
	case WholeNumber:
		return "WholeNumber"
	case FloatingPoint:
		return "FloatingPoint"
	case Boolean:
		return "Boolean"
	case Timestamp:
		return "Timestamp"
	case JSONObject:
		return "JsonObject"
	case JSONArray:
		return "JsonArray"
	default:
		return "Unknown"
	}
}

// ParseColumnType parses the exact member-name spelling RecipeCodec writes.
func ParseColumnType(s string) (ColumnType, bool) {
	switch s {
	case "Text":
		return Text, true
	case "WholeNumber":
		return WholeNumber, true
	case "FloatingPoint":
		return FloatingPoint, true
	case "Boolean":
		return Boolean, true
	case "Timestamp":
		return Timestamp, true
	case "JsonObject":
		return JSONObject, true
	case "JsonArray":
		return JSONArray, true
	default:
		return Text, false
	}
}

// FilterOperator is the tagged variant of filter predicates a Filter action
// can apply to a column's raw value.
type FilterOperator int

const (
	Eq FilterOperator = iota
	Ne
	Gt
	Lt
	Ge
	Le
	Contains
	NotContains
	StartsWith
	EndsWith
)

func (o FilterOperator) String() string {
	switch o {
	case Eq:
		return "Eq"
	case Ne:
		return "Ne"
	case Gt:
		return "Gt"
	case Lt:
		return "Lt"
	case Ge:
		return "Ge"
	case Le:
		return "Le"
	case Contains:
		return "Contains"
	case NotContains:
		return "NotContains"
	case StartsWith:
		return "StartsWith"
	case EndsWith:
		return "EndsWith"
	default:
		return "Unknown"
	}
}

// ParseFilterOperator parses the exact member-name spelling RecipeCodec writes.
func ParseFilterOperator(s string) (FilterOperator, bool) {
	switch s {
	case "Eq":
		return Eq, true
	case "Ne":
		return Ne, true
	case "Gt":
		return Gt, true
	case "Lt":
		return Lt, true
	case "Ge":
		return Ge, true
	case "Le":
		return Le, true
	case "Contains":
		return Contains, true
	case "NotContains":
		return NotContains, true
	case "StartsWith":
		return StartsWith, true
	case "EndsWith":
		return EndsWith, true
	default:
		return Eq, false
	}
}

// DataFormat is the tagged variant of supported source shapes, determined
// once at load by FormatDetector and immutable thereafter.
type DataFormat int

const (
	Csv DataFormat = iota
	JsonLines
	JsonArray
	JsonObject
)

func (f DataFormat) String() string {
	switch f {
	case Csv:
		return "Csv"
	case JsonLines:
		return "JsonLines"
	case JsonArray:
		return "JsonArray"
	case JsonObject:
		return "JsonObject"
	default:
		return "Unknown"
	}
}
