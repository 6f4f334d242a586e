package datamorph

import (
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order by both InferScalar and the Timestamp
// cast renderer. ISO-8601 first, then a handful of common locale formats.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"01/02/2006 15:04:05",
}

func isEmptyOrWhitespace(v string) bool {
	return strings.TrimSpace(v) == ""
}

func looksLikeBoolean(trimmed string) bool {
	lower := strings.ToLower(trimmed)
	return lower == "true" || lower == "false"
}

// looksLikeWholeNumber requires the canonical decimal rendering of the
// parsed value to round-trip back to the (sign-normalized) input, which is
// what rejects leading-zero forms like "007" — parsing them would silently
// discard information a user would expect preserved.
func looksLikeWholeNumber(trimmed string) bool {
	if trimmed == "" {
		return false
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return false
	}
	body := trimmed
	if len(body) > 0 && body[0] == '+' {
		body = body[1:]
	}
	return strconv.FormatInt(n, 10) == body
}

// isIntegerLiteral reports whether trimmed is an optional sign followed only
// by ASCII digits.
func isIntegerLiteral(trimmed string) bool {
	body := trimmed
	if body != "" && (body[0] == '+' || body[0] == '-') {
		body = body[1:]
	}
	if body == "" {
		return false
	}
	for i := 0; i < len(body); i++ {
		if body[i] < '0' || body[i] > '9' {
			return false
		}
	}
	return true
}

func looksLikeFloat(trimmed string) bool {
	_, err := strconv.ParseFloat(trimmed, 64)
	return err == nil
}

func parseTimestamp(trimmed string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InferScalar implements the single-value CSV type inference rule (§4.4):
// empty/whitespace infers Text (nullability is the caller's concern), then
// Boolean, WholeNumber, FloatingPoint, Timestamp are tried in order, falling
// back to Text. An integer literal that WholeNumber rejects (leading zeros,
// beyond the 64-bit range) infers Text rather than FloatingPoint.
func InferScalar(v string) ColumnType {
	if isEmptyOrWhitespace(v) {
		return Text
	}
	trimmed := strings.TrimSpace(v)
	switch {
	case looksLikeBoolean(trimmed):
		return Boolean
	case looksLikeWholeNumber(trimmed):
		return WholeNumber
	case isIntegerLiteral(trimmed):
		return Text
	case looksLikeFloat(trimmed):
		return FloatingPoint
	}
	if _, ok := parseTimestamp(trimmed); ok {
		return Timestamp
	}
	return Text
}

// ResolveType is the pure type-promotion lattice function: identical types
// resolve to themselves, Text absorbs everything, WholeNumber and
// FloatingPoint promote to FloatingPoint, and every other cross-type pairing
// (Boolean/Timestamp/JsonObject/JsonArray with anything else) resolves to
// Text.
func ResolveType(current, observed ColumnType) ColumnType {
	if current == observed {
		return current
	}
	if current == Text || observed == Text {
		return Text
	}
	if (current == WholeNumber && observed == FloatingPoint) || (current == FloatingPoint && observed == WholeNumber) {
		return FloatingPoint
	}
	return Text
}

// castRenderer renders a raw cell value as the given target ColumnType,
// returning "<invalid>" on a failed parse. Modeled on the teacher's
// Preprocessor registry (one small function per named transformation),
// retargeted from struct-field preprocessing to cast rendering.
type castRenderer func(raw string) string

var castRenderers = map[ColumnType]castRenderer{
	Text:       func(raw string) string { return raw },
	JSONObject: func(raw string) string { return raw },
	JSONArray:  func(raw string) string { return raw },
	WholeNumber: func(raw string) string {
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return "<invalid>"
		}
		return strconv.FormatInt(n, 10)
	},
	FloatingPoint: func(raw string) string {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return "<invalid>"
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	},
	Boolean: func(raw string) string {
		trimmed := strings.TrimSpace(raw)
		switch strings.ToLower(trimmed) {
		case "true":
			return "True"
		case "false":
			return "False"
		default:
			return "<invalid>"
		}
	},
	Timestamp: func(raw string) string {
		t, ok := parseTimestamp(strings.TrimSpace(raw))
		if !ok {
			return "<invalid>"
		}
		return t.Format(time.RFC3339)
	},
}

// RenderCast formats raw according to the target ColumnType, per §4.6's
// Cast-formatting rules.
func RenderCast(target ColumnType, raw string) string {
	if r, ok := castRenderers[target]; ok {
		return r(raw)
	}
	return raw
}
