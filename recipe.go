package datamorph

import (
	"bufio"
	"fmt"
	"strings"
	"time"
)

// Recipe is a named, persistable wrapper around an ActionStack plus
// metadata (§3, glossary).
type Recipe struct {
	Name         string
	Description  string
	HasDesc      bool
	LastModified time.Time
	HasModified  bool
	Actions      *ActionStack
}

// RecipeCodec serializes and parses Recipe values as the canonical text
// form described in §4.8. Holds no state.
type RecipeCodec struct{}

// NewRecipeCodec returns a ready-to-use RecipeCodec.
func NewRecipeCodec() *RecipeCodec { return &RecipeCodec{} }

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func unquoteString(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("datamorph: value is not a quoted string: %q", s)
	}
	inner := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) && inner[i+1] == '"' {
			b.WriteByte('"')
			i++
			continue
		}
		b.WriteByte(inner[i])
	}
	return b.String(), nil
}

// Serialize renders recipe in the canonical top-level key order
// name, description?, last_modified?, actions, per §4.8.
func (c *RecipeCodec) Serialize(recipe *Recipe) string {
	var b strings.Builder

	fmt.Fprintf(&b, "name: %s\n", quoteString(recipe.Name))
	if recipe.HasDesc {
		fmt.Fprintf(&b, "description: %s\n", quoteString(recipe.Description))
	}
	if recipe.HasModified {
		fmt.Fprintf(&b, "last_modified: %s\n", quoteString(recipe.LastModified.Format(time.RFC3339Nano)))
	}

	actions := recipe.Actions.Actions()
	if len(actions) == 0 {
		b.WriteString("actions: []\n")
		return b.String()
	}

	b.WriteString("actions:\n")
	for _, act := range actions {
		writeActionItem(&b, act)
	}
	return b.String()
}

func writeActionItem(b *strings.Builder, act MorphAction) {
	switch act.Kind {
	case ActionRename:
		fmt.Fprintf(b, "  - type: rename\n")
		fmt.Fprintf(b, "    old_name: %s\n", quoteString(act.OldName))
		fmt.Fprintf(b, "    new_name: %s\n", quoteString(act.NewName))
	case ActionDelete:
		fmt.Fprintf(b, "  - type: delete\n")
		fmt.Fprintf(b, "    column_name: %s\n", quoteString(act.ColumnName))
	case ActionCast:
		fmt.Fprintf(b, "  - type: cast\n")
		fmt.Fprintf(b, "    column_name: %s\n", quoteString(act.ColumnName))
		fmt.Fprintf(b, "    target_type: %s\n", act.TargetType.String())
	case ActionFilter:
		fmt.Fprintf(b, "  - type: filter\n")
		fmt.Fprintf(b, "    column_name: %s\n", quoteString(act.ColumnName))
		fmt.Fprintf(b, "    operator: %s\n", act.Operator.String())
		fmt.Fprintf(b, "    value: %s\n", quoteString(act.Value))
	}
}

// recipeParseState is the line-oriented state machine's current mode.
type recipeParseState int

const (
	stateRoot recipeParseState = iota
	stateActions
	stateActionItem
)

// Deserialize parses text in the canonical format back into a Recipe.
// Round-trips with Serialize: Deserialize(Serialize(r)) == r.
func (c *RecipeCodec) Deserialize(text string) (*Recipe, error) {
	recipe := &Recipe{Actions: NewActionStack()}
	var sawName bool

	state := stateRoot
	var currentFields map[string]string
	var pendingActions []MorphAction

	finalize := func(lineNo int) error {
		if state != stateActionItem || currentFields == nil {
			return nil
		}
		act, err := buildAction(currentFields, lineNo)
		if err != nil {
			return err
		}
		pendingActions = append(pendingActions, act)
		currentFields = nil
		return nil
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		switch state {
		case stateRoot:
			key, val, ok := splitTopLevel(raw)
			if !ok {
				return nil, &RecipeError{Line: lineNo, Message: "malformed indentation at top level"}
			}
			switch key {
			case "name":
				s, err := unquoteString(val)
				if err != nil {
					return nil, &RecipeError{Line: lineNo, Message: err.Error()}
				}
				recipe.Name = s
				sawName = true
			case "description":
				s, err := unquoteString(val)
				if err != nil {
					return nil, &RecipeError{Line: lineNo, Message: err.Error()}
				}
				recipe.Description = s
				recipe.HasDesc = true
			case "last_modified":
				s, err := unquoteString(val)
				if err != nil {
					return nil, &RecipeError{Line: lineNo, Message: err.Error()}
				}
				t, err := time.Parse(time.RFC3339Nano, s)
				if err != nil {
					return nil, &RecipeError{Line: lineNo, Message: "unparseable timestamp: " + err.Error()}
				}
				recipe.LastModified = t
				recipe.HasModified = true
			case "actions":
				if val == "[]" {
					continue
				}
				if val != "" {
					return nil, &RecipeError{Line: lineNo, Message: "malformed actions value"}
				}
				state = stateActions
			default:
				return nil, &RecipeError{Line: lineNo, Message: "unknown top-level key: " + key}
			}

		case stateActions, stateActionItem:
			if strings.HasPrefix(raw, "  - type:") {
				if err := finalize(lineNo); err != nil {
					return nil, err
				}
				typeVal := strings.TrimSpace(strings.TrimPrefix(raw, "  - type:"))
				currentFields = map[string]string{"type": typeVal}
				state = stateActionItem
				continue
			}
			if state == stateActionItem && strings.HasPrefix(raw, "    ") {
				k, v, ok := splitField(raw)
				if !ok {
					return nil, &RecipeError{Line: lineNo, Message: "malformed action field"}
				}
				currentFields[k] = v
				continue
			}
			return nil, &RecipeError{Line: lineNo, Message: "malformed indentation in actions section"}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := finalize(lineNo); err != nil {
		return nil, err
	}

	if !sawName {
		return nil, &RecipeError{Line: 0, Message: "missing required field: name"}
	}

	stack := NewActionStack()
	for _, act := range pendingActions {
		stack = stack.Append(act)
	}
	recipe.Actions = stack
	return recipe, nil
}

// splitTopLevel splits a column-0 "key: value" line. value may be empty
// (e.g. "actions:").
func splitTopLevel(raw string) (key, value string, ok bool) {
	if len(raw) == 0 || raw[0] == ' ' || raw[0] == '\t' {
		return "", "", false
	}
	idx := strings.Index(raw, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(raw[:idx])
	value = strings.TrimSpace(raw[idx+1:])
	return key, value, true
}

// splitField splits a four-space-indented "    key: value" action field line.
func splitField(raw string) (key, value string, ok bool) {
	trimmed := strings.TrimPrefix(raw, "    ")
	if trimmed == raw {
		return "", "", false
	}
	idx := strings.Index(trimmed, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(trimmed[:idx])
	value = strings.TrimSpace(trimmed[idx+1:])
	return key, value, true
}

func buildAction(fields map[string]string, lineNo int) (MorphAction, error) {
	require := func(name string) (string, error) {
		v, ok := fields[name]
		if !ok {
			return "", &RecipeError{Line: lineNo, Message: fmt.Sprintf("missing field %q for action type %q", name, fields["type"])}
		}
		return v, nil
	}
	unq := func(name string) (string, error) {
		raw, err := require(name)
		if err != nil {
			return "", err
		}
		return unquoteString(raw)
	}

	switch fields["type"] {
	case "rename":
		oldName, err := unq("old_name")
		if err != nil {
			return MorphAction{}, err
		}
		newName, err := unq("new_name")
		if err != nil {
			return MorphAction{}, err
		}
		return NewRenameAction(oldName, newName), nil
	case "delete":
		colName, err := unq("column_name")
		if err != nil {
			return MorphAction{}, err
		}
		return NewDeleteAction(colName), nil
	case "cast":
		colName, err := unq("column_name")
		if err != nil {
			return MorphAction{}, err
		}
		raw, err := require("target_type")
		if err != nil {
			return MorphAction{}, err
		}
		target, ok := ParseColumnType(raw)
		if !ok {
			return MorphAction{}, &RecipeError{Line: lineNo, Message: "unparseable enum value for target_type: " + raw}
		}
		return NewCastAction(colName, target), nil
	case "filter":
		colName, err := unq("column_name")
		if err != nil {
			return MorphAction{}, err
		}
		rawOp, err := require("operator")
		if err != nil {
			return MorphAction{}, err
		}
		op, ok := ParseFilterOperator(rawOp)
		if !ok {
			return MorphAction{}, &RecipeError{Line: lineNo, Message: "unparseable enum value for operator: " + rawOp}
		}
		value, err := unq("value")
		if err != nil {
			return MorphAction{}, err
		}
		return NewFilterAction(colName, op, value), nil
	case "":
		return MorphAction{}, &RecipeError{Line: lineNo, Message: "action item missing type"}
	default:
		return MorphAction{}, &RecipeError{Line: lineNo, Message: "unknown action type: " + fields["type"]}
	}
}
