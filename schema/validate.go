package schema

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Reason classifies why a field value violates its specification.
type Reason string

const (
	ReasonTypeMismatch   Reason = "type mismatch"
	ReasonOutOfBounds    Reason = "out of bounds"
	ReasonNotInEnum      Reason = "not in enumeration"
	ReasonInvalidDate    Reason = "invalid date"
	ReasonInvalidElement Reason = "invalid element"
)

// Violation is one field whose present, non-null value fails its specification.
type Violation struct {
	// Path is the dotted path from the record root, e.g. "fluency.total".
	Path string `json:"path"`
	// Field is the field name at its own level.
	Field   string `json:"field"`
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s: %s", v.Path, v.Reason, v.Message)
}

// Violations is a list of violations, usable as an error.
type Violations []Violation

// Error implements the error interface.
func (vs Violations) Error() string {
	if len(vs) == 0 {
		return "validation failed"
	}
	if len(vs) == 1 {
		return vs[0].Error()
	}
	msgs := make([]string, len(vs))
	for i, v := range vs {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("validation failed with %d violations: %s", len(vs), strings.Join(msgs, "; "))
}

// Paths returns the violating paths in order.
func (vs Violations) Paths() []string {
	paths := make([]string, len(vs))
	for i, v := range vs {
		paths[i] = v.Path
	}
	return paths
}

// =============================================================================
// Validation
// =============================================================================

// Check validates the fields of a single level. Absent and null fields are
// always accepted. Object fields are only checked for being a mapping; their
// contents belong to the next level. prefix is prepended to every reported
// path and should be empty at the record root.
//
// Violations are reported in schema declaration order.
func (s *Schema) Check(record map[string]any, prefix string) Violations {
	var out Violations
	for _, f := range s.Fields {
		value, present := record[f.Name]
		if !present || value == nil {
			continue
		}
		if reason, msg, ok := f.checkShallow(value); !ok {
			out = append(out, Violation{Path: prefix + f.Name, Field: f.Name, Reason: reason, Message: msg})
		}
	}
	return out
}

// Validate checks the whole record recursively. An empty result means the
// record is conformant. Fields not described by the schema are ignored.
func Validate(record map[string]any, s *Schema) Violations {
	return s.validate(record, "")
}

func (s *Schema) validate(record map[string]any, prefix string) Violations {
	out := s.Check(record, prefix)
	for _, f := range s.Fields {
		if f.Kind != KindObject {
			continue
		}
		child, ok := record[f.Name].(map[string]any)
		if !ok {
			continue
		}
		out = append(out, f.Schema.validate(child, prefix+f.Name+".")...)
	}
	return out
}

// CheckValue reports whether a single non-null value satisfies the field
// specification completely, including nested objects and collection elements.
func (f *Field) CheckValue(value any) (Reason, string, bool) {
	if reason, msg, ok := f.checkShallow(value); !ok {
		return reason, msg, false
	}
	if f.Kind == KindObject {
		if vs := f.Schema.validate(value.(map[string]any), ""); len(vs) > 0 {
			return ReasonInvalidElement, vs[0].Error(), false
		}
	}
	return "", "", true
}

// checkShallow checks kind and constraints. Collection elements are checked
// completely because an invalid element invalidates the whole field.
func (f *Field) checkShallow(value any) (Reason, string, bool) {
	switch f.Kind {
	case KindInteger:
		n, ok := toFloat64(value)
		if !ok || !isIntegral(value, n) {
			return ReasonTypeMismatch, fmt.Sprintf("expected integer, got %s", describe(value)), false
		}
		return f.checkBounds(n)

	case KindNumber:
		n, ok := toFloat64(value)
		if !ok {
			return ReasonTypeMismatch, fmt.Sprintf("expected number, got %s", describe(value)), false
		}
		return f.checkBounds(n)

	case KindString:
		str, ok := value.(string)
		if !ok {
			return ReasonTypeMismatch, fmt.Sprintf("expected string, got %s", describe(value)), false
		}
		if len(f.Enum) > 0 && !contains(f.Enum, str) {
			return ReasonNotInEnum, fmt.Sprintf("%q is not one of [%s]", str, strings.Join(f.Enum, ", ")), false
		}

	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return ReasonTypeMismatch, fmt.Sprintf("expected boolean, got %s", describe(value)), false
		}

	case KindDate:
		str, ok := value.(string)
		if !ok {
			return ReasonTypeMismatch, fmt.Sprintf("expected date string, got %s", describe(value)), false
		}
		if _, err := time.Parse(DateLayout, str); err != nil {
			return ReasonInvalidDate, fmt.Sprintf("%q is not a yyyy-mm-dd date", str), false
		}

	case KindArray:
		items, ok := value.([]any)
		if !ok {
			return ReasonTypeMismatch, fmt.Sprintf("expected array, got %s", describe(value)), false
		}
		for i, item := range items {
			if item == nil {
				return ReasonInvalidElement, fmt.Sprintf("element %d is null", i), false
			}
			if _, msg, ok := f.Items.CheckValue(item); !ok {
				return ReasonInvalidElement, fmt.Sprintf("element %d: %s", i, msg), false
			}
		}

	case KindMap:
		entries, ok := value.(map[string]any)
		if !ok {
			return ReasonTypeMismatch, fmt.Sprintf("expected mapping, got %s", describe(value)), false
		}
		// Sorted so the reported entry does not depend on map order.
		for _, key := range slices.Sorted(maps.Keys(entries)) {
			item := entries[key]
			if item == nil {
				return ReasonInvalidElement, fmt.Sprintf("entry %q is null", key), false
			}
			if _, msg, ok := f.Items.CheckValue(item); !ok {
				return ReasonInvalidElement, fmt.Sprintf("entry %q: %s", key, msg), false
			}
		}

	case KindObject:
		if _, ok := value.(map[string]any); !ok {
			return ReasonTypeMismatch, fmt.Sprintf("expected object, got %s", describe(value)), false
		}
	}
	return "", "", true
}

func (f *Field) checkBounds(n float64) (Reason, string, bool) {
	if f.Minimum != nil && n < *f.Minimum {
		return ReasonOutOfBounds, fmt.Sprintf("%v is below minimum %v", n, *f.Minimum), false
	}
	if f.Maximum != nil && n > *f.Maximum {
		return ReasonOutOfBounds, fmt.Sprintf("%v is above maximum %v", n, *f.Maximum), false
	}
	return "", "", true
}

// =============================================================================
// Helpers
// =============================================================================

// toFloat64 converts a decoded JSON number (or a Go numeric) to float64.
// Booleans and numeric-looking strings are not numbers.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case float64:
		return n, !math.IsInf(n, 0) && !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// isIntegral accepts integer literals and floats without a fractional part.
func isIntegral(v any, f float64) bool {
	if n, ok := v.(json.Number); ok {
		if _, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return true
		}
	}
	return math.Trunc(f) == f
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

const maxDescribeRunes = 40

// describe renders a value kind for violation messages.
func describe(v any) string {
	switch x := v.(type) {
	case string:
		if utf8.RuneCountInString(x) > maxDescribeRunes {
			x = string([]rune(x)[:maxDescribeRunes]) + "..."
		}
		return fmt.Sprintf("string %q", x)
	case bool:
		return fmt.Sprintf("boolean %v", x)
	case json.Number:
		return "number " + x.String()
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if f, ok := toFloat64(v); ok {
		return fmt.Sprintf("number %v", f)
	}
	return fmt.Sprintf("%T", v)
}
