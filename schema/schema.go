package schema

import (
	"fmt"
	"strings"
)

// Kind is the expected value kind of a field.
type Kind string

const (
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindString  Kind = "string"
	KindBoolean Kind = "boolean"
	KindDate    Kind = "date"
	KindArray   Kind = "array"
	KindMap     Kind = "map"
	KindObject  Kind = "object"
)

// DateLayout is the only accepted date representation (ISO 8601 calendar date).
const DateLayout = "2006-01-02"

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindInteger, KindNumber, KindString, KindBoolean, KindDate, KindArray, KindMap, KindObject:
		return true
	}
	return false
}

// Numeric reports whether numeric bounds apply to k.
func (k Kind) Numeric() bool {
	return k == KindInteger || k == KindNumber
}

// Field is the specification of a single named field.
//
// Array and map fields describe their elements with Items (Items.Name is
// ignored). Object fields describe their nested level with Schema.
type Field struct {
	Name        string   `yaml:"name" json:"name"`
	Kind        Kind     `yaml:"kind" json:"kind"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Minimum     *float64 `yaml:"minimum,omitempty" json:"minimum,omitempty"`
	Maximum     *float64 `yaml:"maximum,omitempty" json:"maximum,omitempty"`
	Enum        []string `yaml:"enum,omitempty" json:"enum,omitempty"`
	Items       *Field   `yaml:"items,omitempty" json:"items,omitempty"`
	Schema      *Schema  `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// Schema is an ordered set of field specifications for one record level.
// A Schema returned by New is immutable and safe for concurrent use.
type Schema struct {
	Title       string   `yaml:"title,omitempty" json:"title,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Fields      []*Field `yaml:"fields" json:"fields"`

	index map[string]*Field
}

// =============================================================================
// Construction
// =============================================================================

// New builds and checks a schema. Field names must be unique per level and
// every constraint must be consistent with the field kind.
func New(title string, fields ...*Field) (*Schema, error) {
	s := &Schema{Title: title, Fields: fields}
	if err := s.compile(""); err != nil {
		return nil, err
	}
	return s, nil
}

// MustNew is like New but panics on an invalid descriptor.
func MustNew(title string, fields ...*Field) *Schema {
	s, err := New(title, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// compile checks the level and builds the name index, recursively.
func (s *Schema) compile(prefix string) error {
	s.index = make(map[string]*Field, len(s.Fields))
	for i, f := range s.Fields {
		if f == nil {
			return &DescriptorError{Path: fmt.Sprintf("%s[%d]", strings.TrimSuffix(prefix, "."), i), Message: "nil field"}
		}
		path := prefix + f.Name
		if f.Name == "" {
			return &DescriptorError{Path: fmt.Sprintf("%s[%d]", strings.TrimSuffix(prefix, "."), i), Message: "field name is required"}
		}
		if _, dup := s.index[f.Name]; dup {
			return &DescriptorError{Path: path, Message: "duplicate field name"}
		}
		if err := f.compile(path); err != nil {
			return err
		}
		s.index[f.Name] = f
	}
	return nil
}

func (f *Field) compile(path string) error {
	if !f.Kind.Valid() {
		return &DescriptorError{Path: path, Message: fmt.Sprintf("unknown kind %q", f.Kind)}
	}
	if (f.Minimum != nil || f.Maximum != nil) && !f.Kind.Numeric() {
		return &DescriptorError{Path: path, Message: fmt.Sprintf("bounds are not allowed on %s fields", f.Kind)}
	}
	if f.Minimum != nil && f.Maximum != nil && *f.Minimum > *f.Maximum {
		return &DescriptorError{Path: path, Message: fmt.Sprintf("minimum %v exceeds maximum %v", *f.Minimum, *f.Maximum)}
	}
	if len(f.Enum) > 0 && f.Kind != KindString {
		return &DescriptorError{Path: path, Message: "enumerations are only allowed on string fields"}
	}

	switch f.Kind {
	case KindArray, KindMap:
		if f.Items == nil {
			return &DescriptorError{Path: path, Message: fmt.Sprintf("%s field requires an element specification", f.Kind)}
		}
		if err := f.Items.compile(path + "[]"); err != nil {
			return err
		}
	case KindObject:
		if f.Schema == nil {
			return &DescriptorError{Path: path, Message: "object field requires a nested schema"}
		}
		if err := f.Schema.compile(path + "."); err != nil {
			return err
		}
	default:
		if f.Items != nil || f.Schema != nil {
			return &DescriptorError{Path: path, Message: fmt.Sprintf("%s field cannot have nested specifications", f.Kind)}
		}
	}
	return nil
}

// DescriptorError reports an inconsistent schema descriptor.
type DescriptorError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *DescriptorError) Error() string {
	if e.Path == "" {
		return "invalid schema: " + e.Message
	}
	return fmt.Sprintf("invalid schema: %s: %s", e.Path, e.Message)
}

// =============================================================================
// Introspection
// =============================================================================

// Field returns the specification of a top-level field by name.
func (s *Schema) Field(name string) (*Field, bool) {
	if s.index == nil {
		for _, f := range s.Fields {
			if f.Name == name {
				return f, true
			}
		}
		return nil, false
	}
	f, ok := s.index[name]
	return f, ok
}

// Names returns the field names of this level in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of fields described at this level.
func (s *Schema) Len() int {
	return len(s.Fields)
}

// Count returns the number of fields described at every level, including
// the fields of nested objects.
func (s *Schema) Count() int {
	n := 0
	for _, f := range s.Fields {
		n++
		if f.Kind == KindObject && f.Schema != nil {
			n += f.Schema.Count()
		}
	}
	return n
}

// Depth returns the number of nested object levels, 1 for a flat schema.
func (s *Schema) Depth() int {
	depth := 1
	for _, f := range s.Fields {
		if f.Kind == KindObject && f.Schema != nil {
			if d := f.Schema.Depth() + 1; d > depth {
				depth = d
			}
		}
	}
	return depth
}

// =============================================================================
// Builders
// =============================================================================

// Integer creates an integer field.
func Integer(name string) *Field { return &Field{Name: name, Kind: KindInteger} }

// Number creates a floating-point field.
func Number(name string) *Field { return &Field{Name: name, Kind: KindNumber} }

// String creates a text field.
func String(name string) *Field { return &Field{Name: name, Kind: KindString} }

// Boolean creates a boolean field.
func Boolean(name string) *Field { return &Field{Name: name, Kind: KindBoolean} }

// Date creates an ISO date (yyyy-mm-dd) field.
func Date(name string) *Field { return &Field{Name: name, Kind: KindDate} }

// Array creates an ordered sequence field whose elements follow items.
func Array(name string, items *Field) *Field {
	return &Field{Name: name, Kind: KindArray, Items: items}
}

// Map creates a text-keyed mapping field whose values follow values.
func Map(name string, values *Field) *Field {
	return &Field{Name: name, Kind: KindMap, Items: values}
}

// Object creates a nested record field.
func Object(name string, fields ...*Field) *Field {
	return &Field{Name: name, Kind: KindObject, Schema: &Schema{Fields: fields}}
}

// WithDescription sets the description and returns the field for chaining.
func (f *Field) WithDescription(desc string) *Field {
	f.Description = desc
	return f
}

// WithMinimum sets the inclusive lower bound.
func (f *Field) WithMinimum(min float64) *Field {
	f.Minimum = &min
	return f
}

// WithMaximum sets the inclusive upper bound.
func (f *Field) WithMaximum(max float64) *Field {
	f.Maximum = &max
	return f
}

// WithRange sets both inclusive bounds.
func (f *Field) WithRange(min, max float64) *Field {
	return f.WithMinimum(min).WithMaximum(max)
}

// WithEnum restricts a string field to a fixed set of values.
func (f *Field) WithEnum(values ...string) *Field {
	f.Enum = values
	return f
}
