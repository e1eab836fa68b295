package schema

import (
	"bytes"
	"encoding/json"
)

// JSONSchemaDraft is the dialect advertised by exported documents.
const JSONSchemaDraft = "https://json-schema.org/draft/2020-12/schema"

// orderedObject is a JSON object that keeps key insertion order, so the
// exported document lists fields the way the descriptor declares them.
type orderedObject struct {
	keys   []string
	values map[string]any
}

func newOrderedObject() *orderedObject {
	return &orderedObject{values: make(map[string]any)}
}

func (o *orderedObject) set(key string, value any) *orderedObject {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
	return o
}

// MarshalJSON implements json.Marshaler.
func (o *orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// JSONSchema renders the descriptor as an indented JSON Schema document, the
// form handed to the upstream generator in its prompt. Every field is
// nullable because absence is always legal.
func (s *Schema) JSONSchema() ([]byte, error) {
	doc := newOrderedObject().set("$schema", JSONSchemaDraft)
	if s.Title != "" {
		doc.set("title", s.Title)
	}
	if s.Description != "" {
		doc.set("description", s.Description)
	}
	doc.set("type", "object")
	doc.set("properties", s.properties())
	doc.set("additionalProperties", false)
	return json.MarshalIndent(doc, "", "  ")
}

func (s *Schema) properties() *orderedObject {
	props := newOrderedObject()
	for _, f := range s.Fields {
		props.set(f.Name, f.jsonSchema(true))
	}
	return props
}

func (f *Field) jsonSchema(nullable bool) *orderedObject {
	node := newOrderedObject()
	typ := func(t string) any {
		if nullable {
			return []string{t, "null"}
		}
		return t
	}

	switch f.Kind {
	case KindInteger, KindNumber, KindString, KindBoolean:
		node.set("type", typ(string(f.Kind)))
	case KindDate:
		node.set("type", typ("string"))
		node.set("format", "date")
	case KindArray:
		node.set("type", typ("array"))
		node.set("items", f.Items.jsonSchema(false))
	case KindMap:
		node.set("type", typ("object"))
		node.set("additionalProperties", f.Items.jsonSchema(false))
	case KindObject:
		node.set("type", typ("object"))
		node.set("properties", f.Schema.properties())
		node.set("additionalProperties", false)
	}

	if f.Description != "" {
		node.set("description", f.Description)
	}
	if f.Minimum != nil {
		node.set("minimum", *f.Minimum)
	}
	if f.Maximum != nil {
		node.set("maximum", *f.Maximum)
	}
	if len(f.Enum) > 0 {
		values := make([]any, 0, len(f.Enum)+1)
		for _, v := range f.Enum {
			values = append(values, v)
		}
		if nullable {
			values = append(values, nil)
		}
		node.set("enum", values)
	}
	return node
}
