package tabular

import (
	"encoding/json"
	"strconv"

	"github.com/clinicalnotes/reportrepair/schema"
)

// Project returns a record holding exactly the schema's fields: absent
// fields become null and keys the schema does not describe are dropped,
// recursively for nested objects. When idField is set it is overwritten
// with id, the identifier derived from the record's label.
func Project(record map[string]any, s *schema.Schema, idField string, id int64) map[string]any {
	out := project(record, s)
	if idField != "" {
		out[idField] = id
	}
	return out
}

func project(record map[string]any, s *schema.Schema) map[string]any {
	out := make(map[string]any, s.Len())
	for _, f := range s.Fields {
		v := record[f.Name]
		if child, ok := v.(map[string]any); ok && f.Kind == schema.KindObject && f.Schema != nil {
			v = project(child, f.Schema)
		}
		out[f.Name] = v
	}
	return out
}

// Columns returns the flattened column names of s in field order. Nested
// object fields are expanded as "parent.child". A non-empty idField not
// described by s is prepended.
func Columns(s *schema.Schema, idField string) []string {
	cols := columns(s, "")
	if _, ok := s.Field(idField); idField != "" && !ok {
		cols = append([]string{idField}, cols...)
	}
	return cols
}

func columns(s *schema.Schema, prefix string) []string {
	var cols []string
	for _, f := range s.Fields {
		if f.Kind == schema.KindObject && f.Schema != nil {
			cols = append(cols, columns(f.Schema, prefix+f.Name+".")...)
			continue
		}
		cols = append(cols, prefix+f.Name)
	}
	return cols
}

// Flatten maps every column of s to its value in record. Values of nested
// objects that are null or absent flatten to null columns.
func Flatten(record map[string]any, s *schema.Schema) map[string]any {
	out := make(map[string]any)
	flatten(record, s, "", out)
	return out
}

func flatten(record map[string]any, s *schema.Schema, prefix string, out map[string]any) {
	for _, f := range s.Fields {
		v := record[f.Name]
		if f.Kind == schema.KindObject && f.Schema != nil {
			child, _ := v.(map[string]any)
			flatten(child, f.Schema, prefix+f.Name+".", out)
			continue
		}
		out[prefix+f.Name] = v
	}
}

// FormatValue renders a cell. Null is the empty string; arrays and maps are
// rendered as JSON.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
