package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format of a descriptor document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Parse decodes and checks a descriptor document.
//
// Example (YAML):
//
//	title: Report
//	fields:
//	  - name: score
//	    kind: integer
//	    minimum: 0
//	    maximum: 30
//	  - name: fluency
//	    kind: object
//	    schema:
//	      fields:
//	        - name: total
//	          kind: integer
//	          minimum: 0
func Parse(data []byte, format Format) (*Schema, error) {
	s := &Schema{}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to parse schema yaml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(s); err != nil {
			return nil, fmt.Errorf("failed to parse schema json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported schema format %q", format)
	}

	if len(s.Fields) == 0 {
		return nil, &DescriptorError{Message: "descriptor declares no fields"}
	}
	if err := s.compile(""); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile reads a descriptor from disk; the format follows the extension.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".json":
		format = FormatJSON
	default:
		return nil, fmt.Errorf("cannot infer schema format from %q", path)
	}
	return Parse(data, format)
}

// Resolve returns the built-in descriptor for a known name, otherwise loads
// source as a descriptor file.
func Resolve(source string) (*Schema, error) {
	switch source {
	case "", BuiltinNBSE, BuiltinNBSEDetailed:
		return Builtin(source)
	}
	return LoadFile(source)
}

