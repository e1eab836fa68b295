package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"
)

// Document is one raw generator output (or source report) and the label it
// came from, usually the file name. Documents are never modified.
type Document struct {
	Label string
	Text  string
}

// Enumerate returns the regular files in dir matching pattern, sorted by
// name. A directory without matches yields an empty slice.
func Enumerate(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadDocument reads path as UTF-8 text labelled with its base name.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return Document{}, fmt.Errorf("%s is not valid UTF-8", path)
	}
	return Document{Label: filepath.Base(path), Text: string(data)}, nil
}

// LoadDocuments reads every file in dir matching pattern.
func LoadDocuments(dir, pattern string) ([]Document, error) {
	paths, err := Enumerate(dir, pattern)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(paths))
	for _, p := range paths {
		doc, err := ReadDocument(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
