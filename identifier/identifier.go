// Package identifier derives the numeric record identifier from a source
// label such as "report_VAC_00123.txt".
package identifier

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/clinicalnotes/reportrepair/types"
)

// DefaultMarker is the token that precedes the identifier digits.
const DefaultMarker = "VAC"

// separators allowed between the marker and the digits.
const separators = `[\s_.\-]*`

// Extractor finds "<marker><separators><digits>" in labels, matching the
// marker case-insensitively. It is safe for concurrent use.
type Extractor struct {
	marker string
	re     *regexp.Regexp
}

// New creates an Extractor for marker.
func New(marker string) (*Extractor, error) {
	if marker == "" {
		return nil, types.NewError(types.ErrInvalidConfig, "identifier marker must not be empty")
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(marker) + separators + `(\d+)`)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidConfig, "invalid identifier marker").WithCause(err)
	}
	return &Extractor{marker: marker, re: re}, nil
}

// MustNew is like New but panics on error.
func MustNew(marker string) *Extractor {
	e, err := New(marker)
	if err != nil {
		panic(err)
	}
	return e
}

// Marker returns the configured marker token.
func (e *Extractor) Marker() string {
	return e.marker
}

// Extract returns the identifier of the leftmost match. Labels without a
// match, or whose digits overflow int64, yield IDENTIFIER_NOT_FOUND.
func (e *Extractor) Extract(label string) (int64, error) {
	m := e.re.FindStringSubmatch(label)
	if m == nil {
		return 0, types.NewIdentifierNotFound(label)
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, types.NewIdentifierNotFound(label).WithCause(err)
	}
	return id, nil
}

// Candidates returns every identifier found in label, leftmost first.
// More than one candidate means the label is ambiguous; Extract still
// returns the first.
func (e *Extractor) Candidates(label string) []int64 {
	var ids []int64
	for _, m := range e.re.FindAllStringSubmatch(label, -1) {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

var defaultExtractor = MustNew(DefaultMarker)

// Extract uses the default "VAC" marker.
func Extract(label string) (int64, error) {
	return defaultExtractor.Extract(label)
}

// IsNotFound reports whether err is an IDENTIFIER_NOT_FOUND error.
func IsNotFound(err error) bool {
	var e *types.Error
	return errors.As(err, &e) && e.Code == types.ErrIdentifierNotFound
}
