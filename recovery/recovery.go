package recovery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/clinicalnotes/reportrepair/types"
)

// DefaultFenceMarker is the markdown code-fence delimiter.
const DefaultFenceMarker = "```"

// FixKind names one syntax defect the tolerant stage can repair.
type FixKind string

const (
	FixThinkBlock         FixKind = "think_block"
	FixLeadingText        FixKind = "leading_text"
	FixTrailingText       FixKind = "trailing_text"
	FixControlChar        FixKind = "control_char"
	FixTrailingComma      FixKind = "trailing_comma"
	FixUnquotedKey        FixKind = "unquoted_key"
	FixUnterminatedString FixKind = "unterminated_string"
	FixUnbalancedBracket  FixKind = "unbalanced_bracket"
	FixTruncatedValue     FixKind = "truncated_value"
)

// Fix records one repair applied by the tolerant stage. Offset is the byte
// position in the fence-stripped text.
type Fix struct {
	Kind   FixKind `json:"kind"`
	Offset int     `json:"offset"`
}

// Result is a recovered structured value.
type Result struct {
	// Value is a decoded tree of map[string]any, []any, string, bool,
	// json.Number and nil.
	Value any
	// Repaired is true when strict parsing failed and the tolerant stage
	// produced the value.
	Repaired bool
	// Fixes lists the repairs in the order they were applied.
	Fixes []Fix
	// Stripped is the number of fence lines removed.
	Stripped int
}

// Object returns the value as a record when it is a JSON object.
func (r *Result) Object() (map[string]any, bool) {
	m, ok := r.Value.(map[string]any)
	return m, ok
}

// FixKinds returns the distinct fix kinds in first-seen order.
func (r *Result) FixKinds() []FixKind {
	seen := make(map[FixKind]bool, len(r.Fixes))
	var kinds []FixKind
	for _, f := range r.Fixes {
		if !seen[f.Kind] {
			seen[f.Kind] = true
			kinds = append(kinds, f.Kind)
		}
	}
	return kinds
}

// Option configures a Recoverer.
type Option func(*Recoverer)

// WithFenceMarker sets the delimiter whose lines are stripped before parsing.
func WithFenceMarker(marker string) Option {
	return func(r *Recoverer) {
		r.fence = marker
	}
}

// WithTolerance enables or disables the tolerant repair stage.
func WithTolerance(enabled bool) Option {
	return func(r *Recoverer) {
		r.tolerant = enabled
	}
}

// Recoverer turns near-JSON text into a structured value. It holds no
// mutable state and is safe for concurrent use.
type Recoverer struct {
	fence    string
	tolerant bool
}

// New creates a Recoverer. The tolerant stage is enabled by default.
func New(opts ...Option) *Recoverer {
	r := &Recoverer{fence: DefaultFenceMarker, tolerant: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRecoverer = New()

// Recover uses the default Recoverer.
func Recover(label, text string) (*Result, error) {
	return defaultRecoverer.Recover(label, text)
}

// Recover strips fence lines, attempts a strict parse and falls back to the
// bounded tolerant stage. When both fail it returns a RECOVERY_FAILURE
// *types.Error carrying label.
func (r *Recoverer) Recover(label, text string) (*Result, error) {
	cleaned, stripped := StripFenceLines(text, r.fence)

	value, strictErr := parseStrict(cleaned)
	if strictErr == nil {
		return &Result{Value: value, Stripped: stripped}, nil
	}
	if !r.tolerant {
		return nil, types.NewRecoveryFailure(label, strictErr)
	}

	value, fixes, err := repairText(cleaned)
	if errors.Is(err, errNoStructure) {
		return nil, types.NewRecoveryFailure(label, err)
	}
	if err != nil {
		return nil, types.NewRecoveryFailure(label, fmt.Errorf("%w (after repair: %v)", strictErr, err))
	}
	return &Result{Value: value, Repaired: true, Fixes: fixes, Stripped: stripped}, nil
}

// StripFenceLines removes every line that contains marker, keeping the other
// lines and their order. It returns the remaining text and the number of
// removed lines.
func StripFenceLines(text, marker string) (string, int) {
	if marker == "" || !strings.Contains(text, marker) {
		return text, 0
	}
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	removed := 0
	for _, line := range lines {
		if strings.Contains(line, marker) {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), removed
}

var errTrailingData = errors.New("unexpected data after top-level value")

// parseStrict decodes exactly one JSON value, keeping numbers as json.Number.
func parseStrict(text string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return value, nil
}
