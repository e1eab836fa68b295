package recovery

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	thinkBlockRe = regexp.MustCompile(`(?is)<think>.*?</think>`)
	thinkCloseRe = regexp.MustCompile(`(?i)</think>`)

	errNoStructure = errors.New("no object or array found in text")
)

// maxCandidates bounds how many opening brackets are tried as the start of
// the value, keeping the stage linear in practice on bracket-heavy prose.
const maxCandidates = 64

// repairText applies the enumerated repairs to text and decodes the result.
// Every '{' or '[' is a candidate start, tried left to right: the first
// candidate that decodes to an object wins, otherwise the first one that
// decodes at all. Brackets inside a span already consumed by a closed
// candidate are not tried again, so nested containers never replace the
// value that holds them. It never panics.
func repairText(text string) (any, []Fix, error) {
	var pre []Fix

	if loc := thinkBlockRe.FindStringIndex(text); loc != nil {
		pre = append(pre, Fix{Kind: FixThinkBlock, Offset: loc[0]})
		text = thinkBlockRe.ReplaceAllString(text, "")
	}
	// A closing tag without its opener means the reasoning prefix was cut.
	if locs := thinkCloseRe.FindAllStringIndex(text, -1); len(locs) > 0 {
		last := locs[len(locs)-1]
		pre = append(pre, Fix{Kind: FixThinkBlock, Offset: last[0]})
		text = text[last[1]:]
	}

	var (
		fallback      any
		fallbackFixes []Fix
		found         bool
		firstErr      error
	)
	from := 0
	for tried := 0; tried < maxCandidates; tried++ {
		k := strings.IndexAny(text[from:], "{[")
		if k < 0 {
			break
		}
		start := from + k

		s := &scanner{src: text}
		s.run(start)
		value, err := parseStrict(string(s.out))

		from = start + 1
		if s.closed {
			from = s.end
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		fixes := append([]Fix(nil), pre...)
		if strings.TrimSpace(text[:start]) != "" {
			fixes = append(fixes, Fix{Kind: FixLeadingText, Offset: 0})
		}
		fixes = append(fixes, s.fixes...)
		if _, ok := value.(map[string]any); ok {
			return value, fixes, nil
		}
		if !found {
			fallback, fallbackFixes, found = value, fixes, true
		}
	}

	switch {
	case found:
		return fallback, fallbackFixes, nil
	case firstErr != nil:
		return nil, pre, firstErr
	default:
		return nil, pre, errNoStructure
	}
}

// scanner rewrites one JSON-like value byte by byte, tracking just enough
// state to fix the enumerated defects.
type scanner struct {
	src   string
	out   []byte
	fixes []Fix

	// stack holds the expected closers of the open containers.
	stack []byte

	inString   bool
	escaped    bool
	stringKey  bool
	expectKey  bool
	keyPending bool

	// closed reports that the value closed before end of input, at end.
	closed bool
	end    int
}

func (s *scanner) fix(kind FixKind, offset int) {
	s.fixes = append(s.fixes, Fix{Kind: kind, Offset: offset})
}

func (s *scanner) top() byte {
	if len(s.stack) == 0 {
		return 0
	}
	return s.stack[len(s.stack)-1]
}

func (s *scanner) run(start int) {
	src := s.src
	for i := start; i < len(src); i++ {
		c := src[i]

		if s.inString {
			s.scanString(c, i)
			continue
		}

		switch {
		case c == '"':
			s.inString = true
			s.stringKey = s.top() == '}' && s.expectKey
			if s.stringKey {
				s.expectKey = false
			}
			s.out = append(s.out, c)

		case c == '{':
			s.stack = append(s.stack, '}')
			s.expectKey = true
			s.out = append(s.out, c)

		case c == '[':
			s.stack = append(s.stack, ']')
			s.expectKey = false
			s.out = append(s.out, c)

		case c == '}' || c == ']':
			s.close(c, i)
			if len(s.stack) == 0 {
				s.closed, s.end = true, i+1
				if strings.TrimSpace(src[i+1:]) != "" {
					s.fix(FixTrailingText, i+1)
				}
				return
			}

		case c == ',':
			s.out = append(s.out, c)
			s.expectKey = s.top() == '}'

		case c == ':':
			s.out = append(s.out, c)
			s.keyPending = false
			s.expectKey = false

		case s.expectKey && s.top() == '}' && isKeyStart(c):
			j := i
			for j < len(src) && isKeyChar(src[j]) {
				j++
			}
			s.out = append(s.out, '"')
			s.out = append(s.out, src[i:j]...)
			s.out = append(s.out, '"')
			s.fix(FixUnquotedKey, i)
			s.expectKey = false
			s.keyPending = true
			i = j - 1

		default:
			s.out = append(s.out, c)
		}
	}
	s.finish(len(src))
}

func (s *scanner) scanString(c byte, i int) {
	switch {
	case s.escaped:
		s.escaped = false
		s.out = append(s.out, c)
	case c == '\\':
		s.escaped = true
		s.out = append(s.out, c)
	case c == '"':
		s.inString = false
		if s.stringKey {
			s.keyPending = true
			s.stringKey = false
		}
		s.out = append(s.out, c)
	case c < 0x20:
		s.fix(FixControlChar, i)
		s.out = append(s.out, escapeControl(c)...)
	default:
		s.out = append(s.out, c)
	}
}

// close handles a closing bracket at offset i.
func (s *scanner) close(c byte, i int) {
	if len(s.stack) == 0 {
		s.fix(FixUnbalancedBracket, i)
		return
	}

	depth := -1
	for k := len(s.stack) - 1; k >= 0; k-- {
		if s.stack[k] == c {
			depth = k
			break
		}
	}
	if depth < 0 {
		// Stray closer that matches no open container.
		s.fix(FixUnbalancedBracket, i)
		return
	}

	for len(s.stack) > depth+1 {
		s.fix(FixUnbalancedBracket, i)
		s.closeTop(i)
	}
	s.closeTop(i)
}

// closeTop emits the closer of the innermost container, first settling a
// dangling key, colon or comma.
func (s *scanner) closeTop(i int) {
	s.settle(i)
	closer := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.out = append(s.out, closer)
	s.expectKey = false
}

// settle completes a member cut short right before a closer.
func (s *scanner) settle(i int) {
	if s.keyPending {
		s.fix(FixTruncatedValue, i)
		s.out = append(s.out, ":null"...)
		s.keyPending = false
		return
	}
	idx, last := lastSignificant(s.out)
	switch last {
	case ',':
		s.fix(FixTrailingComma, i)
		s.out = append(s.out[:idx], s.out[idx+1:]...)
	case ':':
		s.fix(FixTruncatedValue, i)
		s.out = append(s.out, "null"...)
	}
}

// finish closes whatever is still open at end of input.
func (s *scanner) finish(end int) {
	s.end = end
	if !s.inString {
		s.cutIncomplete(end)
	}
	if s.inString {
		if s.escaped {
			s.out = s.out[:len(s.out)-1]
			s.escaped = false
		}
		s.fix(FixUnterminatedString, end)
		s.out = append(s.out, '"')
		s.inString = false
		if s.stringKey {
			s.keyPending = true
			s.stringKey = false
		}
	}
	if len(s.stack) > 0 {
		s.fix(FixUnbalancedBracket, end)
	}
	for len(s.stack) > 0 {
		s.closeTop(end)
	}
}

// cutIncomplete drops a bare literal or number that input ended in the
// middle of, leaving the dangling colon or comma for settle.
func (s *scanner) cutIncomplete(end int) {
	k := len(s.out)
	for k > 0 && isBareChar(s.out[k-1]) {
		k--
	}
	if k == len(s.out) || !isIncomplete(string(s.out[k:])) {
		return
	}
	s.fix(FixTruncatedValue, end)
	s.out = s.out[:k]
}

// isIncomplete reports whether tok is a cut-off literal or number.
func isIncomplete(tok string) bool {
	for _, lit := range []string{"true", "false", "null"} {
		if len(tok) < len(lit) && strings.HasPrefix(lit, tok) {
			return true
		}
	}
	if c := tok[0]; c == '-' || (c >= '0' && c <= '9') {
		return strings.ContainsRune("-+.eE", rune(tok[len(tok)-1]))
	}
	return false
}

func isBareChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c == '-' || c == '+' || c == '.'
}

func lastSignificant(out []byte) (int, byte) {
	for k := len(out) - 1; k >= 0; k-- {
		switch out[k] {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return k, out[k]
	}
	return -1, 0
}

func escapeControl(c byte) string {
	switch c {
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	case '\b':
		return `\b`
	case '\f':
		return `\f`
	}
	return fmt.Sprintf(`\u%04x`, c)
}

func isKeyStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKeyChar(c byte) bool {
	return isKeyStart(c) || c == '-' || (c >= '0' && c <= '9')
}
