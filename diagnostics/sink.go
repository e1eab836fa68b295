package diagnostics

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Whole-record failure reasons. Field repairs use the violation reason of the
// schema package ("out of bounds", "not in enumeration", ...).
const (
	ReasonRecoveryFailure    = "recovery failure"
	ReasonIdentifierNotFound = "identifier not found"
)

// Entry is one repair action or one unrecoverable record. Entries are never
// mutated after they are appended.
type Entry struct {
	Label  string    `json:"label"`
	Path   string    `json:"path,omitempty"`
	Reason string    `json:"reason"`
	Detail string    `json:"detail,omitempty"`
	Time   time.Time `json:"time"`
}

// String renders the entry as "label: path: reason".
func (e Entry) String() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Label, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Label, e.Path, e.Reason)
}

// IsRecordFailure reports whether the entry marks a dropped record rather
// than a repaired field.
func (e Entry) IsRecordFailure() bool {
	return e.Reason == ReasonRecoveryFailure || e.Reason == ReasonIdentifierNotFound
}

// Sink is an append-only destination for entries. Implementations must be
// safe for concurrent use and must keep the order of entries passed in a
// single Append call.
type Sink interface {
	Append(entries ...Entry) error
}

// =============================================================================
// Nop
// =============================================================================

type nopSink struct{}

func (nopSink) Append(...Entry) error { return nil }

// Nop returns a sink that discards everything.
func Nop() Sink { return nopSink{} }

// =============================================================================
// Memory
// =============================================================================

// MemorySink keeps entries in memory.
type MemorySink struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append implements Sink.
func (m *MemorySink) Append(entries ...Entry) error {
	m.mu.Lock()
	m.entries = append(m.entries, entries...)
	m.mu.Unlock()
	return nil
}

// Entries returns a snapshot of all entries in append order.
func (m *MemorySink) Entries() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of entries.
func (m *MemorySink) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// =============================================================================
// Logger
// =============================================================================

// LoggerSink writes every entry as a structured log line.
type LoggerSink struct {
	logger *zap.Logger
}

// NewLoggerSink creates a sink that logs through logger.
func NewLoggerSink(logger *zap.Logger) *LoggerSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerSink{logger: logger.With(zap.String("component", "diagnostics"))}
}

// Append implements Sink. Field repairs are logged at info level, dropped
// records at warn level.
func (l *LoggerSink) Append(entries ...Entry) error {
	for _, e := range entries {
		fields := []zap.Field{
			zap.String("label", e.Label),
			zap.String("reason", e.Reason),
		}
		if e.Path != "" {
			fields = append(fields, zap.String("path", e.Path))
		}
		if e.Detail != "" {
			fields = append(fields, zap.String("detail", e.Detail))
		}
		if e.IsRecordFailure() {
			l.logger.Warn("record dropped", fields...)
		} else {
			l.logger.Info("field repaired", fields...)
		}
	}
	return nil
}

// =============================================================================
// Fan-out
// =============================================================================

type multiSink []Sink

// Multi fans entries out to every sink. All sinks are attempted; their errors
// are joined.
func Multi(sinks ...Sink) Sink {
	var flat multiSink
	for _, s := range sinks {
		if s != nil {
			flat = append(flat, s)
		}
	}
	return flat
}

func (m multiSink) Append(entries ...Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(entries...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
