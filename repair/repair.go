package repair

import (
	"time"

	"go.uber.org/zap"

	"github.com/clinicalnotes/reportrepair/diagnostics"
	"github.com/clinicalnotes/reportrepair/schema"
)

// Result is the outcome of repairing one record.
type Result struct {
	// Record is the conformant record. It never aliases the input.
	Record map[string]any
	// Entries holds one entry per nulled field, level by level in schema
	// order.
	Entries []diagnostics.Entry
	// Iterations counts the validation passes that found violations.
	Iterations int
	// Passes counts every validation pass, including the confirming ones.
	Passes int
}

// Repaired reports whether any field was nulled.
func (r *Result) Repaired() bool {
	return len(r.Entries) > 0
}

// Paths returns the repaired field paths in order.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		paths[i] = e.Path
	}
	return paths
}

// Option configures a Repairer.
type Option func(*Repairer)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repairer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock sets the time source used to stamp diagnostic entries.
func WithClock(now func() time.Time) Option {
	return func(r *Repairer) {
		if now != nil {
			r.now = now
		}
	}
}

// Repairer reduces candidate records to records that satisfy a schema by
// nulling exactly the offending fields. It is safe for concurrent use.
type Repairer struct {
	schema *schema.Schema
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Repairer for s.
func New(s *schema.Schema, opts ...Option) *Repairer {
	r := &Repairer{
		schema: s,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "repair"))
	return r
}

// Schema returns the descriptor the repairer enforces.
func (r *Repairer) Schema() *schema.Schema {
	return r.schema
}

// Repair returns a copy of record in which every field that violated its
// specification is null. It never fails: the all-null record is always
// conformant, so the loop converges.
//
// The entries are appended to sink in a single call. A sink error is logged
// and does not affect the result. sink may be nil.
func (r *Repairer) Repair(label string, record map[string]any, sink diagnostics.Sink) *Result {
	res := &Result{Record: copyRecord(record)}
	r.repairLevel(label, res.Record, r.schema, "", res)

	if len(res.Entries) == 0 {
		return res
	}
	r.logger.Debug("record repaired",
		zap.String("label", label),
		zap.Int("fields", len(res.Entries)),
		zap.Int("iterations", res.Iterations),
	)
	if sink != nil {
		if err := sink.Append(res.Entries...); err != nil {
			r.logger.Error("failed to append diagnostic entries",
				zap.String("label", label),
				zap.Int("entries", len(res.Entries)),
				zap.Error(err),
			)
		}
	}
	return res
}

// repairLevel validates one level until a pass is clean, then descends into
// nested objects that survived.
func (r *Repairer) repairLevel(label string, record map[string]any, s *schema.Schema, prefix string, res *Result) {
	// Nulling never introduces a violation, so the second pass is clean.
	limit := s.Len() + 1
	for pass := 0; pass < limit; pass++ {
		res.Passes++
		violations := s.Check(record, prefix)
		if len(violations) == 0 {
			break
		}
		res.Iterations++
		for _, v := range violations {
			record[v.Field] = nil
			res.Entries = append(res.Entries, diagnostics.Entry{
				Label:  label,
				Path:   v.Path,
				Reason: string(v.Reason),
				Detail: v.Message,
				Time:   r.now(),
			})
		}
	}

	for _, f := range s.Fields {
		if f.Kind != schema.KindObject {
			continue
		}
		child, ok := record[f.Name].(map[string]any)
		if !ok {
			continue
		}
		r.repairLevel(label, child, f.Schema, prefix+f.Name+".", res)
	}
}

// copyRecord deep-copies the containers of a decoded JSON tree.
func copyRecord(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return copyRecord(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = copyValue(item)
		}
		return out
	}
	return v
}
