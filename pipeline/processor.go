package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/clinicalnotes/reportrepair/diagnostics"
	"github.com/clinicalnotes/reportrepair/identifier"
	"github.com/clinicalnotes/reportrepair/internal/metrics"
	"github.com/clinicalnotes/reportrepair/internal/telemetry"
	"github.com/clinicalnotes/reportrepair/recovery"
	"github.com/clinicalnotes/reportrepair/repair"
	"github.com/clinicalnotes/reportrepair/schema"
	"github.com/clinicalnotes/reportrepair/types"
)

// Record statuses.
const (
	StatusConformant         = metrics.StatusConformant
	StatusRepaired           = metrics.StatusRepaired
	StatusRecoveryFailure    = metrics.StatusRecoveryFailure
	StatusIdentifierNotFound = metrics.StatusIdentifierNotFound
)

// Recorder receives per-record measurements. *metrics.Collector satisfies it.
type Recorder interface {
	RecordRecord(status string, duration time.Duration)
	RecordFieldRepair(path, reason string)
	RecordRepairIterations(n int)
	RecordRecoveryFix(kind string)
	RecordAmbiguousIdentifier()
}

type nopRecorder struct{}

func (nopRecorder) RecordRecord(string, time.Duration) {}
func (nopRecorder) RecordFieldRepair(string, string)   {}
func (nopRecorder) RecordRepairIterations(int)         {}
func (nopRecorder) RecordRecoveryFix(string)           {}
func (nopRecorder) RecordAmbiguousIdentifier()         {}

// Outcome is the result of processing one document.
type Outcome struct {
	Label  string
	Status string
	// Identifier is derived from Label; zero when Status is a failure.
	Identifier int64
	// Record is the conformant record; nil on recovery failure.
	Record   map[string]any
	Recovery *recovery.Result
	Repair   *repair.Result
	// Err is a RECOVERY_FAILURE or IDENTIFIER_NOT_FOUND *types.Error.
	Err      error
	Duration time.Duration
}

// OK reports whether the record survived.
func (o *Outcome) OK() bool {
	return o.Err == nil
}

// Option configures a Processor.
type Option func(*Processor)

// WithRecoverer replaces the default tolerant Recoverer. nil keeps the default.
func WithRecoverer(r *recovery.Recoverer) Option {
	return func(p *Processor) { p.recoverer = r }
}

// WithExtractor replaces the default "VAC" identifier extractor. nil keeps
// the default.
func WithExtractor(e *identifier.Extractor) Option {
	return func(p *Processor) { p.extractor = e }
}

// WithSink sets the diagnostics sink. Defaults to diagnostics.Nop().
func WithSink(s diagnostics.Sink) Option {
	return func(p *Processor) { p.sink = s }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Processor) { p.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithClock sets the time source used for durations and failure entries.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// Processor runs one document through recovery, repair and identifier
// extraction, logging every repair and every dropped record to the sink.
// It is safe for concurrent use.
type Processor struct {
	schema    *schema.Schema
	recoverer *recovery.Recoverer
	repairer  *repair.Repairer
	extractor *identifier.Extractor
	sink      diagnostics.Sink
	recorder  Recorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewProcessor creates a Processor enforcing s.
func NewProcessor(s *schema.Schema, opts ...Option) *Processor {
	p := &Processor{
		schema:    s,
		recoverer: recovery.New(),
		extractor: identifier.MustNew(identifier.DefaultMarker),
		sink:      diagnostics.Nop(),
		recorder:  nopRecorder{},
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.recoverer == nil {
		p.recoverer = recovery.New()
	}
	if p.extractor == nil {
		p.extractor = identifier.MustNew(identifier.DefaultMarker)
	}
	if p.sink == nil {
		p.sink = diagnostics.Nop()
	}
	if p.recorder == nil {
		p.recorder = nopRecorder{}
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	p.repairer = repair.New(s, repair.WithLogger(p.logger), repair.WithClock(p.now))
	p.logger = p.logger.With(zap.String("component", "pipeline"))
	return p
}

// Schema returns the enforced descriptor.
func (p *Processor) Schema() *schema.Schema {
	return p.schema
}

// Extractor returns the identifier extractor.
func (p *Processor) Extractor() *identifier.Extractor {
	return p.extractor
}

// Process never returns nil. Failures are reported in Outcome.Err and
// logged to the sink; they never affect other documents.
func (p *Processor) Process(ctx context.Context, doc Document) *Outcome {
	start := p.now()
	_, span := telemetry.StartRecord(ctx, "pipeline.process", doc.Label)

	out := p.process(doc)
	out.Duration = p.now().Sub(start)

	span.SetAttributes(attribute.String("record.status", out.Status))
	if out.Repair != nil {
		span.SetAttributes(
			attribute.Int("repair.fields", len(out.Repair.Entries)),
			attribute.Int("repair.iterations", out.Repair.Iterations),
		)
	}
	telemetry.EndSpan(span, out.Err)
	p.recorder.RecordRecord(out.Status, out.Duration)
	return out
}

func (p *Processor) process(doc Document) *Outcome {
	out := &Outcome{Label: doc.Label}

	rec, err := p.recoverer.Recover(doc.Label, doc.Text)
	if err != nil {
		return p.fail(out, StatusRecoveryFailure, diagnostics.ReasonRecoveryFailure, err)
	}
	out.Recovery = rec
	for _, kind := range rec.FixKinds() {
		p.recorder.RecordRecoveryFix(string(kind))
	}
	record, ok := rec.Object()
	if !ok {
		cause := types.NewError(types.ErrNotAnObject, fmt.Sprintf("top-level value is %s", kindOf(rec.Value)))
		return p.fail(out, StatusRecoveryFailure, diagnostics.ReasonRecoveryFailure,
			types.NewRecoveryFailure(doc.Label, cause))
	}
	if rec.Repaired {
		p.logger.Debug("syntax repaired",
			zap.String("label", doc.Label),
			zap.Any("fixes", rec.FixKinds()),
		)
	}

	res := p.repairer.Repair(doc.Label, record, p.sink)
	out.Repair = res
	out.Record = res.Record
	p.recorder.RecordRepairIterations(res.Iterations)
	for _, e := range res.Entries {
		p.recorder.RecordFieldRepair(e.Path, e.Reason)
	}

	id, err := p.extractor.Extract(doc.Label)
	if err != nil {
		return p.fail(out, StatusIdentifierNotFound, diagnostics.ReasonIdentifierNotFound, err)
	}
	if ids := p.extractor.Candidates(doc.Label); len(ids) > 1 {
		p.logger.Warn("ambiguous identifier, using leftmost match",
			zap.String("label", doc.Label),
			zap.Int64s("candidates", ids),
			zap.Int64("identifier", id),
		)
		p.recorder.RecordAmbiguousIdentifier()
	}
	out.Identifier = id

	out.Status = StatusConformant
	if res.Repaired() {
		out.Status = StatusRepaired
	}
	return out
}

// fail logs a whole-record failure and drops the record.
func (p *Processor) fail(out *Outcome, status, reason string, err error) *Outcome {
	out.Status = status
	out.Err = err
	out.Record = nil

	detail := err.Error()
	if e, ok := types.AsError(err); ok && e.Cause != nil {
		detail = e.Cause.Error()
	}
	entry := diagnostics.Entry{Label: out.Label, Reason: reason, Detail: detail, Time: p.now()}
	if sinkErr := p.sink.Append(entry); sinkErr != nil {
		p.logger.Error("failed to append diagnostic entry",
			zap.String("label", out.Label),
			zap.Error(sinkErr),
		)
	}
	p.logger.Warn("record dropped",
		zap.String("label", out.Label),
		zap.String("status", status),
		zap.Error(err),
	)
	return out
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	default:
		return "a number"
	}
}
