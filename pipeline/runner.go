package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clinicalnotes/reportrepair/types"
)

// DefaultWorkers is the worker count used when none is configured.
const DefaultWorkers = 4

// Failure describes a dropped record.
type Failure struct {
	Label  string `json:"label"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Report summarizes one batch run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	// Outcomes are in input order. Documents not reached before
	// cancellation are absent.
	Outcomes   []*Outcome
	Conformant int
	Repaired   int
	Failures   []Failure
}

// Total returns the number of processed documents.
func (r *Report) Total() int {
	return len(r.Outcomes)
}

// Succeeded returns the outcomes whose records survived, in input order.
func (r *Report) Succeeded() []*Outcome {
	ok := make([]*Outcome, 0, r.Conformant+r.Repaired)
	for _, o := range r.Outcomes {
		if o.OK() {
			ok = append(ok, o)
		}
	}
	return ok
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers bounds the number of concurrent documents.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithRunID sets the run identifier. Defaults to a random UUID.
func WithRunID(id string) RunnerOption {
	return func(r *Runner) {
		if id != "" {
			r.runID = id
		}
	}
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// Runner processes documents concurrently with a bounded worker pool.
type Runner struct {
	processor *Processor
	workers   int
	runID     string
	logger    *zap.Logger
}

// NewRunner creates a Runner around p.
func NewRunner(p *Processor, opts ...RunnerOption) *Runner {
	r := &Runner{
		processor: p,
		workers:   DefaultWorkers,
		runID:     uuid.NewString(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "runner"), zap.String("run_id", r.runID))
	return r
}

// RunID returns the identifier of the run.
func (r *Runner) RunID() string {
	return r.runID
}

// Run processes docs. Record failures never stop the run; only context
// cancellation does, in which case the partial report is returned with
// ctx's error.
func (r *Runner) Run(ctx context.Context, docs []Document) (*Report, error) {
	report := &Report{RunID: r.runID, StartedAt: time.Now()}
	slots := make([]*Outcome, len(docs))

	r.logger.Info("run started", zap.Int("documents", len(docs)), zap.Int("workers", r.workers))

	g, gctx := errgroup.WithContext(types.WithRunID(ctx, r.runID))
	g.SetLimit(r.workers)
	for i, doc := range docs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = r.processor.Process(gctx, doc)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	for _, o := range slots {
		if o == nil {
			continue
		}
		report.Outcomes = append(report.Outcomes, o)
		switch o.Status {
		case StatusConformant:
			report.Conformant++
		case StatusRepaired:
			report.Repaired++
		default:
			report.Failures = append(report.Failures, Failure{Label: o.Label, Status: o.Status, Error: o.Err.Error()})
		}
	}
	report.FinishedAt = time.Now()

	r.logger.Info("run finished",
		zap.Int("processed", report.Total()),
		zap.Int("conformant", report.Conformant),
		zap.Int("repaired", report.Repaired),
		zap.Int("failed", len(report.Failures)),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
		zap.Error(err),
	)
	return report, err
}
