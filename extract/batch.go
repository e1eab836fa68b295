package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clinicalnotes/reportrepair/internal/telemetry"
	"github.com/clinicalnotes/reportrepair/pipeline"
	"github.com/clinicalnotes/reportrepair/types"
)

// Failure is a report the generator could not convert.
type Failure struct {
	Label string `json:"label"`
	Error string `json:"error"`
}

// Summary describes one batch extraction.
type Summary struct {
	Total    int
	Written  int
	Skipped  int
	Failures []Failure
	Elapsed  time.Duration
	// Usage sums the token usage reported by the generator.
	Usage types.TokenUsage
}

// Failed returns the number of failed reports.
func (s *Summary) Failed() int {
	return len(s.Failures)
}

// OutputPath returns the raw output path for a report: the report's stem
// with a .json extension, inside dir.
func OutputPath(dir, reportPath string) string {
	base := filepath.Base(reportPath)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".json")
}

// Run converts every report in the configured input directory and writes
// the raw outputs to the output directory. Existing outputs are skipped
// unless Overwrite is set. A failing report never stops the batch; only
// context cancellation does.
func (g *Generator) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	paths, err := pipeline.Enumerate(g.cfg.InputDir, g.cfg.Pattern)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	summary := &Summary{Total: len(paths)}
	var mu sync.Mutex

	workers := g.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	g.logger.Info("extraction started",
		zap.String("input_dir", g.cfg.InputDir),
		zap.Int("reports", len(paths)),
		zap.Int("workers", workers),
	)

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, path := range paths {
		if egctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			out := OutputPath(g.cfg.OutputDir, path)
			if !g.cfg.Overwrite {
				if _, err := os.Stat(out); err == nil {
					mu.Lock()
					summary.Skipped++
					mu.Unlock()
					return nil
				}
			}

			usage, err := g.extractOne(egctx, path, out)
			mu.Lock()
			defer mu.Unlock()
			summary.Usage.Add(usage)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				summary.Failures = append(summary.Failures, Failure{Label: filepath.Base(path), Error: err.Error()})
				g.logger.Warn("report extraction failed", zap.String("report", path), zap.Error(err))
				return nil
			}
			summary.Written++
			return nil
		})
	}
	err = eg.Wait()
	if err == nil {
		err = ctx.Err()
	}
	summary.Elapsed = time.Since(start)

	g.logger.Info("extraction finished",
		zap.Int("written", summary.Written),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed()),
		zap.Int("total_tokens", summary.Usage.TotalTokens),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, err
}

func (g *Generator) extractOne(ctx context.Context, path, out string) (usage types.TokenUsage, err error) {
	ctx, span := telemetry.StartRecord(ctx, "extract.document", filepath.Base(path))
	defer func() {
		span.SetAttributes(attribute.Int("llm.total_tokens", usage.TotalTokens))
		telemetry.EndSpan(span, err)
	}()

	doc, err := pipeline.ReadDocument(path)
	if err != nil {
		return usage, err
	}
	resp, err := g.complete(ctx, doc.Text)
	if err != nil {
		return usage, err
	}
	usage = types.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	text, err := resp.Text()
	if err != nil {
		return usage, err
	}
	if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
		return usage, fmt.Errorf("failed to write %s: %w", out, err)
	}
	g.logger.Debug("report extracted", zap.String("report", doc.Label), zap.String("output", out))
	return usage, nil
}
