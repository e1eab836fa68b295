package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicalnotes/reportrepair/diagnostics"
	"github.com/clinicalnotes/reportrepair/extract"
	"github.com/clinicalnotes/reportrepair/identifier"
	"github.com/clinicalnotes/reportrepair/internal/cache"
	"github.com/clinicalnotes/reportrepair/llm"
	"github.com/clinicalnotes/reportrepair/llm/providers/openaicompat"
	"github.com/clinicalnotes/reportrepair/pipeline"
	"github.com/clinicalnotes/reportrepair/recovery"
	"github.com/clinicalnotes/reportrepair/rxnorm"
	"github.com/clinicalnotes/reportrepair/schema"
	"github.com/clinicalnotes/reportrepair/tabular"
)

// =============================================================================
// 🤖 extract 命令
// =============================================================================

func runExtract(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	var cf configFlags
	cf.register(fs)
	in := fs.String("in", "", "Directory of report texts (default: extract.input_dir)")
	dst := fs.String("out", "", "Directory for raw JSON outputs (default: extract.output_dir)")
	overwrite := fs.Bool("overwrite", false, "Overwrite existing outputs")
	check := fs.Bool("check", true, "Check the generator endpoint before starting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := cf.load()
	if err != nil {
		return err
	}
	if *in != "" {
		cfg.Extract.InputDir = *in
	}
	if *dst != "" {
		cfg.Extract.OutputDir = *dst
	}
	cfg.Extract.Overwrite = cfg.Extract.Overwrite || *overwrite

	ctx, stop := signalContext()
	defer stop()
	a := newApp(ctx, cfg)
	defer a.close()

	s, err := schema.Resolve(cfg.Schema.Source)
	if err != nil {
		return err
	}

	upstream := openaicompat.New(openaicompat.Config{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		DefaultModel:    cfg.LLM.Model,
		Timeout:         cfg.LLM.Timeout,
		MaxConnsPerHost: cfg.Extract.Workers,
	}, a.logger)
	if *check {
		if err := upstream.HealthCheck(ctx); err != nil {
			return fmt.Errorf("generator endpoint %s is not ready: %w", cfg.LLM.BaseURL, err)
		}
	}
	provider := llm.NewResilientProvider(upstream, nil, a.collector, a.logger)

	gen, err := extract.NewGenerator(provider, s, cfg.Extract,
		extract.WithModel(cfg.LLM.Model),
		extract.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	summary, err := gen.Run(ctx)
	if summary != nil {
		fmt.Fprintf(out, "reports: %d  written: %d  skipped: %d  failed: %d  tokens: %d  (%s)\n",
			summary.Total, summary.Written, summary.Skipped, summary.Failed(), summary.Usage.TotalTokens,
			summary.Elapsed.Round(time.Millisecond))
		for _, f := range summary.Failures {
			fmt.Fprintf(out, "  %s: %s\n", f.Label, f.Error)
		}
	}
	return err
}

// =============================================================================
// 🧮 tabulate 命令
// =============================================================================

func runTabulate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("tabulate", flag.ContinueOnError)
	var cf configFlags
	cf.register(fs)
	in := fs.String("in", "", "Directory of raw JSON outputs (default: pipeline.input_dir)")
	csvPath := fs.String("csv", "", "Write the run as CSV (default: output.csv_path)")
	runID := fs.String("run-id", "", "Run identifier (default: random UUID)")
	autoMigrate := fs.Bool("auto-migrate", true, "Create missing tables with gorm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := cf.load()
	if err != nil {
		return err
	}
	if *in != "" {
		cfg.Pipeline.InputDir = *in
	}
	if *csvPath != "" {
		cfg.Output.CSVPath = *csvPath
	}
	if *runID == "" {
		*runID = uuid.NewString()
	}

	ctx, stop := signalContext()
	defer stop()
	a := newApp(ctx, cfg)
	defer a.close()

	s, err := schema.Resolve(cfg.Schema.Source)
	if err != nil {
		return err
	}
	ext, err := identifier.New(cfg.Identifier.Marker)
	if err != nil {
		return err
	}
	docs, err := pipeline.LoadDocuments(cfg.Pipeline.InputDir, cfg.Pipeline.Pattern)
	if err != nil {
		return err
	}

	pool, err := a.openDatabase(ctx)
	if err != nil {
		return err
	}
	store := tabular.NewStore(pool, a.logger)
	if *autoMigrate {
		if err := store.AutoMigrate(); err != nil {
			return err
		}
	}

	sink, closeSink, err := a.diagnosticsSink(*runID, *autoMigrate)
	if err != nil {
		return err
	}
	defer closeSink()

	processor := pipeline.NewProcessor(s,
		pipeline.WithRecoverer(recovery.New(
			recovery.WithFenceMarker(cfg.Pipeline.FenceMarker),
			recovery.WithTolerance(cfg.Pipeline.Tolerant),
		)),
		pipeline.WithExtractor(ext),
		pipeline.WithSink(sink),
		pipeline.WithRecorder(a.collector),
		pipeline.WithLogger(a.logger),
	)
	runner := pipeline.NewRunner(processor,
		pipeline.WithWorkers(cfg.Pipeline.Workers),
		pipeline.WithRunID(*runID),
		pipeline.WithRunnerLogger(a.logger),
	)

	if err := store.CreateRun(ctx, &tabular.Run{ID: *runID, SchemaTitle: s.Title, Source: cfg.Pipeline.InputDir}); err != nil {
		return err
	}
	report, runErr := runner.Run(ctx, docs)
	// 取消时仍保存已完成的记录
	saveCtx := context.WithoutCancel(ctx)
	if _, err := store.SaveOutcomes(saveCtx, *runID, s, cfg.Identifier.Field, report.Outcomes); err != nil {
		return err
	}
	if err := store.FinishRun(saveCtx, report); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	if cfg.Output.CSVPath != "" {
		if err := writeRunCSV(ctx, store, s, cfg.Identifier.Field, *runID, cfg.Output.CSVPath); err != nil {
			return err
		}
	}

	printReport(out, report)
	return nil
}

// diagnosticsSink 按配置组合文件、日志与数据库诊断输出
func (a *app) diagnosticsSink(runID string, autoMigrate bool) (diagnostics.Sink, func(), error) {
	var sinks []diagnostics.Sink
	closeFn := func() {}

	if path := a.cfg.Diagnostics.LogPath; path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, closeFn, err
		}
		file, err := diagnostics.OpenFile(path)
		if err != nil {
			return nil, closeFn, err
		}
		sinks = append(sinks, file)
		closeFn = func() {
			if err := file.Close(); err != nil {
				a.logger.Warn("failed to close diagnostics log", zap.Error(err))
			}
		}
	}
	if a.cfg.Diagnostics.Logger {
		sinks = append(sinks, diagnostics.NewLoggerSink(a.logger))
	}
	if a.cfg.Diagnostics.Store && a.pool != nil {
		store := diagnostics.NewStoreSink(a.pool.DB(), runID)
		if autoMigrate {
			if err := store.AutoMigrate(); err != nil {
				closeFn()
				return nil, func() {}, err
			}
		}
		sinks = append(sinks, store)
	}
	if len(sinks) == 0 {
		return diagnostics.Nop(), closeFn, nil
	}
	return diagnostics.Multi(sinks...), closeFn, nil
}

func writeRunCSV(ctx context.Context, store *tabular.Store, s *schema.Schema, idField, runID, path string) error {
	rows, err := store.Rows(ctx, runID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tabular.WriteCSV(f, s, idField, rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printReport(out io.Writer, report *pipeline.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Run:\t%s\n", report.RunID)
	fmt.Fprintf(w, "Records:\t%d\n", report.Total())
	fmt.Fprintf(w, "Conformant:\t%d\n", report.Conformant)
	fmt.Fprintf(w, "Repaired:\t%d\n", report.Repaired)
	fmt.Fprintf(w, "Dropped:\t%d\n", len(report.Failures))
	_ = w.Flush()
	for _, f := range report.Failures {
		fmt.Fprintf(out, "  %s [%s]: %s\n", f.Label, f.Status, f.Error)
	}
}

// =============================================================================
// 📄 texts 命令
// =============================================================================

func runTexts(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("texts", flag.ContinueOnError)
	var cf configFlags
	cf.register(fs)
	in := fs.String("in", "", "Directory of report texts (default: extract.input_dir)")
	pattern := fs.String("pattern", "", "File pattern (default: extract.pattern)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := cf.load()
	if err != nil {
		return err
	}
	dir, pat := cfg.Extract.InputDir, cfg.Extract.Pattern
	if *in != "" {
		dir = *in
	}
	if *pattern != "" {
		pat = *pattern
	}

	ctx, stop := signalContext()
	defer stop()
	a := newApp(ctx, cfg)
	defer a.close()

	ext, err := identifier.New(cfg.Identifier.Marker)
	if err != nil {
		return err
	}
	docs, err := pipeline.LoadDocuments(dir, pat)
	if err != nil {
		return err
	}
	pool, err := a.openDatabase(ctx)
	if err != nil {
		return err
	}
	store := tabular.NewStore(pool, a.logger)
	if err := store.AutoMigrate(); err != nil {
		return err
	}

	texts, skipped := tabular.CollectTexts(docs, ext)
	for _, label := range skipped {
		a.logger.Warn("report has no identifier, skipped", zap.String("label", label))
	}
	if err := store.SaveTexts(ctx, texts); err != nil {
		return err
	}
	fmt.Fprintf(out, "stored %d report texts, skipped %d\n", len(texts), len(skipped))
	return nil
}

// =============================================================================
// 💊 meds 命令
// =============================================================================

func runMeds(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("meds", flag.ContinueOnError)
	var cf configFlags
	cf.register(fs)
	runID := fs.String("run", "", "Run identifier (default: latest run)")
	field := fs.String("field", tabular.DefaultMedicationField, "Record field listing medications")
	standardize := fs.Bool("standardize", true, "Standardize names with RxNorm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := cf.load()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()
	a := newApp(ctx, cfg)
	defer a.close()

	pool, err := a.openDatabase(ctx)
	if err != nil {
		return err
	}
	store := tabular.NewStore(pool, a.logger)
	if err := store.AutoMigrate(); err != nil {
		return err
	}
	if *runID == "" {
		run, err := store.LatestRun(ctx)
		if err != nil {
			return err
		}
		*runID = run.ID
	}
	rows, err := store.Rows(ctx, *runID)
	if err != nil {
		return err
	}

	var std tabular.Standardizer
	if *standardize {
		client, closeClient, err := a.rxnormClient(ctx)
		if err != nil {
			return err
		}
		defer closeClient()
		std = client
	}

	meds, err := tabular.BuildMedications(ctx, *runID, rows, *field, std)
	if err != nil {
		return err
	}
	if err := store.ReplaceMedications(ctx, *runID, meds); err != nil {
		return err
	}
	fmt.Fprintf(out, "run %s: %d medication rows from %d records\n", *runID, len(meds), len(rows))
	return nil
}

// rxnormClient 创建 RxNorm 客户端，启用缓存时连接 Redis
func (a *app) rxnormClient(ctx context.Context) (*rxnorm.Client, func(), error) {
	opts := []rxnorm.Option{
		rxnorm.WithRecorder(a.collector),
		rxnorm.WithLogger(a.logger),
	}
	closeFn := func() {}
	if a.cfg.RxNorm.CacheEnabled {
		mgr, err := cache.NewManager(ctx, a.cfg.Redis, a.logger,
			cache.WithKeyPrefix("reportrepair:"),
			cache.WithDefaultTTL(a.cfg.RxNorm.CacheTTL),
			cache.WithRecorder(a.collector),
		)
		if err != nil {
			a.logger.Warn("redis unavailable, rxnorm cache disabled", zap.Error(err))
		} else {
			opts = append(opts, rxnorm.WithCache(mgr, a.cfg.RxNorm.CacheTTL))
			closeFn = func() { _ = mgr.Close() }
		}
	}
	client, err := rxnorm.NewClient(a.cfg.RxNorm, opts...)
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	return client, closeFn, nil
}

// =============================================================================
// 📐 schema 命令
// =============================================================================

func runSchema(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	detailed := fs.Bool("detailed", false, "Use the detailed nested NBSE descriptor")
	source := fs.String("source", "", "Built-in name or descriptor file (overrides --detailed)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	src := schema.BuiltinNBSE
	if *detailed {
		src = schema.BuiltinNBSEDetailed
	}
	if *source != "" {
		src = *source
	}
	s, err := schema.Resolve(src)
	if err != nil {
		return err
	}
	data, err := s.JSONSchema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// =============================================================================
// 🔎 audit 命令
// =============================================================================

func runAudit(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	logPath := fs.String("log", "", "Diagnostics log file (JSON Lines)")
	top := fs.Int("top", 20, "Number of field paths to show")
	asJSON := fs.Bool("json", false, "Print the summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *logPath == "" {
		return fmt.Errorf("audit: --log is required")
	}
	entries, err := diagnostics.ReadFile(*logPath)
	if err != nil {
		return err
	}
	summary := diagnostics.Summarize(entries)

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Entries:\t%d\n", summary.Total)
	fmt.Fprintf(w, "Records:\t%d\n", summary.Labels)
	fmt.Fprintf(w, "Dropped:\t%d\n", summary.DroppedRecords)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "REASON\tCOUNT")
	for _, reason := range slices.Sorted(maps.Keys(summary.ByReason)) {
		fmt.Fprintf(w, "%s\t%d\n", reason, summary.ByReason[reason])
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "PATH\tCOUNT")
	for _, pc := range summary.TopPaths(*top) {
		fmt.Fprintf(w, "%s\t%d\n", pc.Path, pc.Count)
	}
	return w.Flush()
}
