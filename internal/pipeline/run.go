// Package pipeline orchestrates a document generation run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/config"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/dataset"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/db"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/observability"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/reconcile"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/records"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/rendering"
)

// Step names reported through ProgressEvent
const (
	StepLoad      = "load_dataset"
	StepFill      = "fill_missing"
	StepReconcile = "reconcile_schema"
	StepNormalize = "normalize_records"
	StepRender    = "render_documents"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds the collaborators of a run. Every field is optional.
type RunOptions struct {
	Out        io.Writer        // console output, defaults to os.Stdout
	Logger     *zap.Logger      // diagnostics, defaults to a no-op logger
	Recorder   db.Recorder      // provenance ledger; when nil one is opened from cfg.DatabaseURL
	Store      reconcile.Store  // dataset persistence, defaults to dataset.Save
	Engine     rendering.Engine // template engine, defaults to rendering.DocxEngine
	OnProgress ProgressCallback
}

// Result is the outcome of a run.
type Result struct {
	RunID          uuid.UUID
	Outcome        reconcile.Outcome
	Reconciliation *reconcile.Result
	Filled         int                // cells set to the sentinel at load time
	Dropped        int                // records without a template
	Summary        *rendering.Summary // nil when the run halted for review
}

// Halted reports whether the run stopped after extending the dataset schema.
func (r *Result) Halted() bool {
	return r.Outcome == reconcile.Extended
}

// connectRecorder opens the ledger database and makes sure its tables exist.
var connectRecorder = func(ctx context.Context, databaseURL string) (db.Recorder, error) {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// Run loads the dataset, reconciles its columns with the templates, and when
// nothing was missing renders one document per routed record. A schema drift
// is not an error: the dataset is extended, saved, and the run halts with
// Result.Halted() true and no documents generated.
func Run(ctx context.Context, cfg config.Config, opts RunOptions) (*Result, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	printer := observability.NewPrinter(out)

	res := &Result{RunID: uuid.New()}
	logger = logger.With(zap.String("run_id", res.RunID.String()))
	emit := func(step, message string) {
		if opts.OnProgress != nil {
			opts.OnProgress(ProgressEvent{Step: step, Message: message, RunID: res.RunID.String()})
		}
	}

	printer.PrintStart(cfg.DatasetPath, cfg.TemplatesDir)

	recorder := openRecorder(ctx, cfg, opts.Recorder, logger)
	defer recorder.Close()
	if err := recorder.CreateRun(ctx, &db.Run{
		ID:           res.RunID,
		DatasetPath:  cfg.DatasetPath,
		TemplatesDir: cfg.TemplatesDir,
		OutputDir:    cfg.OutputDir,
	}); err != nil {
		logger.Warn("failed to create ledger run, continuing without ledger", zap.Error(err))
		recorder = db.NopRecorder{}
	}
	fail := func(err error) (*Result, error) {
		if cerr := recorder.CompleteRun(ctx, res.RunID, db.RunStatusFailed, "", 0, 0); cerr != nil {
			logger.Warn("failed to complete ledger run", zap.Error(cerr))
		}
		return res, err
	}

	// Step 1: Load dataset
	ds, err := dataset.Load(cfg.DatasetPath, cfg.Sheet)
	if err != nil {
		return fail(err)
	}
	emit(StepLoad, fmt.Sprintf("Loaded %d records from %s", ds.Len(), cfg.DatasetPath))
	logger.Debug("dataset loaded",
		zap.String("sheet", ds.Sheet),
		zap.Int("records", ds.Len()),
		zap.Strings("columns", ds.Columns()))

	// Step 2: Mark missing values
	res.Filled = records.FillMissing(ds, cfg.Sentinel)
	emit(StepFill, fmt.Sprintf("Filled %d empty cells with %q", res.Filled, cfg.Sentinel))

	// Step 3: Reconcile schema
	reconciler := reconcile.New(reconcile.Options{
		Sentinel:          cfg.Sentinel,
		TemplateExtension: cfg.TemplateExtension,
		ReservedPrefixes:  cfg.ReservedPrefixes,
		Store:             opts.Store,
		Logger:            logger,
	})
	rec, err := reconciler.Reconcile(ds, cfg.TemplatesDir)
	if err != nil {
		var persistErr *reconcile.PersistError
		if errors.As(err, &persistErr) {
			printer.PrintMissing(persistErr.Missing, cfg.DatasetPath)
		}
		return fail(err)
	}
	res.Reconciliation = rec
	res.Outcome = rec.Outcome
	emit(StepReconcile, fmt.Sprintf("Schema %s (%d required, %d missing)", rec.Outcome, len(rec.Required), len(rec.Missing)))

	if rec.Outcome == reconcile.Extended {
		printer.PrintDrift(rec.Missing, cfg.DatasetPath)
		printer.PrintHalt(cfg.Sentinel)
		if err := recorder.CompleteRun(ctx, res.RunID, db.RunStatusHalted, rec.Outcome.String(), 0, ds.Len()); err != nil {
			logger.Warn("failed to complete ledger run", zap.Error(err))
		}
		return res, nil
	}
	printer.PrintInSync(len(rec.Templates), len(rec.Required))

	// Step 4: Normalize records
	normalizer := records.NewNormalizer(cfg.TemplateColumn, cfg.RequiredColumns(), cfg.Sentinel, logger)
	cleaned, dropped, err := normalizer.Normalize(ds)
	if err != nil {
		return fail(err)
	}
	res.Dropped = dropped
	printer.PrintDropped(dropped, cfg.TemplateColumn)
	if cleaned.Len() == 0 {
		printer.PrintEmpty()
	}
	emit(StepNormalize, fmt.Sprintf("%d records to render, %d dropped", cleaned.Len(), dropped))

	// Step 5: Render
	renderOpts := rendering.OptionsFromConfig(cfg)
	renderOpts.Engine = opts.Engine
	renderOpts.Reporter = printer
	renderOpts.Ledger = &runLedger{recorder: recorder, runID: res.RunID}
	renderOpts.Logger = logger

	summary, err := rendering.NewRenderer(renderOpts).RenderAll(ctx, cleaned)
	res.Summary = summary
	if err != nil {
		return fail(err)
	}
	printer.PrintCollisions(summary.Collisions, cfg.OnCollision)
	printer.PrintSummary(summary.Generated, summary.Total, cfg.OutputDir)
	emit(StepRender, fmt.Sprintf("Generated %d of %d documents", summary.Generated, summary.Total))

	if err := recorder.CompleteRun(ctx, res.RunID, db.RunStatusCompleted, rec.Outcome.String(), summary.Generated, summary.Total); err != nil {
		logger.Warn("failed to complete ledger run", zap.Error(err))
	}
	return res, nil
}

// openRecorder returns the configured ledger, or a no-op one when none is
// configured or the database cannot be reached.
func openRecorder(ctx context.Context, cfg config.Config, recorder db.Recorder, logger *zap.Logger) db.Recorder {
	if recorder != nil {
		return recorder
	}
	if cfg.DatabaseURL == "" {
		return db.NopRecorder{}
	}

	recorder, err := connectRecorder(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("failed to connect to ledger database, continuing without ledger", zap.Error(err))
		return db.NopRecorder{}
	}
	logger.Debug("connected to ledger database")
	return recorder
}
