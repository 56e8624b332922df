package rendering

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/config"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/dataset"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/docx"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/naming"
)

// Document is a loaded template that can be rendered repeatedly.
type Document interface {
	Render(ctx map[string]string) error
	Save(path string) error
}

// Engine loads templates.
type Engine interface {
	Load(path string) (Document, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(path string) (Document, error)

// Load calls f(path).
func (f EngineFunc) Load(path string) (Document, error) {
	return f(path)
}

// DocxEngine loads .docx templates.
var DocxEngine = EngineFunc(func(path string) (Document, error) {
	return docx.Open(path)
})

// Ledger records the outcome of each record. Ledger errors never stop a batch.
type Ledger interface {
	RecordArtifact(ctx context.Context, a Artifact) error
	RecordFailure(ctx context.Context, f *RenderError) error
}

// Reporter receives per-record console events.
type Reporter interface {
	PrintGenerated(n int, file, template string)
	PrintFailure(kind string, row int, client, template, detail string)
}

// Artifact is one generated document.
type Artifact struct {
	Counter  int    // 1-based position among the documents of this run
	Row      int    // dataset row the document was built from
	Name     string // file name inside the output directory
	Path     string
	Template string // routing value as written in the dataset
}

// Summary is the outcome of a batch.
type Summary struct {
	Generated  int
	Total      int
	Failures   []*RenderError
	Artifacts  []Artifact
	Collisions []string // names generated more than once, in first-collision order
}

// Options configures a Renderer.
type Options struct {
	TemplatesDir    string
	OutputDir       string
	OutputExtension string
	Sentinel        string
	TemplateColumn  string
	ClientColumn    string
	DocumentColumn  string
	SecondaryColumn string
	OnCollision     string

	Engine   Engine   // defaults to DocxEngine
	Ledger   Ledger   // optional
	Reporter Reporter // optional
	Logger   *zap.Logger
}

// OptionsFromConfig fills the path, column and policy fields of Options from cfg.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		TemplatesDir:    cfg.TemplatesDir,
		OutputDir:       cfg.OutputDir,
		OutputExtension: cfg.OutputExtension,
		Sentinel:        cfg.Sentinel,
		TemplateColumn:  cfg.TemplateColumn,
		ClientColumn:    cfg.ClientColumn,
		DocumentColumn:  cfg.DocumentColumn,
		SecondaryColumn: cfg.SecondaryIDColumn,
		OnCollision:     cfg.OnCollision,
	}
}

// Renderer renders every record of a dataset with the template it names.
type Renderer struct {
	opts   Options
	logger *zap.Logger
	loaded map[string]loadResult
}

type loadResult struct {
	doc Document
	err error
}

// NewRenderer creates a Renderer.
func NewRenderer(opts Options) *Renderer {
	if opts.Engine == nil {
		opts.Engine = DocxEngine
	}
	if opts.OutputExtension == "" {
		opts.OutputExtension = ".docx"
	}
	if opts.OnCollision == "" {
		opts.OnCollision = config.CollisionOverwrite
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{opts: opts, logger: logger}
}

// RenderAll renders the records of ds in order. A record that fails is
// recorded in the summary and skipped; the loop always reaches the end unless
// ctx is cancelled. The returned error is only set when the output directory
// cannot be created or ctx is done, and the summary then covers the records
// handled so far.
func (r *Renderer) RenderAll(ctx context.Context, ds *dataset.Dataset) (*Summary, error) {
	summary := &Summary{Total: ds.Len()}

	if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
		return summary, fmt.Errorf("failed to create output directory %s: %w", r.opts.OutputDir, err)
	}

	r.loaded = make(map[string]loadResult)
	seen := make(map[string]bool)
	collided := make(map[string]bool)

	for _, rec := range ds.Records() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		doc, renderErr := r.render(rec)
		if renderErr != nil {
			r.fail(ctx, summary, renderErr)
			continue
		}

		name := naming.ArtifactName(
			rec.Get(r.opts.DocumentColumn),
			rec.Get(r.opts.ClientColumn),
			rec.Get(r.opts.SecondaryColumn),
			r.opts.Sentinel,
			r.opts.OutputExtension,
		)
		if seen[name] {
			if !collided[name] {
				collided[name] = true
				summary.Collisions = append(summary.Collisions, name)
			}
			r.logger.Warn("generated file name repeats within the run",
				zap.String("file", name),
				zap.Int("row", rec.Row),
				zap.String("policy", r.opts.OnCollision))
			if r.opts.OnCollision == config.CollisionSuffix {
				name = r.uniqueName(name, summary.Generated+1, seen)
			}
		}

		path := filepath.Join(r.opts.OutputDir, name)
		if err := doc.Save(path); err != nil {
			r.fail(ctx, summary, r.newError(KindRenderFailure, rec, "failed to save "+name, err))
			continue
		}
		seen[name] = true

		summary.Generated++
		artifact := Artifact{
			Counter:  summary.Generated,
			Row:      rec.Row,
			Name:     name,
			Path:     path,
			Template: rec.Get(r.opts.TemplateColumn),
		}
		summary.Artifacts = append(summary.Artifacts, artifact)

		if r.opts.Reporter != nil {
			r.opts.Reporter.PrintGenerated(artifact.Counter, artifact.Name, artifact.Template)
		}
		if r.opts.Ledger != nil {
			if err := r.opts.Ledger.RecordArtifact(ctx, artifact); err != nil {
				r.logger.Warn("failed to record artifact", zap.String("file", name), zap.Error(err))
			}
		}
	}

	return summary, nil
}

// render loads the record's template and renders it with the record's values.
func (r *Renderer) render(rec dataset.Record) (Document, *RenderError) {
	routing := rec.Get(r.opts.TemplateColumn)
	path := r.TemplatePath(routing)

	doc, err := r.load(path)
	if err != nil {
		var nf interface{ NotFound() bool }
		if errors.Is(err, fs.ErrNotExist) || (errors.As(err, &nf) && nf.NotFound()) {
			return nil, r.newError(KindTemplateNotFound, rec,
				fmt.Sprintf("template %s not found (%s = %q)", path, r.opts.TemplateColumn, routing), err)
		}
		return nil, r.newError(KindRenderFailure, rec, "failed to load template "+path, err)
	}

	if err := doc.Render(rec.Context()); err != nil {
		return nil, r.newError(KindRenderFailure, rec, "failed to render template "+path, err)
	}
	return doc, nil
}

// load returns the template at path, loading each path at most once per batch.
func (r *Renderer) load(path string) (Document, error) {
	if res, ok := r.loaded[path]; ok {
		return res.doc, res.err
	}
	if info, err := os.Stat(path); err != nil {
		r.loaded[path] = loadResult{err: err}
		return nil, err
	} else if info.IsDir() {
		err := fmt.Errorf("%s is a directory", path)
		r.loaded[path] = loadResult{err: err}
		return nil, err
	}

	doc, err := r.opts.Engine.Load(path)
	r.loaded[path] = loadResult{doc: doc, err: err}
	return doc, err
}

// TemplatePath resolves a routing value against the templates root. Both '/'
// and '\' are accepted as separators.
func (r *Renderer) TemplatePath(routing string) string {
	rel := strings.NewReplacer("/", string(filepath.Separator), `\`, string(filepath.Separator)).
		Replace(strings.TrimSpace(routing))
	return filepath.Join(r.opts.TemplatesDir, rel)
}

// uniqueName appends "_<n>" to name, counting up from n until the result is unused.
func (r *Renderer) uniqueName(name string, n int, seen map[string]bool) string {
	for {
		candidate := naming.WithSuffix(name, r.opts.OutputExtension, n)
		if !seen[candidate] {
			return candidate
		}
		n++
	}
}

func (r *Renderer) newError(kind ErrorKind, rec dataset.Record, message string, cause error) *RenderError {
	return &RenderError{
		Kind:     kind,
		Row:      rec.Row,
		Client:   rec.Get(r.opts.ClientColumn),
		Template: rec.Get(r.opts.TemplateColumn),
		Message:  message,
		Cause:    cause,
	}
}

func (r *Renderer) fail(ctx context.Context, summary *Summary, renderErr *RenderError) {
	summary.Failures = append(summary.Failures, renderErr)

	r.logger.Error("record skipped",
		zap.Int("row", renderErr.Row),
		zap.String("client", renderErr.Client),
		zap.String("template", renderErr.Template),
		zap.Stringer("kind", renderErr.Kind),
		zap.Error(renderErr.Cause))

	if r.opts.Reporter != nil {
		r.opts.Reporter.PrintFailure(renderErr.Kind.String(), renderErr.Row, renderErr.Client, renderErr.Template, renderErr.Detail())
	}
	if r.opts.Ledger != nil {
		if err := r.opts.Ledger.RecordFailure(ctx, renderErr); err != nil {
			r.logger.Warn("failed to record failure", zap.Int("row", renderErr.Row), zap.Error(err))
		}
	}
}
