package reconcile

import (
	"go.uber.org/zap"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/dataset"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/templates"
)

// Outcome is the result of a reconciliation pass.
type Outcome int

const (
	// Unchanged means every required variable already has a column.
	Unchanged Outcome = iota
	// Extended means columns were added and persisted; the run must halt so an
	// operator can fill them in.
	Extended
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Extended:
		return "extended"
	default:
		return "unknown"
	}
}

// Store persists a dataset.
type Store interface {
	Save(ds *dataset.Dataset) error
}

// StoreFunc adapts a function to Store.
type StoreFunc func(ds *dataset.Dataset) error

// Save calls f(ds).
func (f StoreFunc) Save(ds *dataset.Dataset) error {
	return f(ds)
}

// Result describes what reconciliation found.
type Result struct {
	Outcome   Outcome
	Required  []string            // sorted union of every template's variables
	Missing   []string            // sorted; columns that were (or would be) added
	Templates []string            // templates scanned, in discovery order
	Variables map[string][]string // per-template variable sets
}

// Reconciler compares template requirements with dataset columns.
type Reconciler struct {
	extractor *templates.Extractor
	store     Store
	sentinel  string
	extension string
	logger    *zap.Logger
}

// Options configures a Reconciler.
type Options struct {
	Sentinel          string
	TemplateExtension string
	ReservedPrefixes  []string
	Store             Store       // defaults to dataset.Save
	Logger            *zap.Logger // defaults to a no-op logger
}

// New creates a Reconciler.
func New(opts Options) *Reconciler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := opts.Store
	if store == nil {
		store = StoreFunc(dataset.Save)
	}
	ext := opts.TemplateExtension
	if ext == "" {
		ext = ".docx"
	}
	return &Reconciler{
		extractor: templates.NewExtractor(opts.ReservedPrefixes, logger),
		store:     store,
		sentinel:  opts.Sentinel,
		extension: ext,
		logger:    logger,
	}
}

// Check reports drift between the templates under root and ds without
// touching the dataset. The outcome is Extended when Reconcile would extend.
func (r *Reconciler) Check(ds *dataset.Dataset, root string) (*Result, error) {
	paths, err := templates.Discover(root, r.extension)
	if err != nil {
		return nil, &ScanError{Root: root, Message: "failed to list templates", Cause: err}
	}

	required, perTemplate := r.extractor.Union(paths)
	var missing []string
	for _, name := range required {
		if !ds.HasColumn(name) {
			missing = append(missing, name)
		}
	}

	res := &Result{
		Outcome:   Unchanged,
		Required:  required,
		Missing:   missing,
		Templates: paths,
		Variables: perTemplate,
	}
	if len(missing) > 0 {
		res.Outcome = Extended
	}
	r.logger.Debug("schema check",
		zap.Int("templates", len(paths)),
		zap.Strings("required", required),
		zap.Strings("missing", missing))
	return res, nil
}

// Reconcile adds a sentinel-filled column for every required variable the
// dataset lacks and persists the dataset once. When nothing is missing the
// dataset is neither modified nor written.
func (r *Reconciler) Reconcile(ds *dataset.Dataset, root string) (*Result, error) {
	res, err := r.Check(ds, root)
	if err != nil {
		return nil, err
	}
	if res.Outcome == Unchanged {
		return res, nil
	}

	for _, name := range res.Missing {
		if err := ds.AddColumn(name, r.sentinel); err != nil {
			return nil, &PersistError{Path: ds.Path, Missing: res.Missing, Message: "failed to add column " + name, Cause: err}
		}
	}
	if err := r.store.Save(ds); err != nil {
		return nil, &PersistError{
			Path:    ds.Path,
			Missing: res.Missing,
			Message: "failed to save extended dataset " + ds.Path + " (check the spreadsheet is not open in another program)",
			Cause:   err,
		}
	}

	r.logger.Info("dataset schema extended",
		zap.String("dataset", ds.Path),
		zap.Strings("added", res.Missing))
	return res, nil
}
