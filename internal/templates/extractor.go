package templates

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/docx"
)

// variableSource is the part of a loaded template the extractor needs.
type variableSource interface {
	UndeclaredVariables() []string
}

// Extractor reports the data placeholders a template requires.
type Extractor struct {
	prefixes []string
	logger   *zap.Logger
	open     func(path string) (variableSource, error)
}

// NewExtractor returns an Extractor that drops names starting with any of
// reservedPrefixes. A nil logger discards diagnostics.
func NewExtractor(reservedPrefixes []string, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		prefixes: append([]string(nil), reservedPrefixes...),
		logger:   logger,
		open: func(path string) (variableSource, error) {
			return docx.Open(path)
		},
	}
}

// Extract returns the sorted variable names the template at path reads from
// its render context. A template that cannot be loaded is logged and yields
// an empty set, so one unreadable file never blocks reconciliation.
func (e *Extractor) Extract(path string) []string {
	tpl, err := e.open(path)
	if err != nil {
		e.logger.Warn("could not read template variables",
			zap.String("template", path),
			zap.Error(err))
		return []string{}
	}

	vars := []string{}
	for _, name := range tpl.UndeclaredVariables() {
		if e.reserved(name) {
			e.logger.Debug("skipping reserved name", zap.String("template", path), zap.String("name", name))
			continue
		}
		vars = append(vars, name)
	}
	sort.Strings(vars)
	return vars
}

// Union extracts every template in paths and returns the sorted union of their
// variables along with the per-template sets.
func (e *Extractor) Union(paths []string) ([]string, map[string][]string) {
	seen := map[string]bool{}
	perTemplate := make(map[string][]string, len(paths))
	for _, p := range paths {
		vars := e.Extract(p)
		perTemplate[p] = vars
		for _, v := range vars {
			seen[v] = true
		}
	}

	union := make([]string, 0, len(seen))
	for v := range seen {
		union = append(union, v)
	}
	sort.Strings(union)
	return union, perTemplate
}

func (e *Extractor) reserved(name string) bool {
	for _, prefix := range e.prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
