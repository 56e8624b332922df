package records

import (
	"go.uber.org/zap"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/dataset"
)

// FillMissing replaces every empty cell of ds with sentinel and returns how
// many cells were filled. It runs right after loading, so "not supplied" is
// always spelled the same way.
func FillMissing(ds *dataset.Dataset, sentinel string) int {
	return ds.FillEmpty(sentinel)
}

// Normalizer filters a dataset down to the records that can be rendered.
type Normalizer struct {
	required      []string
	routingColumn string
	sentinel      string
	logger        *zap.Logger
}

// NewNormalizer creates a Normalizer. routingColumn names the template column;
// required lists every column records must carry (routing column included).
func NewNormalizer(routingColumn string, required []string, sentinel string, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		required:      append([]string(nil), required...),
		routingColumn: routingColumn,
		sentinel:      sentinel,
		logger:        logger,
	}
}

// Normalize checks that ds has every required column, then drops records
// whose routing value is the sentinel. It returns the cleaned dataset (ds is
// left as is) and the number of records dropped. An empty result is not an
// error.
func (n *Normalizer) Normalize(ds *dataset.Dataset) (*dataset.Dataset, int, error) {
	var missing []string
	for _, col := range n.required {
		if !ds.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, 0, &SchemaValidationError{Missing: missing, Message: "dataset is missing required columns"}
	}

	cleaned := ds.Filter(func(rec dataset.Record) bool {
		if rec.Get(n.routingColumn) == n.sentinel {
			n.logger.Debug("dropping record without template", zap.Int("row", rec.Row))
			return false
		}
		return true
	})

	dropped := ds.Len() - cleaned.Len()
	n.logger.Debug("records normalized",
		zap.Int("kept", cleaned.Len()),
		zap.Int("dropped", dropped))
	return cleaned, dropped, nil
}
