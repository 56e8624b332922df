package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/db"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/rendering"
)

// runLedger records rendering outcomes against one ledger run.
type runLedger struct {
	recorder db.Recorder
	runID    uuid.UUID
}

func (l *runLedger) RecordArtifact(ctx context.Context, a rendering.Artifact) error {
	return l.recorder.RecordArtifact(ctx, l.runID, &db.ArtifactRecord{
		Counter:  a.Counter,
		Row:      a.Row,
		FileName: a.Name,
		FilePath: a.Path,
		Template: a.Template,
	})
}

func (l *runLedger) RecordFailure(ctx context.Context, f *rendering.RenderError) error {
	return l.recorder.RecordFailure(ctx, l.runID, &db.FailureRecord{
		Row:      f.Row,
		Kind:     f.Kind.String(),
		Client:   f.Client,
		Template: f.Template,
		Detail:   f.Detail(),
	})
}
