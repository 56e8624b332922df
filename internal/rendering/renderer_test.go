package rendering

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/config"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/dataset"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/observability"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/testsupport"
)

var columns = []string{"NOME_DO_MODELO", "CLIENTE", "DOCUMENTO", "NUMERO_PREGAO"}

func record(template, client, document, secondary string) dataset.Record {
	return dataset.Record{Values: map[string]string{
		"NOME_DO_MODELO": template,
		"CLIENTE":        client,
		"DOCUMENTO":      document,
		"NUMERO_PREGAO":  secondary,
	}}
}

func testOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	opts := OptionsFromConfig(config.Defaults())
	opts.TemplatesDir = filepath.Join(dir, "modelos")
	opts.OutputDir = filepath.Join(dir, "saida")
	return opts
}

type fakeDoc struct {
	renderErr error
	saveErr   error
	ctx       map[string]string
}

func (d *fakeDoc) Render(ctx map[string]string) error {
	d.ctx = ctx
	return d.renderErr
}

func (d *fakeDoc) Save(path string) error {
	if d.saveErr != nil {
		return d.saveErr
	}
	return os.WriteFile(path, []byte(d.ctx["CLIENTE"]), 0644)
}

type recordingLedger struct {
	artifacts []Artifact
	failures  []*RenderError
	err       error
}

func (l *recordingLedger) RecordArtifact(_ context.Context, a Artifact) error {
	l.artifacts = append(l.artifacts, a)
	return l.err
}

func (l *recordingLedger) RecordFailure(_ context.Context, f *RenderError) error {
	l.failures = append(l.failures, f)
	return l.err
}

func TestRenderAll_FailureIsolation(t *testing.T) {
	opts := testOptions(t)
	testsupport.WriteDocx(t, filepath.Join(opts.TemplatesDir, "proposta.docx"),
		testsupport.Paragraph("Cliente: {{ CLIENTE }} Pregão: {{ NUMERO_PREGAO }}"))

	var out bytes.Buffer
	opts.Reporter = observability.NewPrinter(&out)

	ds := dataset.New(columns, []dataset.Record{
		record("proposta.docx", "ACME Ltda", "Proposta", "001/2024"),
		record("inexistente.docx", "Beta", "Proposta", "N/A"),
		record("proposta.docx", "Gama", "Proposta", "N/A"),
	})

	summary, err := NewRenderer(opts).RenderAll(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Generated)
	assert.Equal(t, 3, summary.Total)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, KindTemplateNotFound, summary.Failures[0].Kind)
	assert.Equal(t, 3, summary.Failures[0].Row)
	assert.Equal(t, "Beta", summary.Failures[0].Client)

	first := filepath.Join(opts.OutputDir, "Proposta_ACME_Ltda_001_2024.docx")
	assert.Contains(t, testsupport.ReadDocumentXML(t, first), "Cliente: ACME Ltda Pregão: 001/2024")
	assert.FileExists(t, filepath.Join(opts.OutputDir, "Proposta_Gama.docx"))
	assert.NoFileExists(t, filepath.Join(opts.OutputDir, "Proposta_Beta.docx"))

	console := out.String()
	assert.Contains(t, console, "Generated (1): Proposta_ACME_Ltda_001_2024.docx (Template: proposta.docx)")
	assert.Contains(t, console, "Generated (2): Proposta_Gama.docx (Template: proposta.docx)")
	assert.Contains(t, console, "template not found")
	assert.Contains(t, console, "NOME_DO_MODELO")
}

func TestRenderAll_DeterministicOrder(t *testing.T) {
	opts := testOptions(t)
	testsupport.WriteDocx(t, filepath.Join(opts.TemplatesDir, "a", "carta.docx"),
		testsupport.Paragraph("{{ CLIENTE }}"))

	ds := dataset.New(columns, []dataset.Record{
		record("a/carta.docx", "Zeta", "Carta", "N/A"),
		record(`a\carta.docx`, "Alfa", "Carta", "N/A"),
		record("a/carta.docx", "Mu", "Carta", "7"),
	})

	run := func() []Artifact {
		summary, err := NewRenderer(opts).RenderAll(context.Background(), ds)
		require.NoError(t, err)
		return summary.Artifacts
	}

	want := []Artifact{
		{Counter: 1, Row: 2, Name: "Carta_Zeta.docx", Template: "a/carta.docx"},
		{Counter: 2, Row: 3, Name: "Carta_Alfa.docx", Template: `a\carta.docx`},
		{Counter: 3, Row: 4, Name: "Carta_Mu_7.docx", Template: "a/carta.docx"},
	}
	ignorePath := cmpopts.IgnoreFields(Artifact{}, "Path")
	if diff := cmp.Diff(want, run(), ignorePath); diff != "" {
		t.Errorf("first run mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, run(), ignorePath); diff != "" {
		t.Errorf("second run mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderAll_RenderFailureKind(t *testing.T) {
	opts := testOptions(t)
	testsupport.WriteDocx(t, filepath.Join(opts.TemplatesDir, "ruim.docx"),
		testsupport.Paragraph("{% if CLIENTE %}sem fim"))
	require.NoError(t, os.WriteFile(filepath.Join(opts.TemplatesDir, "corrompido.docx"), []byte("x"), 0644))

	ledger := &recordingLedger{}
	opts.Ledger = ledger

	ds := dataset.New(columns, []dataset.Record{
		record("ruim.docx", "ACME", "Doc", "N/A"),
		record("corrompido.docx", "ACME", "Doc", "N/A"),
	})

	summary, err := NewRenderer(opts).RenderAll(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Generated)
	require.Len(t, summary.Failures, 2)
	for _, f := range summary.Failures {
		assert.Equal(t, KindRenderFailure, f.Kind)
	}
	assert.Len(t, ledger.failures, 2)
	assert.Empty(t, ledger.artifacts)
}

func TestRenderAll_FakeEngineClassification(t *testing.T) {
	opts := testOptions(t)
	require.NoError(t, os.MkdirAll(opts.TemplatesDir, 0755))
	for _, name := range []string{"ok.docx", "render.docx", "save.docx", "gone.docx"} {
		require.NoError(t, os.WriteFile(filepath.Join(opts.TemplatesDir, name), []byte("x"), 0644))
	}

	opts.Engine = EngineFunc(func(path string) (Document, error) {
		switch filepath.Base(path) {
		case "render.docx":
			return &fakeDoc{renderErr: errors.New("bad tag")}, nil
		case "save.docx":
			return &fakeDoc{saveErr: errors.New("disk full")}, nil
		case "gone.docx":
			return nil, os.ErrNotExist
		default:
			return &fakeDoc{}, nil
		}
	})

	ds := dataset.New(columns, []dataset.Record{
		record("ok.docx", "A", "Doc", "N/A"),
		record("render.docx", "B", "Doc", "N/A"),
		record("save.docx", "C", "Doc", "N/A"),
		record("gone.docx", "D", "Doc", "N/A"),
		record("dir-missing/x.docx", "E", "Doc", "N/A"),
	})

	summary, err := NewRenderer(opts).RenderAll(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Generated)
	kinds := make([]ErrorKind, 0, len(summary.Failures))
	for _, f := range summary.Failures {
		kinds = append(kinds, f.Kind)
	}
	assert.Equal(t, []ErrorKind{KindRenderFailure, KindRenderFailure, KindTemplateNotFound, KindTemplateNotFound}, kinds)
	assert.ErrorContains(t, summary.Failures[1], "disk full")
}

func TestRenderAll_PassesFullRecordAsContext(t *testing.T) {
	opts := testOptions(t)
	require.NoError(t, os.MkdirAll(opts.TemplatesDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(opts.TemplatesDir, "t.docx"), []byte("x"), 0644))

	doc := &fakeDoc{}
	opts.Engine = EngineFunc(func(string) (Document, error) { return doc, nil })

	rec := record("t.docx", "ACME", "Doc", "N/A")
	rec.Values["EXTRA"] = "valor"
	ds := dataset.New(append(columns, "EXTRA"), []dataset.Record{rec})

	_, err := NewRenderer(opts).RenderAll(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, "valor", doc.ctx["EXTRA"])
	assert.Equal(t, "N/A", doc.ctx["NUMERO_PREGAO"])
}

func TestRenderAll_CollisionOverwrite(t *testing.T) {
	opts := testOptions(t)
	require.NoError(t, os.MkdirAll(opts.TemplatesDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(opts.TemplatesDir, "t.docx"), []byte("x"), 0644))
	opts.Engine = EngineFunc(func(string) (Document, error) { return &fakeDoc{}, nil })

	core, logs := observer.New(zapcore.WarnLevel)
	opts.Logger = zap.New(core)

	ds := dataset.New(columns, []dataset.Record{
		record("t.docx", "ACME", "Doc", "N/A"),
		record("t.docx", "ACME", "Doc", ""),
		record("t.docx", "ACME", "Doc", "N/A"),
	})

	summary, err := NewRenderer(opts).RenderAll(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Generated)
	assert.Equal(t, []string{"Doc_ACME.docx"}, summary.Collisions)
	assert.Equal(t, 2, logs.FilterMessage("generated file name repeats within the run").Len())

	entries, err := os.ReadDir(opts.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRenderAll_CollisionSuffix(t *testing.T) {
	opts := testOptions(t)
	opts.OnCollision = config.CollisionSuffix
	require.NoError(t, os.MkdirAll(opts.TemplatesDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(opts.TemplatesDir, "t.docx"), []byte("x"), 0644))
	opts.Engine = EngineFunc(func(string) (Document, error) { return &fakeDoc{}, nil })

	ds := dataset.New(columns, []dataset.Record{
		record("t.docx", "ACME", "Doc", "N/A"),
		record("t.docx", "ACME", "Doc", "N/A"),
		record("t.docx", "ACME", "Doc", "N/A"),
	})

	summary, err := NewRenderer(opts).RenderAll(context.Background(), ds)
	require.NoError(t, err)

	names := make([]string, 0, len(summary.Artifacts))
	for _, a := range summary.Artifacts {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"Doc_ACME.docx", "Doc_ACME_2.docx", "Doc_ACME_3.docx"}, names)
	assert.Equal(t, []string{"Doc_ACME.docx"}, summary.Collisions)
}

func TestRenderAll_LedgerErrorsAreIgnored(t *testing.T) {
	opts := testOptions(t)
	require.NoError(t, os.MkdirAll(opts.TemplatesDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(opts.TemplatesDir, "t.docx"), []byte("x"), 0644))
	opts.Engine = EngineFunc(func(string) (Document, error) { return &fakeDoc{}, nil })
	opts.Ledger = &recordingLedger{err: errors.New("connection refused")}

	ds := dataset.New(columns, []dataset.Record{record("t.docx", "ACME", "Doc", "N/A")})

	summary, err := NewRenderer(opts).RenderAll(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Generated)
}

func TestRenderAll_EmptyDatasetCreatesOutputDir(t *testing.T) {
	opts := testOptions(t)

	summary, err := NewRenderer(opts).RenderAll(context.Background(), dataset.New(columns, nil))
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Generated)
	assert.Equal(t, 0, summary.Total)
	assert.DirExists(t, opts.OutputDir)
}

func TestRenderAll_OutputDirFailure(t *testing.T) {
	opts := testOptions(t)
	blocker := filepath.Join(t.TempDir(), "arquivo")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	opts.OutputDir = filepath.Join(blocker, "saida")

	_, err := NewRenderer(opts).RenderAll(context.Background(), dataset.New(columns, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output directory")
}

func TestRenderAll_CancelledContext(t *testing.T) {
	opts := testOptions(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ds := dataset.New(columns, []dataset.Record{record("t.docx", "ACME", "Doc", "N/A")})
	summary, err := NewRenderer(opts).RenderAll(ctx, ds)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Generated)
}

func TestTemplatePath_NormalizesSeparators(t *testing.T) {
	r := NewRenderer(Options{TemplatesDir: "modelos"})

	want := filepath.Join("modelos", "licitacao", "proposta.docx")
	assert.Equal(t, want, r.TemplatePath(`licitacao\proposta.docx`))
	assert.Equal(t, want, r.TemplatePath("licitacao/proposta.docx"))
	assert.Equal(t, want, r.TemplatePath(" licitacao/proposta.docx "))
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "template not found", KindTemplateNotFound.String())
	assert.Equal(t, "render failure", KindRenderFailure.String())
	assert.Equal(t, "unknown", ErrorKind(0).String())
}
