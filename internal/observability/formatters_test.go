package observability

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/db"
)

func TestPrintDrift(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDrift([]string{"ITENS", "VALOR"}, "dados/dados.xlsx")
	output := buf.String()

	assert.Contains(t, output, "SCHEMA DRIFT")
	assert.Contains(t, output, "2 new variable(s)")
	assert.Contains(t, output, "• ITENS")
	assert.Contains(t, output, "• VALOR")
	assert.Contains(t, output, "dados/dados.xlsx")
}

func TestPrintDrift_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintDrift(nil, "x.xlsx")
	assert.Empty(t, buf.String())
}

func TestPrintDrift_Truncated(t *testing.T) {
	var buf bytes.Buffer
	missing := make([]string, maxItemsToShow+3)
	for i := range missing {
		missing[i] = fmt.Sprintf("VAR_%02d", i)
	}

	NewPrinter(&buf).PrintDrift(missing, "x.xlsx")

	assert.Contains(t, buf.String(), "... and 3 more")
	assert.NotContains(t, buf.String(), missing[len(missing)-1])
}

func TestPrintGenerated(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintGenerated(3, "Proposta_ACME.docx", "licitacao/proposta.docx")

	assert.Equal(t, "Generated (3): Proposta_ACME.docx (Template: licitacao/proposta.docx)\n", buf.String())
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSummary(2, 3, "documentos_gerados")

	assert.Contains(t, buf.String(), "2 of 3 documents generated in documentos_gerados")
}

func TestPrintDropped(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDropped(0, "NOME_DO_MODELO")
	assert.Empty(t, buf.String())

	p.PrintDropped(2, "NOME_DO_MODELO")
	assert.Contains(t, buf.String(), "2 record(s) without NOME_DO_MODELO skipped")
}

func TestPrintFailure(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintFailure("template not found", 4, "ACME", "x.docx", "no such file")

	output := buf.String()
	assert.Contains(t, output, "Row 4 (ACME)")
	assert.Contains(t, output, "template not found")
	assert.Contains(t, output, `"x.docx"`)
}

func TestPrintCollisions(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCollisions(nil, "overwrite")
	assert.Empty(t, buf.String())

	p.PrintCollisions([]string{"Proposta_ACME.docx"}, "overwrite")
	assert.Contains(t, buf.String(), "FILENAME COLLISIONS")
	assert.Contains(t, buf.String(), "Policy: overwrite")
}

func TestPrintBox_AlignsAccentedText(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintVariables("ação.docx", []string{"DESCRIÇÃO", "VALOR"})

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	for _, line := range lines {
		assert.Equal(t, boxWidth, len([]rune(line)), "line %q", line)
	}
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintStart(strings.Repeat("a", 200), "modelos")

	assert.Contains(t, buf.String(), "...")
	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)))
	}
}

func TestPrintVariables_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintVariables("t.docx", nil)
	assert.Contains(t, buf.String(), "(no variables)")
}

func TestNewPrinter_NilWriter(t *testing.T) {
	p := NewPrinter(nil)
	assert.NotPanics(t, func() { p.PrintEmpty() })
}

func TestPrintMissing(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintMissing([]string{"VALOR"}, "dados.xlsx")

	output := buf.String()
	assert.Contains(t, output, "MISSING COLUMNS")
	assert.Contains(t, output, "1 variable(s) have no column in dados.xlsx")
	assert.Contains(t, output, "• VALOR")
	assert.NotContains(t, output, "added")
}

func TestPrintRun(t *testing.T) {
	var buf bytes.Buffer
	run := &db.Run{
		ID:        uuid.MustParse("6f1c2a4e-9b7d-4c1e-8a53-2d6f0b9e7a10"),
		Status:    db.RunStatusHalted,
		Total:     4,
		CreatedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}

	NewPrinter(&buf).PrintRun(run, nil, []db.FailureRecord{{Row: 5, Kind: "render failure", Client: "ACME", Template: "t.docx", Detail: "bad tag"}})
	output := buf.String()

	assert.Contains(t, output, "RUN 6f1c2a4e-9b7d-4c1e-8a53-2d6f0b9e7a10")
	assert.Contains(t, output, "Status: halted ")
	assert.Contains(t, output, "Started: 2026-03-02T10:00:00Z")
	assert.NotContains(t, output, "Finished:")
	assert.Contains(t, output, "Generated: 0 of 4")
	assert.Contains(t, output, `❌ Row 5 (ACME): render failure for template "t.docx": bad tag`)
}
