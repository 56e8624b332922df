package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/testsupport"
)

// execute runs the root command with args and returns everything it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Commands keep their flag values in package variables.
	generateFlags = settingsFlags{}
	checkFlags = settingsFlags{}
	varsConfigPath = ""
	initConfigOut = "doc_generator.yaml"
	initConfigForce = false
	runsDatabaseURL = ""
	verbose = false

	// No ledger unless a test asks for one.
	for _, key := range databaseURLEnv {
		t.Setenv(key, "")
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

type workspace struct {
	data      string
	templates string
	out       string
}

// newWorkspace writes a dataset and a proposta.docx template under a temp dir.
func newWorkspace(t *testing.T, rows ...[]any) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{
		data:      filepath.Join(dir, "dados", "dados_documentos.xlsx"),
		templates: filepath.Join(dir, "modelos"),
		out:       filepath.Join(dir, "documentos_gerados"),
	}
	header := []any{"NOME_DO_MODELO", "CLIENTE", "DOCUMENTO", "NUMERO_PREGAO"}
	testsupport.WriteWorkbook(t, ws.data, "", append([][]any{header}, rows...))
	testsupport.WriteDocx(t, filepath.Join(ws.templates, "proposta.docx"),
		testsupport.Paragraph("{{ DOCUMENTO }} - {{ CLIENTE }}"))
	return ws
}

func (ws workspace) args(command string, extra ...string) []string {
	args := []string{command, "--data", ws.data, "--templates", ws.templates}
	if command == "generate" {
		args = append(args, "--out", ws.out)
	}
	return append(args, extra...)
}
