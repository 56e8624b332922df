package naming

import (
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"empty", "", ""},
		{"nil", nil, ""},
		{"plain", "Proposta", "Proposta"},
		{"spaces", "ACME Ltda", "ACME_Ltda"},
		{"trim", "  ACME Ltda \t", "ACME_Ltda"},
		{"slash", "001/2024", "001_2024"},
		{"backslash", `a\b`, "a_b"},
		{"dots", "A.C.M.E.", "A_C_M_E_"},
		{"mixed run", "a _ . /b", "a_b"},
		{"underscores", "a___b", "a_b"},
		{"non-breaking space", "ACME\u00a0Ltda", "ACME_Ltda"},
		{"sentinel", "N/A", "N_A"},
		{"integer", 42, "42"},
		{"float", 3.5, "3_5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_Properties(t *testing.T) {
	property := func(s string) bool {
		out := Sanitize(s)
		if strings.ContainsAny(out, `/\.`) {
			return false
		}
		if strings.Contains(out, "__") {
			return false
		}
		return Sanitize(out) == out
	}

	assert.NoError(t, quick.Check(property, &quick.Config{MaxCount: 2000}))

	for _, s := range []string{" ._x", "__", "a/./b", "\t.\n", "x. y_ .z", "…/…"} {
		assert.True(t, property(s), "property failed for %q", s)
	}
}

func TestArtifactName(t *testing.T) {
	tests := []struct {
		name      string
		document  string
		client    string
		secondary string
		want      string
	}{
		{"without secondary id", "Proposta", "ACME Ltda", "N/A", "Proposta_ACME_Ltda.docx"},
		{"with secondary id", "Proposta", "ACME Ltda", "001/2024", "Proposta_ACME_Ltda_001_2024.docx"},
		{"sentinel with padding", "Proposta", "ACME Ltda", " N/A ", "Proposta_ACME_Ltda.docx"},
		{"blank secondary id", "Proposta", "ACME Ltda", "  ", "Proposta_ACME_Ltda.docx"},
		{"labels with dots", "Decl. Habilitação", "ACME S.A.", "N/A", "Decl_Habilitação_ACME_S_A_.docx"},
		{"underscore at join", "_Proposta_", "ACME", "N/A", "_Proposta_ACME.docx"},
		{"dot before secondary id", "Proposta", "ACME S.A.", "001", "Proposta_ACME_S_A_001.docx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ArtifactName(tt.document, tt.client, tt.secondary, "N/A", ".docx"))
		})
	}
}

func TestArtifactName_NoDoubleUnderscores(t *testing.T) {
	property := func(document, client, secondary string) bool {
		return !strings.Contains(ArtifactName(document, client, secondary, "N/A", ".docx"), "__")
	}
	assert.NoError(t, quick.Check(property, &quick.Config{MaxCount: 1000}))
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "Proposta_ACME_3.docx", WithSuffix("Proposta_ACME.docx", ".docx", 3))
}
