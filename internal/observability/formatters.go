// Package observability provides the operator-facing console output of a run.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/db"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 15
)

// Printer handles formatted console output for a generation run
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	if out == nil {
		out = io.Discard
	}
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads line to the box's inner width, counting runes so
// accented text stays aligned.
func pad(line string) string {
	width := boxWidth - 4
	n := utf8.RuneCountInString(line)
	if n > width {
		runes := []rune(line)
		return string(runes[:width-3]) + "..."
	}
	return line + strings.Repeat(" ", width-n)
}

// printf writes one unboxed line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// PrintStart announces a run over the given dataset and template tree.
func (p *Printer) PrintStart(datasetPath, templatesDir string) {
	p.printBox("DOCUMENT GENERATION",
		fmt.Sprintf("Dataset:   %s\nTemplates: %s", datasetPath, templatesDir))
}

// PrintDrift lists the template variables the dataset had no column for,
// after they were added to the workbook.
func (p *Printer) PrintDrift(missing []string, datasetPath string) {
	if len(missing) == 0 {
		return
	}
	content := fmt.Sprintf("%d new variable(s) found in templates:\n%s\nColumns added to %s",
		len(missing), bulletList(missing), datasetPath)
	p.printBox("SCHEMA DRIFT", content)
}

// PrintMissing lists the template variables the dataset has no column for,
// without implying anything was changed.
func (p *Printer) PrintMissing(missing []string, datasetPath string) {
	if len(missing) == 0 {
		return
	}
	content := fmt.Sprintf("%d variable(s) have no column in %s:\n%s",
		len(missing), datasetPath, strings.TrimSuffix(bulletList(missing), "\n"))
	p.printBox("MISSING COLUMNS", content)
}

// bulletList renders up to maxItemsToShow items, one per line.
func bulletList(items []string) string {
	var sb strings.Builder
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
	return sb.String()
}

// PrintHalt tells the operator the run stopped so new columns can be filled in.
func (p *Printer) PrintHalt(sentinel string) {
	p.printf("⏸  Fill in the new columns (currently %q) and run again. No documents were generated.", sentinel)
}

// PrintInSync reports that every template variable has a dataset column.
func (p *Printer) PrintInSync(templates, variables int) {
	p.printf("✅ Dataset in sync with %d template(s) (%d variable(s))", templates, variables)
}

// PrintDropped reports records skipped for having no template. Nothing is
// printed when none were dropped.
func (p *Printer) PrintDropped(n int, column string) {
	if n == 0 {
		return
	}
	p.printf("ℹ  %d record(s) without %s skipped", n, column)
}

// PrintEmpty warns that no record is left to render.
func (p *Printer) PrintEmpty() {
	p.printf("⚠  No records to generate")
}

// PrintGenerated reports one saved document.
func (p *Printer) PrintGenerated(n int, file, template string) {
	p.printf("Generated (%d): %s (Template: %s)", n, file, template)
}

// PrintFailure reports one record that could not be rendered.
func (p *Printer) PrintFailure(kind string, row int, client, template, detail string) {
	p.printf("❌ Row %d (%s): %s for template %q: %s", row, client, kind, template, detail)
}

// PrintCollisions lists generated names that were produced more than once.
func (p *Printer) PrintCollisions(names []string, policy string) {
	if len(names) == 0 {
		return
	}
	content := fmt.Sprintf("Policy: %s\n%s", policy, bulletList(names))
	p.printBox("FILENAME COLLISIONS", strings.TrimSuffix(content, "\n"))
}

// PrintSummary prints the final tally.
func (p *Printer) PrintSummary(generated, total int, outputDir string) {
	p.printBox("SUMMARY", fmt.Sprintf("%d of %d documents generated in %s", generated, total, outputDir))
}

// PrintVariables lists the variables of one template.
func (p *Printer) PrintVariables(template string, vars []string) {
	if len(vars) == 0 {
		p.printBox(template, "(no variables)")
		return
	}
	p.printBox(template, strings.Join(vars, "\n"))
}

// PrintRun shows a run recorded in the ledger, followed by its documents and
// skipped records.
func (p *Printer) PrintRun(run *db.Run, artifacts []db.ArtifactRecord, failures []db.FailureRecord) {
	var sb strings.Builder
	sb.WriteString("Status: " + run.Status)
	if run.Outcome != nil && *run.Outcome != "" {
		sb.WriteString(" (" + *run.Outcome + ")")
	}
	sb.WriteString("\nStarted: " + run.CreatedAt.Format(time.RFC3339))
	if run.CompletedAt != nil {
		sb.WriteString("\nFinished: " + run.CompletedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&sb, "\nDataset: %s\nTemplates: %s\nOutput: %s\nGenerated: %d of %d",
		run.DatasetPath, run.TemplatesDir, run.OutputDir, run.Generated, run.Total)
	p.printBox("RUN "+run.ID.String(), sb.String())

	for _, a := range artifacts {
		p.PrintGenerated(a.Counter, a.FileName, a.Template)
	}
	for _, f := range failures {
		p.PrintFailure(f.Kind, f.Row, f.Client, f.Template, f.Detail)
	}
}
