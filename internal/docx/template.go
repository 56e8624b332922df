package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"

	"github.com/flosch/pongo2/v6"
)

const mainPart = "word/document.xml"

// templatedPart matches the zip entries that can hold placeholders.
var templatedPart = regexp.MustCompile(`^word/(document|header[0-9]*|footer[0-9]*|footnotes|endnotes)\.xml$`)

// contextKey matches the names pongo2 accepts in a render context.
var contextKey = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Template is a .docx file loaded in memory. Placeholders use the pongo2
// (Django/Jinja) syntax: {{ NAME }}, {% if %}, {% for %}, plus the scoped
// {%p %}, {%tr %}, {%tc %} and {%r %} forms that replace their enclosing
// paragraph, table row, table cell or run.
type Template struct {
	path     string
	archive  *zip.Reader
	parts    map[string]string // preprocessed XML keyed by entry name
	sources  map[string]string // parts with identifiers pongo2 can parse
	aliases  map[string]string // non-ASCII identifier -> its name in sources
	rendered map[string]string
}

// Open reads the template at path.
func Open(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &OpenError{Path: path, Message: fmt.Sprintf("template file not found: %s", path), Cause: err}
		}
		return nil, &OpenError{Path: path, Message: fmt.Sprintf("failed to read template file: %s", path), Cause: err}
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &OpenError{Path: path, Message: fmt.Sprintf("not a .docx document: %s", path), Cause: err}
	}

	t := &Template{
		path:    path,
		archive: archive,
		parts:   make(map[string]string),
		sources: make(map[string]string),
		aliases: make(map[string]string),
	}
	for _, f := range archive.File {
		if !templatedPart.MatchString(f.Name) {
			continue
		}
		content, err := readEntry(f)
		if err != nil {
			return nil, &OpenError{Path: path, Message: fmt.Sprintf("failed to read %s", f.Name), Cause: err}
		}
		t.parts[f.Name] = preprocess(content)
		t.sources[f.Name] = aliasIdentifiers(t.parts[f.Name], t.aliases)
	}
	if _, ok := t.parts[mainPart]; !ok {
		return nil, &OpenError{Path: path, Message: fmt.Sprintf("not a .docx document: %s has no %s", path, mainPart)}
	}

	return t, nil
}

// Path returns the file the template was loaded from.
func (t *Template) Path() string {
	return t.path
}

// UndeclaredVariables returns, sorted, every top-level name the template reads
// from its render context. Builtins and names the template binds itself are
// excluded while the binding is in effect: a loop variable read after its
// endfor counts as undeclared.
func (t *Template) UndeclaredVariables() []string {
	undeclared := map[string]bool{}
	for _, name := range t.partNames() {
		collectNames(t.parts[name], undeclared)
	}

	vars := make([]string, 0, len(undeclared))
	for name := range undeclared {
		vars = append(vars, name)
	}
	sort.Strings(vars)
	return vars
}

// Render executes every templated part with ctx. Values are XML-escaped on
// output. Render can be called again with another context. Keys with accented
// letters, such as ENDEREÇO, match the placeholders spelled the same way.
func (t *Template) Render(ctx map[string]string) error {
	pctx := make(pongo2.Context, len(ctx))
	for k, v := range ctx {
		if alias, ok := t.aliases[k]; ok {
			k = alias
		}
		// pongo2 rejects the whole context over one key it cannot parse.
		if !contextKey.MatchString(k) {
			continue
		}
		pctx[k] = v
	}

	rendered := make(map[string]string, len(t.parts))
	for _, name := range t.partNames() {
		tpl, err := pongo2.FromString(t.sources[name])
		if err != nil {
			return &TemplateError{Path: t.path, Part: name, Message: "failed to parse template", Cause: err}
		}
		out, err := tpl.Execute(pctx)
		if err != nil {
			return &TemplateError{Path: t.path, Part: name, Message: "failed to execute template", Cause: err}
		}
		rendered[name] = out
	}

	t.rendered = rendered
	return nil
}

// Save writes the document to path. Rendered parts replace their originals;
// every other entry is copied byte for byte in the original order. Saving an
// unrendered template writes the original document.
func (t *Template) Save(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := t.write(out); err != nil {
		_ = out.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func (t *Template) write(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, f := range t.archive.File {
		content, ok := t.rendered[f.Name]
		if !ok {
			if err := zw.Copy(f); err != nil {
				return err
			}
			continue
		}
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			return err
		}
		if _, err := io.WriteString(entry, content); err != nil {
			return err
		}
	}
	return zw.Close()
}

func (t *Template) partNames() []string {
	names := make([]string, 0, len(t.parts))
	for name := range t.parts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func readEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	content, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
