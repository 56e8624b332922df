package docx

import (
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var tagPattern = regexp.MustCompile(`(?s)\{\{(.*?)\}\}|\{%(.*?)%\}`)

// keywords never name context variables.
var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true, "if": true, "else": true,
	"true": true, "false": true, "none": true, "True": true, "False": true, "None": true,
}

// builtins are names the engine provides inside templates.
var builtins = map[string]bool{"forloop": true, "loop": true}

// expressionTags are statements whose arguments are plain expressions.
var expressionTags = map[string]bool{
	"if": true, "elif": true, "ifequal": true, "ifnotequal": true,
	"firstof": true, "cycle": true, "ifchanged": true,
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokPunct
	tokSpace
)

type token struct {
	kind tokenKind
	text string
}

// collectNames adds to undeclared every name a tag of xml reads that is not
// bound at that point. Loop, with and macro bindings last until their end tag;
// set binds for the rest of the enclosing block.
func collectNames(xml string, undeclared map[string]bool) {
	s := &scope{frames: []map[string]bool{{}}}
	for _, m := range tagPattern.FindAllStringSubmatch(xml, -1) {
		if strings.HasPrefix(m[0], "{{") {
			s.read(readNames(tokenize(m[1])), undeclared)
			continue
		}
		collectStatement(tokenize(m[2]), s, undeclared)
	}
}

type scope struct {
	frames []map[string]bool
}

func (s *scope) bound(name string) bool {
	for _, f := range s.frames {
		if f[name] {
			return true
		}
	}
	return false
}

func (s *scope) read(names []string, undeclared map[string]bool) {
	for _, name := range names {
		if !builtins[name] && !s.bound(name) {
			undeclared[name] = true
		}
	}
}

func (s *scope) bind(names ...string) {
	for _, name := range names {
		s.frames[len(s.frames)-1][name] = true
	}
}

func (s *scope) push(names ...string) {
	s.frames = append(s.frames, map[string]bool{})
	s.bind(names...)
}

// pop ignores unbalanced end tags; pongo2 rejects them at render time.
func (s *scope) pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

func collectStatement(toks []token, s *scope, undeclared map[string]bool) {
	if len(toks) == 0 || toks[0].kind != tokIdent {
		return
	}
	// An unexpanded scoped tag ({%tr for ...%} outside a table row) still
	// declares what the statement behind the scope prefix reads.
	for _, el := range scopedElements {
		if toks[0].text == el && len(toks) > 1 {
			toks = toks[1:]
			break
		}
	}

	switch name := toks[0].text; {
	case name == "for":
		in := indexIdent(toks, "in")
		if in < 0 {
			return
		}
		rest := toks[in+1:]
		for len(rest) > 0 {
			last := rest[len(rest)-1]
			if last.kind != tokIdent || (last.text != "reversed" && last.text != "sorted") {
				break
			}
			rest = rest[:len(rest)-1]
		}
		s.read(readNames(rest), undeclared)
		s.push(identTexts(toks[1:in])...)
	case name == "set":
		if eq := indexPunct(toks, "="); eq >= 0 {
			s.read(readNames(toks[eq+1:]), undeclared)
		}
		if len(toks) > 1 && toks[1].kind == tokIdent {
			s.bind(toks[1].text)
		}
	case name == "with":
		reads, binds := splitWith(toks[1:])
		s.read(reads, undeclared)
		s.push(binds...)
	case name == "macro":
		params := identTexts(toks[1:])
		if len(params) > 0 {
			s.bind(params[0])
		}
		s.push(params...)
	case name == "endfor" || name == "endwith" || name == "endmacro":
		s.pop()
	case expressionTags[name]:
		s.read(readNames(toks[1:]), undeclared)
	}
}

// splitWith handles both "with total=a.b" and "with a.b as total", returning
// the names the values read and the names the block binds.
func splitWith(toks []token) (reads, binds []string) {
	var value []token
	flush := func() {
		reads = append(reads, readNames(value)...)
		value = nil
	}
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch {
		case tok.kind == tokIdent && i+1 < len(toks) && isPunct(toks[i+1], "="):
			flush()
			binds = append(binds, tok.text)
			i++
		case tok.kind == tokIdent && tok.text == "as" && i+1 < len(toks):
			flush()
			binds = append(binds, toks[i+1].text)
			i++
		default:
			value = append(value, tok)
		}
	}
	flush()
	return reads, binds
}

// readNames returns the identifiers of an expression that refer to context
// variables: not attributes (after "."), filter names (after "|"), keyword
// arguments (before a single "="), function names (before "(") or keywords.
func readNames(toks []token) []string {
	var names []string
	for i, tok := range toks {
		if tok.kind != tokIdent || keywords[tok.text] {
			continue
		}
		if i > 0 && (isPunct(toks[i-1], ".") || isPunct(toks[i-1], "|")) {
			continue
		}
		if i+1 < len(toks) {
			next := toks[i+1]
			if isPunct(next, "(") {
				continue
			}
			if isPunct(next, "=") && !(i+2 < len(toks) && isPunct(toks[i+2], "=")) {
				continue
			}
		}
		names = append(names, tok.text)
	}
	return names
}

// aliasIdentifiers rewrites every identifier with non-ASCII letters inside the
// tags of xml to an ASCII name pongo2 can parse, recording original -> alias in
// aliases. String literals and text outside tags are left as they are.
func aliasIdentifiers(xml string, aliases map[string]string) string {
	return tagPattern.ReplaceAllStringFunc(xml, func(tag string) string {
		var b strings.Builder
		b.Grow(len(tag))
		for _, tok := range lex(tag) {
			if tok.kind == tokIdent && !isASCII(tok.text) {
				alias, ok := aliases[tok.text]
				if !ok {
					alias = "u_" + hex.EncodeToString([]byte(tok.text))
					aliases[tok.text] = alias
				}
				b.WriteString(alias)
				continue
			}
			b.WriteString(tok.text)
		}
		return b.String()
	})
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func tokenize(expr string) []token {
	var toks []token
	for _, tok := range lex(expr) {
		if tok.kind != tokSpace {
			toks = append(toks, tok)
		}
	}
	return toks
}

// lex splits expr into tokens, keeping whitespace, so the tokens concatenate
// back to expr.
func lex(expr string) []token {
	var toks []token
	runes := []rune(expr)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			toks = append(toks, token{kind: tokSpace, text: string(runes[i:j])})
			i = j
		case r == '"' || r == '\'':
			j := i + 1
			for j < len(runes) && runes[j] != r {
				if runes[j] == '\\' {
					j++
				}
				j++
			}
			end := min(j+1, len(runes))
			toks = append(toks, token{kind: tokString, text: string(runes[i:end])})
			i = end
		case unicode.IsDigit(r):
			j := i + 1
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			toks = append(toks, token{kind: tokNumber, text: string(runes[i:j])})
			i = j
		case r == '_' || unicode.IsLetter(r):
			j := i + 1
			for j < len(runes) && (runes[j] == '_' || unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j])) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[i:j])})
			i = j
		default:
			toks = append(toks, token{kind: tokPunct, text: string(r)})
			i++
		}
	}
	return toks
}

func identTexts(toks []token) []string {
	var names []string
	for _, tok := range toks {
		if tok.kind == tokIdent {
			names = append(names, tok.text)
		}
	}
	return names
}

func isPunct(tok token, text string) bool {
	return tok.kind == tokPunct && tok.text == text
}

func indexIdent(toks []token, text string) int {
	for i, tok := range toks {
		if tok.kind == tokIdent && tok.text == text {
			return i
		}
	}
	return -1
}

func indexPunct(toks []token, text string) int {
	for i, tok := range toks {
		if isPunct(tok, text) {
			return i
		}
	}
	return -1
}
