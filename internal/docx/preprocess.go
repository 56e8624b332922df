package docx

import (
	"html"
	"regexp"
	"strings"
)

// Word splits text into runs wherever formatting or spell-check state changes,
// so a placeholder typed as "{{ CLIENTE }}" can reach the XML as several
// <w:t> fragments. preprocess rewrites a part so every template tag is one
// contiguous string again.

var (
	// "{" <tags> "{" (or "%", "#") and the mirrored closing case.
	splitOpen  = regexp.MustCompile(`\{(?:<[^>]*>)+([{%#])`)
	splitClose = regexp.MustCompile(`([%}#])(?:<[^>]*>)+\}`)

	// A run boundary inside a tag: end of one text node up to the start of the next.
	runBoundary = regexp.MustCompile(`(?s)</w:t>.*?(?:<w:t>|<w:t [^>]*>)`)
)

var tagClosers = map[byte]string{'{': "}}", '%': "%}", '#': "#}"}

// scopedElements are the Word elements a tag can replace when written as
// {%p ...%}, {%tr ...%}, {%tc ...%} or {%r ...%} ({{p ...}} etc. for output tags).
var scopedElements = []string{"tr", "tc", "p", "r"}

func preprocess(xml string) string {
	xml = splitOpen.ReplaceAllString(xml, "{$1")
	xml = splitClose.ReplaceAllString(xml, "$1}")
	xml = joinTags(xml)
	for _, el := range scopedElements {
		xml = expandScoped(xml, el)
	}
	return xml
}

// joinTags removes run boundaries inside every {{ }}, {% %} and {# #} tag and
// unescapes XML entities there, so expressions such as {% if a > b %} parse.
func joinTags(xml string) string {
	var b strings.Builder
	b.Grow(len(xml))

	i := 0
	for {
		start := nextTagStart(xml, i)
		if start < 0 {
			b.WriteString(xml[i:])
			break
		}
		closer := tagClosers[xml[start+1]]
		end := strings.Index(xml[start+2:], closer)
		if end < 0 {
			b.WriteString(xml[i:])
			break
		}
		end = start + 2 + end + len(closer)

		b.WriteString(xml[i:start])
		tag := runBoundary.ReplaceAllString(xml[start:end], "")
		b.WriteString(html.UnescapeString(tag))
		i = end
	}
	return b.String()
}

func nextTagStart(s string, from int) int {
	for i := from; i+1 < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		if _, ok := tagClosers[s[i+1]]; ok {
			return i
		}
	}
	return -1
}

// expandScoped replaces the innermost <w:el> element enclosing a scoped tag
// with the plain tag, so {%tr for x in items %} repeats whole table rows.
// Tags with no enclosing element are left untouched and fail at parse time.
func expandScoped(xml, el string) string {
	openTag := "<w:" + el
	closeTag := "</w:" + el + ">"

	for _, opener := range []string{"{%" + el + " ", "{{" + el + " "} {
		closer := "%}"
		if strings.HasPrefix(opener, "{{") {
			closer = "}}"
		}

		from := 0
		for {
			rel := strings.Index(xml[from:], opener)
			if rel < 0 {
				break
			}
			i := from + rel

			c := strings.Index(xml[i:], closer)
			if c < 0 {
				break
			}
			tagEnd := i + c + len(closer)

			start := lastElementStart(xml[:i], openTag)
			endRel := strings.Index(xml[tagEnd:], closeTag)
			if start < 0 || endRel < 0 {
				from = tagEnd
				continue
			}
			end := tagEnd + endRel + len(closeTag)

			plain := opener[:2] + xml[i+len(opener)-1:tagEnd]
			xml = xml[:start] + plain + xml[end:]
			from = start + len(plain)
		}
	}
	return xml
}

// lastElementStart finds the last "<w:el>" or "<w:el ..." in s, ignoring longer
// names that share the prefix (w:p vs w:pPr).
func lastElementStart(s, openTag string) int {
	best := -1
	for _, candidate := range []string{openTag + ">", openTag + " "} {
		if idx := strings.LastIndex(s, candidate); idx > best {
			best = idx
		}
	}
	return best
}
