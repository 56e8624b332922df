// Package naming turns record fields into filesystem-safe filename tokens.
package naming

import (
	"fmt"
	"regexp"
	"strings"
)

// separatorRun matches any run of whitespace (including Unicode spaces) and underscores.
var separatorRun = regexp.MustCompile(`[[:space:]\p{Z}_]+`)

var pathHostile = strings.NewReplacer("/", "_", `\`, "_", ".", "_")

// Sanitize coerces v to text and makes it safe to embed in a filename:
// surrounding whitespace is trimmed, '/', '\' and '.' become '_', and every run
// of whitespace and/or underscores collapses to a single '_'.
// A nil value sanitizes to the empty string.
func Sanitize(v any) string {
	if v == nil {
		return ""
	}
	text := strings.TrimSpace(fmt.Sprint(v))
	text = pathHostile.Replace(text)
	return separatorRun.ReplaceAllString(text, "_")
}

// ArtifactName builds "<document>_<client>[_<secondary>]<ext>". Underscores
// meeting at a join collapse like they do inside a part.
// The secondary identifier is left out when its raw value is the sentinel or
// sanitizes to nothing; the comparison happens before sanitizing because the
// sentinel itself may contain path-hostile characters.
func ArtifactName(document, client, secondary, sentinel, ext string) string {
	parts := []string{Sanitize(document), Sanitize(client)}
	if strings.TrimSpace(secondary) != sentinel {
		if id := Sanitize(secondary); id != "" {
			parts = append(parts, id)
		}
	}
	return separatorRun.ReplaceAllString(strings.Join(parts, "_"), "_") + ext
}

// WithSuffix inserts "_<n>" before the extension of name.
func WithSuffix(name, ext string, n int) string {
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
}
