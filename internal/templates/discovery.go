// Package templates finds document templates and the data placeholders they require.
package templates

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// lockPrefix marks the owner files Word keeps next to an open document.
const lockPrefix = "~$"

// Discover returns every file under root with extension ext, recursively and
// sorted, as paths joined with root. Word lock files are skipped.
// A missing root is an error; an empty one is not.
func Discover(root, ext string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("templates path %s is not a directory", root)
	}

	pattern := "**/*" + ext
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, fmt.Errorf("failed to scan templates directory %s: %w", root, err)
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.HasPrefix(path.Base(m), lockPrefix) {
			continue
		}
		paths = append(paths, filepath.Join(root, filepath.FromSlash(m)))
	}
	sort.Strings(paths)
	return paths, nil
}
