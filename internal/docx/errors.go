// Package docx opens Word templates, reports the placeholders they read, renders
// them with pongo2 and saves the result.
package docx

import (
	"errors"
	"fmt"
	"io/fs"
)

// OpenError represents a failure to read a template file or its container
type OpenError struct {
	Path    string
	Message string
	Cause   error
}

func (e *OpenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("open error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("open error: %s", e.Message)
}

func (e *OpenError) Unwrap() error {
	return e.Cause
}

// NotFound reports whether the template file does not exist.
func (e *OpenError) NotFound() bool {
	return errors.Is(e.Cause, fs.ErrNotExist)
}

// TemplateError represents an error parsing or executing a template part
type TemplateError struct {
	Path    string
	Part    string // zip entry, e.g. word/document.xml
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s (%s): %v", e.Message, e.Part, e.Cause)
	}
	return fmt.Sprintf("template error: %s (%s)", e.Message, e.Part)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}
