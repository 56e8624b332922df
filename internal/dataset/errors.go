// Package dataset loads and persists the spreadsheet that feeds document generation.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
)

// LoadError represents an error opening or reading the dataset workbook
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("load error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("load error: %s", e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// NotFound reports whether the dataset file does not exist.
func (e *LoadError) NotFound() bool {
	return errors.Is(e.Cause, fs.ErrNotExist)
}

// SaveError represents an error writing the dataset back to its workbook
type SaveError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SaveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("save error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("save error: %s", e.Message)
}

func (e *SaveError) Unwrap() error {
	return e.Cause
}
