// Package reconcile keeps the dataset columns in step with the variables the
// templates require.
package reconcile

import "fmt"

// PersistError represents a failure writing the extended dataset back to disk
type PersistError struct {
	Path    string
	Missing []string
	Message string
	Cause   error
}

func (e *PersistError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("persist error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("persist error: %s", e.Message)
}

func (e *PersistError) Unwrap() error {
	return e.Cause
}

// ScanError represents a failure enumerating the template tree
type ScanError struct {
	Root    string
	Message string
	Cause   error
}

func (e *ScanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scan error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("scan error: %s", e.Message)
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}
