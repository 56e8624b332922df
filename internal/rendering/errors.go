// Package rendering turns dataset records into generated documents.
package rendering

import "fmt"

// ErrorKind classifies a per-record rendering failure.
type ErrorKind int

const (
	// KindTemplateNotFound means the record's routing value names no template file.
	KindTemplateNotFound ErrorKind = iota + 1
	// KindRenderFailure covers template parse, execution and save failures.
	KindRenderFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindTemplateNotFound:
		return "template not found"
	case KindRenderFailure:
		return "render failure"
	default:
		return "unknown"
	}
}

// RenderError represents the failure of one record. The batch continues.
type RenderError struct {
	Kind     ErrorKind
	Row      int
	Client   string
	Template string // routing value as written in the dataset
	Message  string
	Cause    error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error: row %d: %s: %s: %v", e.Row, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("render error: row %d: %s: %s", e.Row, e.Kind, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Detail returns the message with its cause, without the row prefix.
func (e *RenderError) Detail() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}
