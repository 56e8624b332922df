// Package records prepares dataset records for rendering.
package records

import (
	"fmt"
	"strings"
)

// SchemaValidationError represents a dataset missing columns every record needs
type SchemaValidationError struct {
	Missing []string
	Message string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema validation error: %s: %s", e.Message, strings.Join(e.Missing, ", "))
}
