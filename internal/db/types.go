package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusHalted    = "halted"
	RunStatusFailed    = "failed"
)

// Run represents a generation run record
type Run struct {
	ID           uuid.UUID  `json:"id"`
	DatasetPath  string     `json:"dataset_path"`
	TemplatesDir string     `json:"templates_dir"`
	OutputDir    string     `json:"output_dir"`
	Status       string     `json:"status"`
	Outcome      *string    `json:"outcome,omitempty"`
	Generated    int        `json:"generated"`
	Total        int        `json:"total"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ArtifactRecord is one generated document of a run
type ArtifactRecord struct {
	Counter   int       `json:"counter"`
	Row       int       `json:"row"`
	FileName  string    `json:"file_name"`
	FilePath  string    `json:"file_path"`
	Template  string    `json:"template"`
	CreatedAt time.Time `json:"created_at"`
}

// FailureRecord is one skipped record of a run
type FailureRecord struct {
	Row       int       `json:"row"`
	Kind      string    `json:"kind"`
	Client    string    `json:"client"`
	Template  string    `json:"template"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}
