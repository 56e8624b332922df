// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/schemas"
)

// Collision policies for generated filenames that repeat within a run.
const (
	CollisionOverwrite = "overwrite"
	CollisionSuffix    = "suffix"
)

// DefaultReservedPrefixes are the name prefixes of templating control constructs
// that template variable discovery must not report as data placeholders.
var DefaultReservedPrefixes = []string{"tr", "for", "if", "block"}

// Config is the immutable configuration shared by every pipeline component.
// It is built once (defaults, then config file, then CLI flags) and passed by
// value; components never read process-wide settings.
type Config struct {
	// Paths
	DatasetPath  string `json:"dataset_path,omitempty" yaml:"dataset_path,omitempty" validate:"required"`   // Spreadsheet holding the records
	Sheet        string `json:"sheet,omitempty" yaml:"sheet,omitempty"`                                     // Worksheet name; empty means first sheet
	TemplatesDir string `json:"templates_dir,omitempty" yaml:"templates_dir,omitempty" validate:"required"` // Root of the template tree
	OutputDir    string `json:"output_dir,omitempty" yaml:"output_dir,omitempty" validate:"required"`       // Where generated documents go

	// Markers and extensions
	Sentinel          string `json:"sentinel,omitempty" yaml:"sentinel,omitempty" validate:"required"`
	TemplateExtension string `json:"template_extension,omitempty" yaml:"template_extension,omitempty" validate:"required,startswith=."`
	OutputExtension   string `json:"output_extension,omitempty" yaml:"output_extension,omitempty" validate:"required,startswith=."`

	// Columns
	TemplateColumn    string `json:"template_column,omitempty" yaml:"template_column,omitempty" validate:"required"` // Routing column
	ClientColumn      string `json:"client_column,omitempty" yaml:"client_column,omitempty" validate:"required"`
	DocumentColumn    string `json:"document_column,omitempty" yaml:"document_column,omitempty" validate:"required"`
	SecondaryIDColumn string `json:"secondary_id_column,omitempty" yaml:"secondary_id_column,omitempty" validate:"required"`

	// Behavior
	ReservedPrefixes []string `json:"reserved_prefixes,omitempty" yaml:"reserved_prefixes,omitempty" validate:"dive,required"`
	OnCollision      string   `json:"on_collision,omitempty" yaml:"on_collision,omitempty" validate:"omitempty,oneof=overwrite suffix"`
	DatabaseURL      string   `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL provenance ledger; empty disables it
	Verbose          bool     `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Defaults returns the stock configuration: a workbook at
// dados/dados_documentos.xlsx, templates under modelos/, output under
// documentos_gerados/ and "N/A" as the not-yet-supplied marker.
func Defaults() Config {
	return Config{
		DatasetPath:       filepath.Join("dados", "dados_documentos.xlsx"),
		TemplatesDir:      "modelos",
		OutputDir:         "documentos_gerados",
		Sentinel:          "N/A",
		TemplateExtension: ".docx",
		OutputExtension:   ".docx",
		TemplateColumn:    "NOME_DO_MODELO",
		ClientColumn:      "CLIENTE",
		DocumentColumn:    "DOCUMENTO",
		SecondaryIDColumn: "NUMERO_PREGAO",
		ReservedPrefixes:  append([]string(nil), DefaultReservedPrefixes...),
		OnCollision:       CollisionOverwrite,
	}
}

// LoadConfig loads configuration from a JSON or YAML file (chosen by extension).
// The raw document is checked against schemas.ConfigSchema before decoding.
// Returns an error if the file cannot be read, parsed or validated.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
		if err := schemas.ValidateDocument(schemas.ConfigSchema, raw); err != nil {
			return nil, fmt.Errorf("config file %s does not match schema: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if !json.Valid(data) {
			return nil, fmt.Errorf("failed to parse config JSON: invalid JSON in %s", path)
		}
		if err := schemas.ValidateJSONString(schemas.ConfigSchema, string(data)); err != nil {
			return nil, fmt.Errorf("config file %s does not match schema: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Save writes the configuration to path as JSON or YAML (chosen by extension).
func (c Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration has valid values.
// It runs after merging defaults, file and flags, so every required field must be set.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(validationErrors))
			for _, fe := range validationErrors {
				msgs = append(msgs, fmt.Sprintf("'%s' failed '%s'", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config error: %w", err)
	}

	columns := map[string]string{}
	for _, col := range []struct{ name, value string }{
		{"template_column", c.TemplateColumn},
		{"client_column", c.ClientColumn},
		{"document_column", c.DocumentColumn},
		{"secondary_id_column", c.SecondaryIDColumn},
	} {
		if other, dup := columns[col.value]; dup {
			return fmt.Errorf("config error: '%s' and '%s' name the same column %q", other, col.name, col.value)
		}
		columns[col.value] = col.name
	}

	return nil
}

// RequiredColumns lists the columns every dataset must carry, in check order.
func (c Config) RequiredColumns() []string {
	return []string{c.TemplateColumn, c.ClientColumn, c.DocumentColumn, c.SecondaryIDColumn}
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&result.DatasetPath, defaults.DatasetPath)
	fill(&result.Sheet, defaults.Sheet)
	fill(&result.TemplatesDir, defaults.TemplatesDir)
	fill(&result.OutputDir, defaults.OutputDir)
	fill(&result.Sentinel, defaults.Sentinel)
	fill(&result.TemplateExtension, defaults.TemplateExtension)
	fill(&result.OutputExtension, defaults.OutputExtension)
	fill(&result.TemplateColumn, defaults.TemplateColumn)
	fill(&result.ClientColumn, defaults.ClientColumn)
	fill(&result.DocumentColumn, defaults.DocumentColumn)
	fill(&result.SecondaryIDColumn, defaults.SecondaryIDColumn)
	fill(&result.OnCollision, defaults.OnCollision)
	fill(&result.DatabaseURL, defaults.DatabaseURL)

	if len(result.ReservedPrefixes) == 0 {
		result.ReservedPrefixes = append([]string(nil), defaults.ReservedPrefixes...)
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
