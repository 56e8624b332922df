package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/config"
)

// Environment variables consulted for the ledger database when neither the
// config file nor --db-url sets one.
var databaseURLEnv = []string{"DOCGEN_DATABASE_URL", "DATABASE_URL"}

// settingsFlags are the configuration overrides shared by generate and check.
type settingsFlags struct {
	configPath   string
	dataPath     string
	sheet        string
	templatesDir string
	outputDir    string
	sentinel     string
	onCollision  string
	databaseURL  string
}

func (f *settingsFlags) register(cmd *cobra.Command, withOutput bool) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Path to a JSON or YAML config file")
	cmd.Flags().StringVarP(&f.dataPath, "data", "d", "", "Path to the dataset workbook (.xlsx)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet name (default: first sheet)")
	cmd.Flags().StringVarP(&f.templatesDir, "templates", "t", "", "Templates directory")
	cmd.Flags().StringVar(&f.sentinel, "sentinel", "", "Marker for values not yet supplied (default \"N/A\")")
	if withOutput {
		cmd.Flags().StringVarP(&f.outputDir, "out", "o", "", "Output directory for generated documents")
		cmd.Flags().StringVar(&f.onCollision, "on-collision", "", "Repeated file names: overwrite or suffix (default \"overwrite\")")
		cmd.Flags().StringVar(&f.databaseURL, "db-url", "", "PostgreSQL URL of the provenance ledger (optional)")
	}
}

// resolve builds the run configuration: defaults, then the config file, then
// flags, then environment for the ledger URL. "verbose: true" in the config
// file turns on debug logging like --verbose does.
func (f *settingsFlags) resolve() (config.Config, error) {
	defaults := config.Defaults()
	cfg := defaults

	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded.MergeWithDefaults(defaults)
	}

	override := func(dst *string, value string) {
		if value != "" {
			*dst = value
		}
	}
	override(&cfg.DatasetPath, f.dataPath)
	override(&cfg.Sheet, f.sheet)
	override(&cfg.TemplatesDir, f.templatesDir)
	override(&cfg.OutputDir, f.outputDir)
	override(&cfg.Sentinel, f.sentinel)
	override(&cfg.OnCollision, f.onCollision)
	override(&cfg.DatabaseURL, f.databaseURL)

	for _, key := range databaseURLEnv {
		if cfg.DatabaseURL != "" {
			break
		}
		cfg.DatabaseURL = os.Getenv(key)
	}
	if verbose {
		cfg.Verbose = true
	}
	if cfg.Verbose {
		logLevel.SetLevel(zapcore.DebugLevel)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
