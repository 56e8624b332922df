package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/config"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/observability"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/templates"
)

var varsCmd = &cobra.Command{
	Use:   "vars <template.docx>...",
	Short: "List the placeholders a template requires",
	Long:  "Prints, for each template, the variables it reads from the dataset after dropping reserved control-construct names.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVars,
}

var varsConfigPath string

func init() {
	varsCmd.Flags().StringVarP(&varsConfigPath, "config", "c", "", "Path to a JSON or YAML config file (for reserved_prefixes)")
	rootCmd.AddCommand(varsCmd)
}

func runVars(cmd *cobra.Command, args []string) error {
	prefixes := config.DefaultReservedPrefixes
	if varsConfigPath != "" {
		loaded, err := config.LoadConfig(varsConfigPath)
		if err != nil {
			return err
		}
		prefixes = loaded.MergeWithDefaults(config.Defaults()).ReservedPrefixes
	}

	extractor := templates.NewExtractor(prefixes, currentLogger())
	printer := observability.NewPrinter(cmd.OutOrStdout())
	for _, path := range args {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("template file not found: %s", path)
		}
		printer.PrintVariables(path, extractor.Extract(path))
	}
	return nil
}
