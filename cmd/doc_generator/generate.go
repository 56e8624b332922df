package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/pipeline"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one document per spreadsheet row",
	Long: `Loads the dataset, checks its columns against every template, and renders
one document per row that names a template.

When templates use placeholders the dataset has no column for, the columns are
added (filled with the sentinel), the workbook is saved, and the run stops
without generating anything. Fill in the new columns and run again.

Rows whose template column holds the sentinel are skipped. A row that fails to
render is reported and skipped; the remaining rows are still generated.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var generateFlags settingsFlags

func init() {
	generateFlags.register(generateCmd, true)
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := generateFlags.resolve()
	if err != nil {
		return err
	}

	log := currentLogger()
	res, err := pipeline.Run(commandContext(cmd), cfg, pipeline.RunOptions{
		Out:    cmd.OutOrStdout(),
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	log.Debug("run finished",
		zap.String("run_id", res.RunID.String()),
		zap.Stringer("outcome", res.Outcome),
		zap.Bool("halted", res.Halted()))
	return nil
}
