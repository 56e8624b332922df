package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/dataset"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/observability"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/reconcile"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report template placeholders the dataset has no column for",
	Long: `Compares the placeholders of every template with the dataset columns and
lists the ones that are missing. Unlike generate, the dataset is not modified.

Exits with an error when columns are missing, so it can gate scripts.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var checkFlags settingsFlags

func init() {
	checkFlags.register(checkCmd, false)
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := checkFlags.resolve()
	if err != nil {
		return err
	}

	ds, err := dataset.Load(cfg.DatasetPath, cfg.Sheet)
	if err != nil {
		return err
	}

	reconciler := reconcile.New(reconcile.Options{
		Sentinel:          cfg.Sentinel,
		TemplateExtension: cfg.TemplateExtension,
		ReservedPrefixes:  cfg.ReservedPrefixes,
		Logger:            currentLogger(),
	})
	res, err := reconciler.Check(ds, cfg.TemplatesDir)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if res.Outcome == reconcile.Unchanged {
		printer.PrintInSync(len(res.Templates), len(res.Required))
		return nil
	}

	printer.PrintMissing(res.Missing, cfg.DatasetPath)
	return fmt.Errorf("%d template variable(s) have no column in %s", len(res.Missing), cfg.DatasetPath)
}
