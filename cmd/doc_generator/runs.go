package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/db"
	"github.com/bcmmarra/AutomatizadorDocumentos/internal/observability"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect runs recorded in the provenance ledger",
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a recorded run with its documents and skipped records",
	Long: `Reads one run from the provenance ledger. The database URL comes from
--db-url, DOCGEN_DATABASE_URL or DATABASE_URL.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsShow,
}

var runsDatabaseURL string

// runReader is the part of the ledger runs show reads.
type runReader interface {
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	ListArtifacts(ctx context.Context, runID uuid.UUID) ([]db.ArtifactRecord, error)
	ListFailures(ctx context.Context, runID uuid.UUID) ([]db.FailureRecord, error)
	Close()
}

var openRunReader = func(ctx context.Context, databaseURL string) (runReader, error) {
	return db.Connect(ctx, databaseURL)
}

func init() {
	runsShowCmd.Flags().StringVar(&runsDatabaseURL, "db-url", "", "PostgreSQL URL of the provenance ledger")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	runID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid run ID %q: %w", args[0], err)
	}

	databaseURL := runsDatabaseURL
	for _, key := range databaseURLEnv {
		if databaseURL != "" {
			break
		}
		databaseURL = os.Getenv(key)
	}
	if databaseURL == "" {
		return fmt.Errorf("no ledger database configured (set --db-url or %s)", databaseURLEnv[0])
	}

	ctx := commandContext(cmd)
	reader, err := openRunReader(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer reader.Close()

	run, err := reader.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}
	artifacts, err := reader.ListArtifacts(ctx, runID)
	if err != nil {
		return err
	}
	failures, err := reader.ListFailures(ctx, runID)
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintRun(run, artifacts, failures)
	return nil
}
