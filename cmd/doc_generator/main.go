// Package main implements the doc_generator CLI, which fills .docx templates
// with the rows of a spreadsheet.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose  bool
	logger   *zap.Logger
	logLevel = zap.NewAtomicLevelAt(zapcore.WarnLevel)
)

var rootCmd = &cobra.Command{
	Use:   "doc_generator",
	Short: "Batch document generator",
	Long: `doc_generator merges the rows of a spreadsheet into .docx templates.

Every template declares placeholders such as {{ CLIENTE }}. Before rendering,
the spreadsheet is checked against the placeholders of every template; missing
columns are added (filled with the sentinel value) and the run stops so they
can be filled in. Otherwise one document is generated per row.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Encoding = "console"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		logLevel.SetLevel(zapcore.WarnLevel)
		if verbose {
			logLevel.SetLevel(zapcore.DebugLevel)
		}
		config.Level = logLevel
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug diagnostics to stderr")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// currentLogger returns the logger built for the running command, or a no-op
// logger when a command function is called directly.
func currentLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// commandContext returns the command's context, or a background context when
// the command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
