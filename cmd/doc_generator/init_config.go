package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bcmmarra/AutomatizadorDocumentos/internal/config"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a config file with the default settings",
	Long:  "Writes the default configuration to --out as JSON or YAML, chosen by the file extension. An existing file is kept unless --force is given.",
	Args:  cobra.NoArgs,
	RunE:  runInitConfig,
}

var (
	initConfigOut   string
	initConfigForce bool
)

func init() {
	initConfigCmd.Flags().StringVarP(&initConfigOut, "out", "o", "doc_generator.yaml", "Path of the config file to write (.json, .yaml or .yml)")
	initConfigCmd.Flags().BoolVarP(&initConfigForce, "force", "f", false, "Overwrite an existing file")
	rootCmd.AddCommand(initConfigCmd)
}

func runInitConfig(cmd *cobra.Command, _ []string) error {
	if _, err := os.Stat(initConfigOut); err == nil && !initConfigForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", initConfigOut)
	}

	if err := config.Defaults().Save(initConfigOut); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", initConfigOut)
	return nil
}
