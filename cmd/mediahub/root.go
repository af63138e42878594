package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mediahub/internal/config"
	"mediahub/internal/format"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var jsonOutput bool
	var yamlOutput bool
	var logLevel string

	cmd := &cobra.Command{
		Use:           "mediahub",
		Short:         "Mediahub stores uploaded media and derives resized images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			warning, err := configureLoggerForCLI(logLevel, cfg.LogLevel)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(os.Stderr, warning)
			}
			if jsonOutput && yamlOutput {
				return fmt.Errorf("--json and --yaml are mutually exclusive")
			}
			if yamlOutput {
				outputFormatter = format.YAMLFormatter{}
				jsonOutput = true
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().BoolVar(&yamlOutput, "yaml", false, "output YAML")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newIngestCmd(cfg, &jsonOutput),
		newCropCmd(cfg, &jsonOutput),
		newShowCmd(cfg, &jsonOutput),
		newOptionCmd(cfg, &jsonOutput),
		newConfigCmd(cfg, &jsonOutput),
		newMigrateCmd(cfg, &jsonOutput),
		newInfoCmd(cfg, &jsonOutput),
	)

	return cmd
}
