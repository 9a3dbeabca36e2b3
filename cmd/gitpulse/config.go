package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitpulse/internal/config"
	"github.com/rohankatakam/gitpulse/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage gitpulse configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		format := output.FormatYAML
		if outputFormat == string(output.FormatJSON) {
			format = output.FormatJSON
		}
		return output.NewPrinter(os.Stdout, format, false).Print(cfg)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := config.DetectMode()
		result := cfg.ValidateWithMode(mode)
		if result.HasErrors() {
			fmt.Print(result.Error())
			fmt.Printf("\nDeployment mode: %s (%s)\n", mode, mode.Description())
			return result.Err()
		}
		for _, warn := range result.Warnings {
			fmt.Printf("Warning: %s\n", warn)
		}
		fmt.Printf("Configuration is valid (mode: %s)\n", mode)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the effective configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ".gitpulse/config.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)
}
