package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitpulse/internal/config"
	"github.com/rohankatakam/gitpulse/internal/logging"
	"github.com/rohankatakam/gitpulse/internal/output"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile      string
	verbose      bool
	outputFormat string
	logger       *logging.Logger
	cfg          *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(os.Stderr, err, verbose)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "gitpulse",
	Short: "gitpulse - daily activity statistics from git history",
	Long: `gitpulse ingests a repository's commit history one calendar day at a time,
stores per-author daily aggregates, and answers activity questions from them.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load config, using defaults: %v\n", err)
			cfg = config.Default()
		}

		level := cfg.Logging.Level
		if verbose {
			level = logrus.DebugLevel.String()
		}
		logger, err = logging.NewLogger(logging.Config{
			Level:      level,
			OutputFile: cfg.Logging.File,
			MaxSize:    int64(cfg.Logging.MaxSizeMB) * 1024 * 1024,
			JSONFormat: cfg.Logging.JSON,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .gitpulse/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "", "output format: table, json or yaml (default from config)")

	rootCmd.SetVersionTemplate(`gitpulse {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(liveCmd)
	rootCmd.AddCommand(configCmd)
}

// newPrinter builds a printer for stdout from the --format flag or config
func newPrinter() (*output.Printer, error) {
	name := outputFormat
	if name == "" {
		name = cfg.Output.Format
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(os.Stdout, format, output.ColorEnabled(cfg.Output.Color, os.Stdout)), nil
}
