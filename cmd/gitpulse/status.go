package main

import (
	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitpulse/internal/statistics"
)

var statusRepo string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show when a repository was last analyzed and how its last run went",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusRepo, "repo", "r", ".", "repository path")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	status, err := statistics.NewService(store).Status(ctx, statusRepo)
	if err != nil {
		return err
	}

	printer, err := newPrinter()
	if err != nil {
		return err
	}
	return printer.Print(status)
}
