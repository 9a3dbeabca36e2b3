package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitpulse/internal/errors"
	"github.com/rohankatakam/gitpulse/internal/git"
)

var (
	liveRepo string
	liveDay  string
	liveDays int
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Diff statistics straight from git, without the store",
	Long: `Live diffs HEAD's history directly. --days N compares the state before the
window with HEAD; --day D diffs the span of that day's commits. Nothing is
stored, and file counts are git's own figure for the whole range.`,
	RunE: runLive,
}

func init() {
	liveCmd.Flags().StringVarP(&liveRepo, "repo", "r", ".", "repository path")
	liveCmd.Flags().StringVar(&liveDay, "day", "", "single day (YYYY-MM-DD)")
	liveCmd.Flags().IntVar(&liveDays, "days", 1, "the last N days, today included")
}

func runLive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ref, err := git.Validate(liveRepo)
	if err != nil {
		return err
	}
	if err := git.LookupTool(cfg.Git.Binary); err != nil {
		return err
	}
	repo := git.Open(ref, git.WithBinary(cfg.Git.Binary), git.WithCommandTimeout(cfg.Git.CommandTimeout))

	var stat git.RangeStat
	if liveDay != "" {
		day, err := parseDay(liveDay)
		if err != nil {
			return err
		}
		stat, err = repo.DayStat(ctx, day)
		if err != nil {
			return err
		}
	} else {
		if liveDays < 1 {
			return errors.ValidationErrorf("--days must be at least 1, got %d", liveDays)
		}
		now := time.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		stat, err = repo.PeriodStat(ctx, today.AddDate(0, 0, -(liveDays-1)))
		if err != nil {
			return err
		}
	}

	printer, err := newPrinter()
	if err != nil {
		return err
	}
	return printer.Print(&stat)
}
