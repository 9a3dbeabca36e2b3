package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitpulse/internal/statistics"
)

var (
	statsRepo      string
	statsWindow    windowFlags
	statsExcludeAI bool
	statsAuthor    string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Query stored activity statistics",
	Long: `Stats answers questions from aggregates written by 'gitpulse ingest'. It never
runs git; days that were not ingested read as zero.

Examples:
  gitpulse stats day --day 2024-03-15
  gitpulse stats daily --days 7
  gitpulse stats authors --from 2024-03-01 --to 2024-03-31 --exclude-ai
  gitpulse stats ai --days 30 --format json`,
}

var statsDayCmd = &cobra.Command{
	Use:   "day",
	Short: "Totals for a single day",
	RunE: withStats(func(ctx context.Context, svc *statistics.Service, from, to time.Time) (interface{}, error) {
		return svc.DayTotals(ctx, statsRepo, to)
	}),
}

var statsDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Per-day totals over a window, zero-filled",
	RunE: withStats(func(ctx context.Context, svc *statistics.Service, from, to time.Time) (interface{}, error) {
		return svc.DailyBreakdown(ctx, statsRepo, from, to)
	}),
}

var statsPeriodCmd = &cobra.Command{
	Use:   "period",
	Short: "Totals over a window",
	RunE: withStats(func(ctx context.Context, svc *statistics.Service, from, to time.Time) (interface{}, error) {
		return svc.PeriodTotals(ctx, statsRepo, from, to, statsExcludeAI)
	}),
}

var statsAuthorsCmd = &cobra.Command{
	Use:   "authors",
	Short: "Per-author activity over a window, most active first",
	RunE: withStats(func(ctx context.Context, svc *statistics.Service, from, to time.Time) (interface{}, error) {
		return svc.AuthorBreakdown(ctx, statsRepo, from, to, statsExcludeAI)
	}),
}

var statsAICmd = &cobra.Command{
	Use:   "ai",
	Short: "Share of commits and lines with an AI co-author",
	Long: `Without --repo the figures cover every ingested repository. --author limits
them to commits whose primary author has that email.`,
	RunE: withStats(func(ctx context.Context, svc *statistics.Service, from, to time.Time) (interface{}, error) {
		return svc.AIAssistance(ctx, statistics.Scope{Repository: statsRepo, AuthorEmail: statsAuthor}, from, to)
	}),
}

func init() {
	statsCmd.PersistentFlags().StringVarP(&statsRepo, "repo", "r", ".", "repository path")
	statsWindow.register(statsCmd, true)

	statsPeriodCmd.Flags().BoolVar(&statsExcludeAI, "exclude-ai", false, "leave out AI-flagged authors")
	statsAuthorsCmd.Flags().BoolVar(&statsExcludeAI, "exclude-ai", false, "leave out AI-flagged authors")
	statsAICmd.Flags().StringVar(&statsAuthor, "author", "", "primary author email")
	// ai spans all repositories unless --repo is given
	statsAICmd.PreRun = func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("repo") {
			statsRepo = ""
		}
	}

	statsCmd.AddCommand(statsDayCmd)
	statsCmd.AddCommand(statsDailyCmd)
	statsCmd.AddCommand(statsPeriodCmd)
	statsCmd.AddCommand(statsAuthorsCmd)
	statsCmd.AddCommand(statsAICmd)
}

type statsQuery func(ctx context.Context, svc *statistics.Service, from, to time.Time) (interface{}, error)

// withStats opens the store, resolves the window and prints the query result
func withStats(query statsQuery) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		w, err := statsWindow.window(time.Now())
		if err != nil {
			return err
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := query(ctx, statistics.NewService(store), w.From, w.To)
		if err != nil {
			return err
		}

		printer, err := newPrinter()
		if err != nil {
			return err
		}
		return printer.Print(result)
	}
}
