package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitpulse/internal/errors"
	"github.com/rohankatakam/gitpulse/internal/ingestion"
	"github.com/rohankatakam/gitpulse/internal/models"
)

// windowFlags selects a day window as --day, --from/--to or --days
type windowFlags struct {
	day  string
	from string
	to   string
	days int
}

// register adds the flags to cmd, or to cmd and its subcommands when persistent
func (w *windowFlags) register(cmd *cobra.Command, persistent bool) {
	fs := cmd.Flags()
	if persistent {
		fs = cmd.PersistentFlags()
	}
	fs.StringVar(&w.day, "day", "", "single day (YYYY-MM-DD)")
	fs.StringVar(&w.from, "from", "", "first day of the window (YYYY-MM-DD)")
	fs.StringVar(&w.to, "to", "", "last day of the window (YYYY-MM-DD, default today)")
	fs.IntVar(&w.days, "days", 0, "the last N days, today included")
}

// window resolves the flags against today. With no flags set it is today only.
func (w *windowFlags) window(now time.Time) (ingestion.Window, error) {
	set := 0
	for _, s := range []bool{w.day != "", w.from != "" || w.to != "", w.days != 0} {
		if s {
			set++
		}
	}
	if set > 1 {
		return ingestion.Window{}, errors.ValidationError("use only one of --day, --from/--to or --days")
	}

	switch {
	case w.day != "":
		d, err := parseDay(w.day)
		if err != nil {
			return ingestion.Window{}, err
		}
		return ingestion.DayWindow(d), nil
	case w.from != "" || w.to != "":
		if w.from == "" {
			return ingestion.Window{}, errors.ValidationError("--to requires --from")
		}
		from, err := parseDay(w.from)
		if err != nil {
			return ingestion.Window{}, err
		}
		to := now
		if w.to != "" {
			if to, err = parseDay(w.to); err != nil {
				return ingestion.Window{}, err
			}
		}
		return ingestion.RangeWindow(from, to), nil
	case w.days != 0:
		if w.days < 1 {
			return ingestion.Window{}, errors.ValidationErrorf("--days must be at least 1, got %d", w.days)
		}
		return ingestion.RecentWindow(now, w.days), nil
	default:
		return ingestion.RecentWindow(now, 1), nil
	}
}

// parseDay reads a calendar day in the local time zone
func parseDay(s string) (time.Time, error) {
	d, err := time.ParseInLocation(models.DayLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, errors.ValidationErrorf("invalid day %q, want YYYY-MM-DD", s)
	}
	return d, nil
}
