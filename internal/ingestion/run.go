package ingestion

import (
	"time"

	"github.com/rohankatakam/gitpulse/internal/errors"
	"github.com/rohankatakam/gitpulse/internal/models"
)

// Run kinds recorded on AnalysisRun.Kind
const (
	KindDay    = "day"
	KindRange  = "range"
	KindRecent = "recent"
)

// Window is an inclusive span of calendar days
type Window struct {
	From time.Time
	To   time.Time
	Kind string
}

// DayWindow covers a single day
func DayWindow(day time.Time) Window {
	d := truncateDay(day)
	return Window{From: d, To: d, Kind: KindDay}
}

// RangeWindow covers from through to, both inclusive
func RangeWindow(from, to time.Time) Window {
	return Window{From: truncateDay(from), To: truncateDay(to), Kind: KindRange}
}

// RecentWindow covers the n days ending today, today being day 0
func RecentWindow(now time.Time, n int) Window {
	today := truncateDay(now)
	return Window{From: today.AddDate(0, 0, -(n - 1)), To: today, Kind: KindRecent}
}

// Days lists each day of the window in order
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := w.From; !d.After(w.To); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (w Window) validate() error {
	if w.From.IsZero() || w.To.IsZero() {
		return errors.ValidationError("date window is not set")
	}
	if w.From.After(w.To) {
		return errors.ValidationErrorf("window start %s is after end %s",
			w.From.Format(models.DayLayout), w.To.Format(models.DayLayout))
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayStatus is the outcome of one day within a run
type DayStatus string

const (
	DaySucceeded DayStatus = "succeeded"
	DayFailed    DayStatus = "failed"
)

// DayOutcome reports what happened to one day
type DayOutcome struct {
	Day             string        `json:"day" yaml:"day"`
	Status          DayStatus     `json:"status" yaml:"status"`
	CommitsSeen     int           `json:"commits_seen" yaml:"commits_seen"`
	CommitsIngested int           `json:"commits_ingested" yaml:"commits_ingested"`
	CommitsSkipped  int           `json:"commits_skipped" yaml:"commits_skipped"`
	Error           string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration        time.Duration `json:"duration" yaml:"duration"`

	err error
}

// Err returns the error that failed the day, if any
func (o DayOutcome) Err() error {
	return o.err
}

// RunReport is the result of one ingestion run. Callers that need every day
// to have succeeded must check the per-day outcomes.
type RunReport struct {
	RunID        string           `json:"run_id" yaml:"run_id"`
	Repository   string           `json:"repository" yaml:"repository"`
	RepositoryID int64            `json:"repository_id" yaml:"repository_id"`
	Kind         string           `json:"kind" yaml:"kind"`
	From         string           `json:"from" yaml:"from"`
	To           string           `json:"to" yaml:"to"`
	Status       models.RunStatus `json:"status" yaml:"status"`
	Advisory     string           `json:"advisory,omitempty" yaml:"advisory,omitempty"`
	Error        string           `json:"error,omitempty" yaml:"error,omitempty"`
	Days         []DayOutcome     `json:"days" yaml:"days"`
	Duration     time.Duration    `json:"duration" yaml:"duration"`
}

// AllDaysSucceeded reports whether the run completed with no failed day
func (r *RunReport) AllDaysSucceeded() bool {
	if r.Status != models.RunStatusCompleted {
		return false
	}
	for _, d := range r.Days {
		if d.Status != DaySucceeded {
			return false
		}
	}
	return true
}

// FailedDays returns the outcomes of days that did not succeed
func (r *RunReport) FailedDays() []DayOutcome {
	var failed []DayOutcome
	for _, d := range r.Days {
		if d.Status == DayFailed {
			failed = append(failed, d)
		}
	}
	return failed
}

// Totals sums commit counters across days
func (r *RunReport) Totals() (ingested, skipped int) {
	for _, d := range r.Days {
		ingested += d.CommitsIngested
		skipped += d.CommitsSkipped
	}
	return ingested, skipped
}
