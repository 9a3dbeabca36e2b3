package statistics

import (
	"github.com/rohankatakam/gitpulse/internal/models"
)

// Totals is a rollup of primary-author activity. Authors counts distinct
// identities with any aggregate row in the span, co-authors included.
type Totals struct {
	Commits      int `json:"commits" yaml:"commits"`
	Added        int `json:"added" yaml:"added"`
	Deleted      int `json:"deleted" yaml:"deleted"`
	FilesChanged int `json:"files_changed" yaml:"files_changed"`
	Authors      int `json:"authors" yaml:"authors"`
}

// NetChange is added minus deleted lines
func (t Totals) NetChange() int {
	return t.Added - t.Deleted
}

// DayTotals is the rollup for one calendar day
type DayTotals struct {
	Day    string `json:"day" yaml:"day"`
	Totals `yaml:",inline"`
}

// PeriodTotals is the rollup for an inclusive day window
type PeriodTotals struct {
	From      string `json:"from" yaml:"from"`
	To        string `json:"to" yaml:"to"`
	ExcludeAI bool   `json:"exclude_ai" yaml:"exclude_ai"`
	Totals    `yaml:",inline"`
}

// DailyBreakdown lists every day of a window, zero-filled
type DailyBreakdown struct {
	From             string      `json:"from" yaml:"from"`
	To               string      `json:"to" yaml:"to"`
	Days             []DayTotals `json:"days" yaml:"days"`
	DaysWithActivity int         `json:"days_with_activity" yaml:"days_with_activity"`
	Totals           Totals      `json:"totals" yaml:"totals"`
}

// AuthorStat is one author's activity over a window
type AuthorStat struct {
	AuthorID          int64  `json:"author_id" yaml:"author_id"`
	Email             string `json:"email" yaml:"email"`
	Name              string `json:"name" yaml:"name"`
	IsAI              bool   `json:"is_ai" yaml:"is_ai"`
	Commits           int    `json:"commits" yaml:"commits"`
	Added             int    `json:"added" yaml:"added"`
	Deleted           int    `json:"deleted" yaml:"deleted"`
	FilesChanged      int    `json:"files_changed" yaml:"files_changed"`
	CoAuthoredCommits int    `json:"co_authored_commits" yaml:"co_authored_commits"`
	ActiveDays        int    `json:"active_days" yaml:"active_days"`
	NetChange         int    `json:"net_change" yaml:"net_change"`
	TotalActivity     int    `json:"total_activity" yaml:"total_activity"`
}

// AuthorBreakdown is the per-author view of a window, most active first
type AuthorBreakdown struct {
	From      string       `json:"from" yaml:"from"`
	To        string       `json:"to" yaml:"to"`
	ExcludeAI bool         `json:"exclude_ai" yaml:"exclude_ai"`
	Authors   []AuthorStat `json:"authors" yaml:"authors"`
}

// Scope narrows AI assistance to one repository and/or one primary author.
// Empty fields match everything.
type Scope struct {
	Repository  string `json:"repository,omitempty" yaml:"repository,omitempty"`
	AuthorEmail string `json:"author_email,omitempty" yaml:"author_email,omitempty"`
}

// AIAssistance compares all commits in a window with those that carry an
// AI-flagged co-author. Lines are added plus deleted.
type AIAssistance struct {
	Scope            Scope   `json:"scope" yaml:"scope"`
	From             string  `json:"from" yaml:"from"`
	To               string  `json:"to" yaml:"to"`
	TotalCommits     int     `json:"total_commits" yaml:"total_commits"`
	AssistedCommits  int     `json:"assisted_commits" yaml:"assisted_commits"`
	TotalLines       int     `json:"total_lines" yaml:"total_lines"`
	AssistedLines    int     `json:"assisted_lines" yaml:"assisted_lines"`
	CommitPercentage float64 `json:"commit_percentage" yaml:"commit_percentage"`
	LinePercentage   float64 `json:"line_percentage" yaml:"line_percentage"`
}

// RepositoryStatus is what is known about a repository's ingestion history
type RepositoryStatus struct {
	Repository *models.Repository  `json:"repository" yaml:"repository"`
	LastRun    *models.AnalysisRun `json:"last_run,omitempty" yaml:"last_run,omitempty"`
}
