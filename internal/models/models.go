package models

import (
	"time"
)

// DayLayout is the storage and CLI format of a calendar day
const DayLayout = "2006-01-02"

// Repository is the store-side row for an analyzed working copy, keyed by
// canonical local path
type Repository struct {
	ID             int64      `json:"id" db:"id"`
	Path           string     `json:"path" db:"path"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	LastAnalyzedAt *time.Time `json:"last_analyzed_at" db:"last_analyzed_at"`
}

// Author is a canonical author identity, keyed by exact email
type Author struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	IsAI      bool      `json:"is_ai" db:"is_ai"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Commit is one ingested commit. Diff stats never change once written.
type Commit struct {
	ID           int64     `json:"id" db:"id"`
	RepositoryID int64     `json:"repository_id" db:"repository_id"`
	AuthorID     int64     `json:"author_id" db:"author_id"`
	Hash         string    `json:"hash" db:"hash"`
	Message      string    `json:"message" db:"message"`
	Timestamp    time.Time `json:"timestamp" db:"committed_at"`
	Day          string    `json:"day" db:"day"`
	Added        int       `json:"added" db:"added_lines"`
	Deleted      int       `json:"deleted" db:"deleted_lines"`
	FilesChanged int       `json:"files_changed" db:"files_changed"`
}

// CoAuthorLink associates a commit with a co-author other than its primary author
type CoAuthorLink struct {
	ID       int64 `json:"id" db:"id"`
	CommitID int64 `json:"commit_id" db:"commit_id"`
	AuthorID int64 `json:"author_id" db:"author_id"`
}

// DailyAggregate is the per (repository, author, day) projection of commit
// rows. The primary fields count commits the author made; the CoAuthored
// fields count commits the author is linked to as co-author.
type DailyAggregate struct {
	RepositoryID      int64  `json:"repository_id" db:"repository_id"`
	AuthorID          int64  `json:"author_id" db:"author_id"`
	Day               string `json:"day" db:"day"`
	Commits           int    `json:"commits" db:"commits_count"`
	Added             int    `json:"added" db:"added_lines"`
	Deleted           int    `json:"deleted" db:"deleted_lines"`
	FilesChanged      int    `json:"files_changed" db:"files_changed"`
	CoAuthoredCommits int    `json:"co_authored_commits" db:"co_authored_commits"`
	CoAuthoredAdded   int    `json:"co_authored_added" db:"co_authored_added"`
	CoAuthoredDeleted int    `json:"co_authored_deleted" db:"co_authored_deleted"`
}

// AuthorDailyAggregate is a DailyAggregate joined with its author identity
type AuthorDailyAggregate struct {
	DailyAggregate
	Email string `json:"email" db:"email"`
	Name  string `json:"name" db:"name"`
	IsAI  bool   `json:"is_ai" db:"is_ai"`
}

// CommitAttribution is a commit row annotated with whether any co-author is AI-flagged
type CommitAttribution struct {
	Hash       string `db:"hash"`
	Day        string `db:"day"`
	Added      int    `db:"added_lines"`
	Deleted    int    `db:"deleted_lines"`
	AIAssisted bool   `db:"ai_assisted"`
}

// CoAuthoredCommit is a commit seen from one of its co-authors
type CoAuthoredCommit struct {
	AuthorID int64 `db:"author_id"`
	CommitID int64 `db:"commit_id"`
	Added    int   `db:"added_lines"`
	Deleted  int   `db:"deleted_lines"`
}

// RunStatus is the lifecycle state of an AnalysisRun
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// AnalysisRun records one ingestion invocation
type AnalysisRun struct {
	ID              string     `json:"id" db:"id"`
	RepositoryID    int64      `json:"repository_id" db:"repository_id"`
	Status          RunStatus  `json:"status" db:"status"`
	Kind            string     `json:"kind" db:"kind"`
	DateFrom        string     `json:"date_from" db:"date_from"`
	DateTo          string     `json:"date_to" db:"date_to"`
	DaysProcessed   int        `json:"days_processed" db:"days_processed"`
	DaysFailed      int        `json:"days_failed" db:"days_failed"`
	CommitsIngested int        `json:"commits_ingested" db:"commits_ingested"`
	CommitsSkipped  int        `json:"commits_skipped" db:"commits_skipped"`
	Advisory        string     `json:"advisory,omitempty" db:"advisory"`
	ErrorMessage    string     `json:"error_message,omitempty" db:"error_message"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}
