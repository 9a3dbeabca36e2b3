package storage

import (
	"context"
	"errors"
	"time"

	"github.com/rohankatakam/gitpulse/internal/models"
)

// Common errors
var (
	ErrNotFound = errors.New("not found")
)

// Store is the statistics store consumed by ingestion and aggregation
type Store interface {
	Reader

	// Repository operations
	EnsureRepository(ctx context.Context, path string) (*models.Repository, error)
	MarkAnalyzed(ctx context.Context, repoID int64, at time.Time) error

	// Analysis run operations
	CreateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error
	UpdateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error

	// InTx runs fn in a single transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Tx) error) error

	// Close connection
	Close() error
}

// Tx is the write surface for one ingested day. Lookups are by natural key.
type Tx interface {
	FindAuthorByEmail(ctx context.Context, email string) (*models.Author, error)
	CreateAuthor(ctx context.Context, author *models.Author) error
	UpdateAuthor(ctx context.Context, author *models.Author) error

	FindCommitByHash(ctx context.Context, repoID int64, hash string) (*models.Commit, error)
	CreateCommit(ctx context.Context, commit *models.Commit) error
	CreateCoAuthorLink(ctx context.Context, link *models.CoAuthorLink) error

	CommitsForDay(ctx context.Context, repoID int64, day string) ([]models.Commit, error)
	CoAuthoredCommitsForDay(ctx context.Context, repoID int64, day string) ([]models.CoAuthoredCommit, error)

	FindDailyAggregate(ctx context.Context, repoID, authorID int64, day string) (*models.DailyAggregate, error)
	UpsertDailyAggregate(ctx context.Context, agg *models.DailyAggregate) error
}

// AggregateFilter selects daily aggregate rows over an inclusive day window.
// A zero RepositoryID matches every repository; an empty AuthorEmail matches
// every author.
type AggregateFilter struct {
	RepositoryID int64
	From         string
	To           string
	AuthorEmail  string
}

// Reader is the read side used by the aggregation service
type Reader interface {
	GetRepositoryByPath(ctx context.Context, path string) (*models.Repository, error)
	LatestAnalysisRun(ctx context.Context, repoID int64) (*models.AnalysisRun, error)

	// DailyAggregates returns matching rows ordered by day then author id
	DailyAggregates(ctx context.Context, filter AggregateFilter) ([]models.AuthorDailyAggregate, error)
	// CommitAttributions returns matching commit rows, primary author
	// filtered by AuthorEmail, ordered by day then commit id
	CommitAttributions(ctx context.Context, filter AggregateFilter) ([]models.CommitAttribution, error)
	HasAggregates(ctx context.Context, repoID int64, from, to string) (bool, error)

	// ExistingCommits returns the subset of hashes already stored for repoID
	ExistingCommits(ctx context.Context, repoID int64, hashes []string) (map[string]struct{}, error)
}
