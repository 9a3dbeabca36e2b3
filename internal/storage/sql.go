package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/gitpulse/internal/errors"
	"github.com/rohankatakam/gitpulse/internal/models"
)

// sqlStore is the Store implementation shared by the SQLite and PostgreSQL
// backends. Queries are written with ? placeholders and rebound per driver.
type sqlStore struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

func applySchema(ctx context.Context, db *sqlx.DB, schema string) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// Repository operations

func (s *sqlStore) EnsureRepository(ctx context.Context, path string) (*models.Repository, error) {
	query := s.db.Rebind(`
		INSERT INTO repositories (path, created_at)
		VALUES (?, ?)
		ON CONFLICT (path) DO NOTHING
	`)
	if _, err := s.db.ExecContext(ctx, query, path, time.Now().UTC()); err != nil {
		return nil, errors.DatabaseErrorf(err, "ensure repository %s", path)
	}
	return s.GetRepositoryByPath(ctx, path)
}

func (s *sqlStore) GetRepositoryByPath(ctx context.Context, path string) (*models.Repository, error) {
	var repo models.Repository
	query := s.db.Rebind(`SELECT id, path, created_at, last_analyzed_at FROM repositories WHERE path = ?`)

	if err := s.db.GetContext(ctx, &repo, query, path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.DatabaseErrorf(err, "get repository %s", path)
	}
	return &repo, nil
}

func (s *sqlStore) MarkAnalyzed(ctx context.Context, repoID int64, at time.Time) error {
	query := s.db.Rebind(`UPDATE repositories SET last_analyzed_at = ? WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, at.UTC(), repoID); err != nil {
		return errors.DatabaseError(err, "mark repository analyzed")
	}
	return nil
}

// Analysis run operations

const analysisRunColumns = `id, repository_id, status, kind, date_from, date_to,
	days_processed, days_failed, commits_ingested, commits_skipped,
	advisory, error_message, created_at, started_at, completed_at`

func (s *sqlStore) CreateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error {
	query := `
		INSERT INTO analysis_runs (` + analysisRunColumns + `)
		VALUES (:id, :repository_id, :status, :kind, :date_from, :date_to,
			:days_processed, :days_failed, :commits_ingested, :commits_skipped,
			:advisory, :error_message, :created_at, :started_at, :completed_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, run); err != nil {
		return errors.DatabaseError(err, "create analysis run").WithContext("run_id", run.ID)
	}
	return nil
}

func (s *sqlStore) UpdateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error {
	query := `
		UPDATE analysis_runs SET
			status = :status,
			days_processed = :days_processed,
			days_failed = :days_failed,
			commits_ingested = :commits_ingested,
			commits_skipped = :commits_skipped,
			advisory = :advisory,
			error_message = :error_message,
			started_at = :started_at,
			completed_at = :completed_at
		WHERE id = :id
	`
	if _, err := s.db.NamedExecContext(ctx, query, run); err != nil {
		return errors.DatabaseError(err, "update analysis run").WithContext("run_id", run.ID)
	}
	return nil
}

func (s *sqlStore) LatestAnalysisRun(ctx context.Context, repoID int64) (*models.AnalysisRun, error) {
	var run models.AnalysisRun
	query := s.db.Rebind(`
		SELECT ` + analysisRunColumns + `
		FROM analysis_runs
		WHERE repository_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`)

	if err := s.db.GetContext(ctx, &run, query, repoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.DatabaseError(err, "get latest analysis run")
	}
	return &run, nil
}

// InTx runs fn inside one transaction
func (s *sqlStore) InTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError(err, "begin transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&sqlTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && s.logger != nil {
			s.logger.WithError(rbErr).Warn("rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError(err, "commit transaction")
	}
	return nil
}

// Read side

const aggregateColumns = `d.repository_id, d.author_id, d.day, d.commits_count,
	d.added_lines, d.deleted_lines, d.files_changed,
	d.co_authored_commits, d.co_authored_added, d.co_authored_deleted`

func (s *sqlStore) DailyAggregates(ctx context.Context, filter AggregateFilter) ([]models.AuthorDailyAggregate, error) {
	where, args := aggregateWhere("d", filter)
	query := s.db.Rebind(`
		SELECT ` + aggregateColumns + `, a.email, a.name, a.is_ai
		FROM daily_author_stats d
		JOIN authors a ON a.id = d.author_id
		WHERE ` + where + `
		ORDER BY d.day, d.author_id
	`)

	var rows []models.AuthorDailyAggregate
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.DatabaseError(err, "query daily aggregates")
	}
	return rows, nil
}

func (s *sqlStore) CommitAttributions(ctx context.Context, filter AggregateFilter) ([]models.CommitAttribution, error) {
	where, args := aggregateWhere("c", filter)
	query := s.db.Rebind(`
		SELECT c.hash, c.day, c.added_lines, c.deleted_lines,
			EXISTS (
				SELECT 1 FROM commit_co_authors l
				JOIN authors co ON co.id = l.author_id
				WHERE l.commit_id = c.id AND co.is_ai
			) AS ai_assisted
		FROM commits c
		JOIN authors a ON a.id = c.author_id
		WHERE ` + where + `
		ORDER BY c.day, c.id
	`)

	var rows []models.CommitAttribution
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.DatabaseError(err, "query commit attributions")
	}
	return rows, nil
}

func (s *sqlStore) HasAggregates(ctx context.Context, repoID int64, from, to string) (bool, error) {
	var exists bool
	query := s.db.Rebind(`
		SELECT EXISTS (
			SELECT 1 FROM daily_author_stats
			WHERE repository_id = ? AND day >= ? AND day <= ?
		)
	`)
	if err := s.db.GetContext(ctx, &exists, query, repoID, from, to); err != nil {
		return false, errors.DatabaseError(err, "check aggregates")
	}
	return exists, nil
}

// existingCommitsBatch keeps IN lists under SQLite's bound-parameter limit
const existingCommitsBatch = 500

func (s *sqlStore) ExistingCommits(ctx context.Context, repoID int64, hashes []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})

	for start := 0; start < len(hashes); start += existingCommitsBatch {
		end := start + existingCommitsBatch
		if end > len(hashes) {
			end = len(hashes)
		}

		query, args, err := sqlx.In(`SELECT hash FROM commits WHERE repository_id = ? AND hash IN (?)`, repoID, hashes[start:end])
		if err != nil {
			return nil, errors.DatabaseError(err, "build existing commits query")
		}

		var found []string
		if err := s.db.SelectContext(ctx, &found, s.db.Rebind(query), args...); err != nil {
			return nil, errors.DatabaseError(err, "query existing commits")
		}
		for _, h := range found {
			existing[h] = struct{}{}
		}
	}

	return existing, nil
}

// aggregateWhere builds the window/scope predicate shared by the read queries.
// The author alias is always "a".
func aggregateWhere(alias string, filter AggregateFilter) (string, []interface{}) {
	clauses := []string{alias + ".day >= ?", alias + ".day <= ?"}
	args := []interface{}{filter.From, filter.To}

	if filter.RepositoryID != 0 {
		clauses = append(clauses, alias+".repository_id = ?")
		args = append(args, filter.RepositoryID)
	}
	if filter.AuthorEmail != "" {
		clauses = append(clauses, "a.email = ?")
		args = append(args, filter.AuthorEmail)
	}
	return strings.Join(clauses, " AND "), args
}

// sqlTx implements Tx on a single database transaction
type sqlTx struct {
	tx *sqlx.Tx
}

func (t *sqlTx) FindAuthorByEmail(ctx context.Context, email string) (*models.Author, error) {
	var author models.Author
	query := t.tx.Rebind(`SELECT id, email, name, is_ai, created_at FROM authors WHERE email = ?`)

	if err := t.tx.GetContext(ctx, &author, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.DatabaseErrorf(err, "find author %s", email)
	}
	return &author, nil
}

// CreateAuthor inserts the identity, or merges it into a row another
// transaction stored first. author is refreshed from the stored row.
func (t *sqlTx) CreateAuthor(ctx context.Context, author *models.Author) error {
	if author.CreatedAt.IsZero() {
		author.CreatedAt = time.Now().UTC()
	}
	query := t.tx.Rebind(`
		INSERT INTO authors (email, name, is_ai, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET
			name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE authors.name END,
			is_ai = (authors.is_ai OR excluded.is_ai)
		RETURNING id, email, name, is_ai, created_at
	`)
	if err := t.tx.GetContext(ctx, author, query, author.Email, author.Name, author.IsAI, author.CreatedAt); err != nil {
		return errors.DatabaseErrorf(err, "create author %s", author.Email)
	}
	return nil
}

// UpdateAuthor writes the name and raises is_ai when author.IsAI is set.
// A stored true is never cleared. author is refreshed from the stored row.
func (t *sqlTx) UpdateAuthor(ctx context.Context, author *models.Author) error {
	query := t.tx.Rebind(`
		UPDATE authors SET name = ?, is_ai = (is_ai OR ?)
		WHERE id = ?
		RETURNING name, is_ai
	`)
	row := t.tx.QueryRowxContext(ctx, query, author.Name, author.IsAI, author.ID)
	if err := row.Scan(&author.Name, &author.IsAI); err != nil {
		return errors.DatabaseErrorf(err, "update author %s", author.Email)
	}
	return nil
}

const commitColumns = `id, repository_id, author_id, hash, message, committed_at, day,
	added_lines, deleted_lines, files_changed`

func (t *sqlTx) FindCommitByHash(ctx context.Context, repoID int64, hash string) (*models.Commit, error) {
	var commit models.Commit
	query := t.tx.Rebind(`SELECT ` + commitColumns + ` FROM commits WHERE repository_id = ? AND hash = ?`)

	if err := t.tx.GetContext(ctx, &commit, query, repoID, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.DatabaseErrorf(err, "find commit %s", hash)
	}
	return &commit, nil
}

func (t *sqlTx) CreateCommit(ctx context.Context, commit *models.Commit) error {
	query := t.tx.Rebind(`
		INSERT INTO commits (repository_id, author_id, hash, message, committed_at, day,
			added_lines, deleted_lines, files_changed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := t.tx.GetContext(ctx, &commit.ID, query,
		commit.RepositoryID, commit.AuthorID, commit.Hash, commit.Message, commit.Timestamp.UTC(),
		commit.Day, commit.Added, commit.Deleted, commit.FilesChanged)
	if err != nil {
		return errors.DatabaseErrorf(err, "create commit %s", commit.Hash)
	}
	return nil
}

func (t *sqlTx) CreateCoAuthorLink(ctx context.Context, link *models.CoAuthorLink) error {
	query := t.tx.Rebind(`
		INSERT INTO commit_co_authors (commit_id, author_id)
		VALUES (?, ?)
		RETURNING id
	`)
	if err := t.tx.GetContext(ctx, &link.ID, query, link.CommitID, link.AuthorID); err != nil {
		return errors.DatabaseError(err, "create co-author link").
			WithContext("commit_id", link.CommitID).
			WithContext("author_id", link.AuthorID)
	}
	return nil
}

func (t *sqlTx) CommitsForDay(ctx context.Context, repoID int64, day string) ([]models.Commit, error) {
	var commits []models.Commit
	query := t.tx.Rebind(`SELECT ` + commitColumns + ` FROM commits WHERE repository_id = ? AND day = ? ORDER BY id`)

	if err := t.tx.SelectContext(ctx, &commits, query, repoID, day); err != nil {
		return nil, errors.DatabaseErrorf(err, "list commits for %s", day)
	}
	return commits, nil
}

func (t *sqlTx) CoAuthoredCommitsForDay(ctx context.Context, repoID int64, day string) ([]models.CoAuthoredCommit, error) {
	var rows []models.CoAuthoredCommit
	query := t.tx.Rebind(`
		SELECT l.author_id, c.id AS commit_id, c.added_lines, c.deleted_lines
		FROM commit_co_authors l
		JOIN commits c ON c.id = l.commit_id
		WHERE c.repository_id = ? AND c.day = ?
		ORDER BY c.id, l.author_id
	`)

	if err := t.tx.SelectContext(ctx, &rows, query, repoID, day); err != nil {
		return nil, errors.DatabaseErrorf(err, "list co-authored commits for %s", day)
	}
	return rows, nil
}

func (t *sqlTx) FindDailyAggregate(ctx context.Context, repoID, authorID int64, day string) (*models.DailyAggregate, error) {
	var agg models.DailyAggregate
	query := t.tx.Rebind(`
		SELECT ` + aggregateColumns + `
		FROM daily_author_stats d
		WHERE d.repository_id = ? AND d.author_id = ? AND d.day = ?
	`)

	if err := t.tx.GetContext(ctx, &agg, query, repoID, authorID, day); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.DatabaseErrorf(err, "find daily aggregate for %s", day)
	}
	return &agg, nil
}

// UpsertDailyAggregate overwrites the row for (repository, author, day)
func (t *sqlTx) UpsertDailyAggregate(ctx context.Context, agg *models.DailyAggregate) error {
	query := t.tx.Rebind(`
		INSERT INTO daily_author_stats (repository_id, author_id, day, commits_count,
			added_lines, deleted_lines, files_changed,
			co_authored_commits, co_authored_added, co_authored_deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (repository_id, author_id, day) DO UPDATE SET
			commits_count = excluded.commits_count,
			added_lines = excluded.added_lines,
			deleted_lines = excluded.deleted_lines,
			files_changed = excluded.files_changed,
			co_authored_commits = excluded.co_authored_commits,
			co_authored_added = excluded.co_authored_added,
			co_authored_deleted = excluded.co_authored_deleted
	`)
	_, err := t.tx.ExecContext(ctx, query,
		agg.RepositoryID, agg.AuthorID, agg.Day, agg.Commits,
		agg.Added, agg.Deleted, agg.FilesChanged,
		agg.CoAuthoredCommits, agg.CoAuthoredAdded, agg.CoAuthoredDeleted)
	if err != nil {
		return errors.DatabaseErrorf(err, "upsert daily aggregate for %s", agg.Day)
	}
	return nil
}
