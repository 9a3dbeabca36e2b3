package ingestion

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/gitpulse/internal/errors"
	"github.com/rohankatakam/gitpulse/internal/git"
	"github.com/rohankatakam/gitpulse/internal/metrics"
	"github.com/rohankatakam/gitpulse/internal/models"
	"github.com/rohankatakam/gitpulse/internal/storage"
)

// HistorySource is the slice of the repository accessor the coordinator uses
type HistorySource interface {
	ListCommits(ctx context.Context, since, until time.Time) ([]git.CommitInfo, error)
	CommitStat(ctx context.Context, hash string) (git.DetailedStat, error)
	Fetch(ctx context.Context, timeout time.Duration) git.FetchResult
}

// SourceFactory opens a HistorySource for a validated repository
type SourceFactory func(ref git.RepositoryRef) HistorySource

// Options is the immutable configuration of a Coordinator
type Options struct {
	AutoFetch      bool
	FetchTimeout   time.Duration
	CommandTimeout time.Duration
	GitBinary      string
	// Parallelism bounds IngestMany; values below 1 mean 1
	Parallelism int
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		AutoFetch:      false,
		FetchTimeout:   git.DefaultFetchTimeout,
		CommandTimeout: git.DefaultCommandTimeout,
		GitBinary:      "git",
		Parallelism:    4,
	}
}

// CoordinatorOption customizes a Coordinator
type CoordinatorOption func(*Coordinator)

// WithMetrics records run and day counters
func WithMetrics(m *metrics.Ingestion) CoordinatorOption {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithSourceFactory replaces the git-backed history source. The git binary
// lookup is skipped since the factory may not need it.
func WithSourceFactory(f SourceFactory) CoordinatorOption {
	return func(c *Coordinator) {
		c.newSource = f
		c.checkTool = nil
	}
}

// WithClock overrides the time source used for "today"
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		c.now = now
	}
}

// Coordinator turns a repository's history into stored commit records and
// daily aggregates, one transaction per day
type Coordinator struct {
	store     storage.Store
	logger    *logrus.Logger
	opts      Options
	metrics   *metrics.Ingestion
	newSource SourceFactory
	checkTool func(binary string) error
	now       func() time.Time
}

// NewCoordinator creates a new ingestion coordinator
func NewCoordinator(store storage.Store, logger *logrus.Logger, opts Options, options ...CoordinatorOption) *Coordinator {
	if logger == nil {
		logger = logrus.New()
	}
	c := &Coordinator{
		store:     store,
		logger:    logger,
		opts:      opts,
		checkTool: git.LookupTool,
		now:       time.Now,
	}
	c.newSource = func(ref git.RepositoryRef) HistorySource {
		return git.Open(ref,
			git.WithBinary(c.opts.GitBinary),
			git.WithCommandTimeout(c.opts.CommandTimeout),
		)
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// IngestDay ingests a single calendar day
func (c *Coordinator) IngestDay(ctx context.Context, path string, day time.Time) (*RunReport, error) {
	return c.Ingest(ctx, path, DayWindow(day))
}

// IngestRange ingests every day from through to, inclusive
func (c *Coordinator) IngestRange(ctx context.Context, path string, from, to time.Time) (*RunReport, error) {
	return c.Ingest(ctx, path, RangeWindow(from, to))
}

// IngestRecentDays ingests the last n days, today included
func (c *Coordinator) IngestRecentDays(ctx context.Context, path string, n int) (*RunReport, error) {
	if n < 1 {
		return nil, errors.ValidationErrorf("number of days must be at least 1, got %d", n)
	}
	return c.Ingest(ctx, path, RecentWindow(c.now(), n))
}

// IngestMany ingests the same window for several repositories concurrently.
// Paths resolving to the same repository are ingested once. Reports are
// returned in input order of the distinct repositories; the error is the
// first fatal error encountered, if any.
func (c *Coordinator) IngestMany(ctx context.Context, paths []string, w Window) ([]*RunReport, error) {
	var distinct []string
	seen := make(map[string]struct{})
	for _, p := range paths {
		canonical := git.CanonicalPath(p)
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		distinct = append(distinct, canonical)
	}

	limit := c.opts.Parallelism
	if limit < 1 {
		limit = 1
	}

	reports := make([]*RunReport, len(distinct))
	var g errgroup.Group
	g.SetLimit(limit)

	for i, path := range distinct {
		i, path := i, path
		g.Go(func() error {
			report, err := c.Ingest(ctx, path, w)
			reports[i] = report
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}

	err := g.Wait()
	return reports, err
}

// Ingest runs the full lifecycle for one repository and window. The returned
// error is non-nil only when the run as a whole failed; day failures are
// reported in the RunReport.
func (c *Coordinator) Ingest(ctx context.Context, path string, w Window) (*RunReport, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	canonical := git.CanonicalPath(path)
	log := c.logger.WithFields(logrus.Fields{
		"repository": canonical,
		"from":       w.From.Format(models.DayLayout),
		"to":         w.To.Format(models.DayLayout),
	})

	repo, err := c.store.EnsureRepository(ctx, canonical)
	if err != nil {
		return nil, err
	}

	run := &models.AnalysisRun{
		ID:           uuid.NewString(),
		RepositoryID: repo.ID,
		Status:       models.RunStatusPending,
		Kind:         w.Kind,
		DateFrom:     w.From.Format(models.DayLayout),
		DateTo:       w.To.Format(models.DayLayout),
		CreatedAt:    time.Now().UTC(),
	}
	if err := c.store.CreateAnalysisRun(ctx, run); err != nil {
		return nil, err
	}

	report := &RunReport{
		RunID:        run.ID,
		Repository:   canonical,
		RepositoryID: repo.ID,
		Kind:         w.Kind,
		From:         run.DateFrom,
		To:           run.DateTo,
		Status:       models.RunStatusRunning,
	}

	startedAt := time.Now().UTC()
	run.Status = models.RunStatusRunning
	run.StartedAt = &startedAt
	if err := c.store.UpdateAnalysisRun(ctx, run); err != nil {
		return nil, err
	}

	log.WithField("run_id", run.ID).Info("Starting ingestion run")

	fail := func(cause error) (*RunReport, error) {
		report.Status = models.RunStatusFailed
		report.Error = cause.Error()
		report.Duration = time.Since(start)
		c.finishRun(ctx, run, report, cause)
		log.WithError(cause).Error("Ingestion run failed")
		return report, cause
	}

	ref, err := git.Validate(canonical)
	if err != nil {
		return fail(err)
	}
	if c.checkTool != nil {
		if err := c.checkTool(c.opts.GitBinary); err != nil {
			return fail(err)
		}
	}

	source := c.newSource(ref)

	if c.opts.AutoFetch {
		res := source.Fetch(ctx, c.opts.FetchTimeout)
		if res.Advisory != "" {
			report.Advisory = res.Advisory
			c.metrics.FetchAdvisory(canonical)
			log.WithField("advisory", res.Advisory).Warn("Fetch did not complete")
		} else {
			log.WithField("duration", res.Duration.String()).Debug("Fetched remotes")
		}
	}

	authors := newAuthorCache()
	progress := rate.Sometimes{Interval: 2 * time.Second}
	days := w.Days()

	for i, day := range days {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		outcome := c.ingestDay(ctx, source, repo.ID, canonical, day, authors)
		report.Days = append(report.Days, outcome)

		if outcome.Status == DaySucceeded {
			run.DaysProcessed++
			run.CommitsIngested += outcome.CommitsIngested
			run.CommitsSkipped += outcome.CommitsSkipped
		} else {
			run.DaysFailed++
			log.WithFields(logrus.Fields{
				"day":   outcome.Day,
				"error": outcome.Error,
			}).Warn("Day failed, continuing with next day")

			if errors.IsFatal(outcome.err) {
				return fail(outcome.err)
			}
		}

		progress.Do(func() {
			log.WithFields(logrus.Fields{
				"day":      outcome.Day,
				"progress": fmt.Sprintf("%d/%d", i+1, len(days)),
				"ingested": run.CommitsIngested,
			}).Info("Ingesting")
		})

		if err := c.store.UpdateAnalysisRun(ctx, run); err != nil {
			log.WithError(err).Warn("Could not record run progress")
		}
	}

	if err := c.store.MarkAnalyzed(ctx, repo.ID, time.Now()); err != nil {
		return fail(err)
	}

	report.Status = models.RunStatusCompleted
	report.Duration = time.Since(start)
	c.finishRun(ctx, run, report, nil)

	ingested, skipped := report.Totals()
	log.WithFields(logrus.Fields{
		"run_id":      run.ID,
		"duration":    report.Duration.String(),
		"days":        len(report.Days),
		"days_failed": run.DaysFailed,
		"ingested":    ingested,
		"skipped":     skipped,
	}).Info("Ingestion run completed")

	return report, nil
}

// finishRun moves the run to its terminal state. A store failure here is
// logged; the report already carries the outcome.
func (c *Coordinator) finishRun(ctx context.Context, run *models.AnalysisRun, report *RunReport, cause error) {
	completedAt := time.Now().UTC()
	run.Status = report.Status
	run.Advisory = report.Advisory
	run.CompletedAt = &completedAt
	if cause != nil {
		run.ErrorMessage = cause.Error()
	}

	// the caller's context may already be cancelled
	if err := c.store.UpdateAnalysisRun(context.WithoutCancel(ctx), run); err != nil {
		c.logger.WithError(err).WithField("run_id", run.ID).Error("Could not finalize analysis run")
	}
	c.metrics.RunFinished(string(run.Status))
}

// ingestDay processes one day. Git work happens before the transaction so
// the store is only locked for the writes.
func (c *Coordinator) ingestDay(ctx context.Context, source HistorySource, repoID int64, repoPath string, day time.Time, authors *authorCache) DayOutcome {
	start := time.Now()
	outcome := DayOutcome{Day: day.Format(models.DayLayout)}

	failed := func(err error) DayOutcome {
		outcome.Status = DayFailed
		outcome.CommitsIngested = 0
		outcome.err = err
		outcome.Error = err.Error()
		outcome.Duration = time.Since(start)
		c.metrics.DayFinished(repoPath, false, 0, 0, outcome.Duration)
		return outcome
	}

	commits, err := source.ListCommits(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return failed(err)
	}
	outcome.CommitsSeen = len(commits)

	hashes := make([]string, 0, len(commits))
	for _, ci := range commits {
		hashes = append(hashes, ci.Hash)
	}
	existing, err := c.store.ExistingCommits(ctx, repoID, hashes)
	if err != nil {
		return failed(err)
	}

	type pendingCommit struct {
		info git.CommitInfo
		stat git.DetailedStat
	}
	var pending []pendingCommit
	for _, ci := range commits {
		if _, ok := existing[ci.Hash]; ok {
			outcome.CommitsSkipped++
			continue
		}
		stat, err := source.CommitStat(ctx, ci.Hash)
		if err != nil {
			return failed(err)
		}
		pending = append(pending, pendingCommit{info: ci, stat: stat})
	}

	var dayAuth *dayAuthors
	err = c.store.InTx(ctx, func(tx storage.Tx) error {
		dayAuth = authors.forDay(tx)
		ingested := 0
		skipped := 0

		for _, p := range pending {
			written, err := c.writeCommit(ctx, tx, dayAuth, repoID, outcome.Day, p.info, p.stat)
			if err != nil {
				return err
			}
			if written {
				ingested++
			} else {
				skipped++
			}
		}

		if err := recomputeDay(ctx, tx, repoID, outcome.Day); err != nil {
			return err
		}

		outcome.CommitsIngested = ingested
		outcome.CommitsSkipped += skipped
		return nil
	})
	if err != nil {
		return failed(err)
	}

	dayAuth.commit()

	outcome.Status = DaySucceeded
	outcome.Duration = time.Since(start)
	c.metrics.DayFinished(repoPath, true, outcome.CommitsIngested, outcome.CommitsSkipped, outcome.Duration)

	c.logger.WithFields(logrus.Fields{
		"repository": repoPath,
		"day":        outcome.Day,
		"seen":       outcome.CommitsSeen,
		"ingested":   outcome.CommitsIngested,
		"skipped":    outcome.CommitsSkipped,
	}).Debug("Day ingested")

	return outcome
}

// writeCommit stores one commit with its co-author links. It reports false
// when the commit was stored concurrently since the existence check.
func (c *Coordinator) writeCommit(ctx context.Context, tx storage.Tx, authors *dayAuthors, repoID int64, day string, info git.CommitInfo, stat git.DetailedStat) (bool, error) {
	if _, err := tx.FindCommitByHash(ctx, repoID, info.Hash); err == nil {
		return false, nil
	} else if err != storage.ErrNotFound {
		return false, err
	}

	primary, err := authors.resolve(ctx, info.AuthorEmail, info.AuthorName, false)
	if err != nil {
		return false, err
	}

	commit := &models.Commit{
		RepositoryID: repoID,
		AuthorID:     primary.ID,
		Hash:         info.Hash,
		Message:      info.Message,
		Timestamp:    info.Timestamp,
		Day:          day,
		Added:        stat.Insertions,
		Deleted:      stat.Deletions,
		FilesChanged: stat.FilesChanged(),
	}
	if err := tx.CreateCommit(ctx, commit); err != nil {
		return false, err
	}

	linked := make(map[int64]struct{})
	for _, ca := range git.ExtractCoAuthors(info.Message) {
		if ca.Email == info.AuthorEmail {
			continue
		}
		coAuthor, err := authors.resolve(ctx, ca.Email, ca.Name, ca.IsAI)
		if err != nil {
			return false, err
		}
		if coAuthor.ID == primary.ID {
			continue
		}
		if _, dup := linked[coAuthor.ID]; dup {
			continue
		}
		linked[coAuthor.ID] = struct{}{}

		if err := tx.CreateCoAuthorLink(ctx, &models.CoAuthorLink{CommitID: commit.ID, AuthorID: coAuthor.ID}); err != nil {
			return false, err
		}
	}

	return true, nil
}

// recomputeDay rebuilds every author's aggregate for the day from the
// stored commit rows, overwriting what was there
func recomputeDay(ctx context.Context, tx storage.Tx, repoID int64, day string) error {
	commits, err := tx.CommitsForDay(ctx, repoID, day)
	if err != nil {
		return err
	}
	coAuthored, err := tx.CoAuthoredCommitsForDay(ctx, repoID, day)
	if err != nil {
		return err
	}

	aggs := make(map[int64]*models.DailyAggregate)
	get := func(authorID int64) *models.DailyAggregate {
		agg, ok := aggs[authorID]
		if !ok {
			agg = &models.DailyAggregate{RepositoryID: repoID, AuthorID: authorID, Day: day}
			aggs[authorID] = agg
		}
		return agg
	}

	for _, commit := range commits {
		agg := get(commit.AuthorID)
		agg.Commits++
		agg.Added += commit.Added
		agg.Deleted += commit.Deleted
		agg.FilesChanged += commit.FilesChanged
	}
	for _, co := range coAuthored {
		agg := get(co.AuthorID)
		agg.CoAuthoredCommits++
		agg.CoAuthoredAdded += co.Added
		agg.CoAuthoredDeleted += co.Deleted
	}

	ids := make([]int64, 0, len(aggs))
	for id := range aggs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := tx.UpsertDailyAggregate(ctx, aggs[id]); err != nil {
			return err
		}
	}
	return nil
}
