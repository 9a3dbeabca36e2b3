package statistics

import (
	"context"
	"sort"
	"time"

	"github.com/rohankatakam/gitpulse/internal/errors"
	"github.com/rohankatakam/gitpulse/internal/git"
	"github.com/rohankatakam/gitpulse/internal/models"
	"github.com/rohankatakam/gitpulse/internal/storage"
)

// Service answers statistics queries from stored aggregates. It never runs
// git; repositories are looked up by canonical path only.
type Service struct {
	store storage.Reader
}

// NewService creates a statistics service over a store reader
func NewService(store storage.Reader) *Service {
	return &Service{store: store}
}

// repositoryID resolves a path to its stored id. ok is false when the
// repository was never ingested.
func (s *Service) repositoryID(ctx context.Context, repo string) (id int64, ok bool, err error) {
	r, err := s.store.GetRepositoryByPath(ctx, git.CanonicalPath(repo))
	if err == storage.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return r.ID, true, nil
}

func (s *Service) rows(ctx context.Context, repo string, from, to time.Time) ([]models.AuthorDailyAggregate, error) {
	if err := checkWindow(from, to); err != nil {
		return nil, err
	}
	id, ok, err := s.repositoryID(ctx, repo)
	if err != nil || !ok {
		return nil, err
	}
	return s.store.DailyAggregates(ctx, storage.AggregateFilter{
		RepositoryID: id,
		From:         from.Format(models.DayLayout),
		To:           to.Format(models.DayLayout),
	})
}

// DayTotals sums one day's aggregates across authors. A day without rows is
// all zeros, not an error.
func (s *Service) DayTotals(ctx context.Context, repo string, day time.Time) (*DayTotals, error) {
	rows, err := s.rows(ctx, repo, day, day)
	if err != nil {
		return nil, err
	}
	return &DayTotals{Day: day.Format(models.DayLayout), Totals: sum(rows)}, nil
}

// DailyBreakdown returns a zero-filled DayTotals for every day in the window
func (s *Service) DailyBreakdown(ctx context.Context, repo string, from, to time.Time) (*DailyBreakdown, error) {
	rows, err := s.rows(ctx, repo, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string][]models.AuthorDailyAggregate)
	for _, r := range rows {
		byDay[r.Day] = append(byDay[r.Day], r)
	}

	breakdown := &DailyBreakdown{
		From:   from.Format(models.DayLayout),
		To:     to.Format(models.DayLayout),
		Totals: sum(rows),
	}
	for d, last := startOfDay(from), startOfDay(to); !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format(models.DayLayout)
		totals := sum(byDay[key])
		if totals.Authors > 0 {
			breakdown.DaysWithActivity++
		}
		breakdown.Days = append(breakdown.Days, DayTotals{Day: key, Totals: totals})
	}
	return breakdown, nil
}

// PeriodTotals sums aggregates over from..to inclusive. With excludeAI the
// rows of AI-flagged authors are left out entirely.
func (s *Service) PeriodTotals(ctx context.Context, repo string, from, to time.Time, excludeAI bool) (*PeriodTotals, error) {
	rows, err := s.rows(ctx, repo, from, to)
	if err != nil {
		return nil, err
	}
	if excludeAI {
		rows = withoutAI(rows)
	}
	return &PeriodTotals{
		From:      from.Format(models.DayLayout),
		To:        to.Format(models.DayLayout),
		ExcludeAI: excludeAI,
		Totals:    sum(rows),
	}, nil
}

// AuthorBreakdown returns one row per author, sorted by added plus deleted
// lines descending. Ties keep first-appearance order.
func (s *Service) AuthorBreakdown(ctx context.Context, repo string, from, to time.Time, excludeAI bool) (*AuthorBreakdown, error) {
	rows, err := s.rows(ctx, repo, from, to)
	if err != nil {
		return nil, err
	}
	if excludeAI {
		rows = withoutAI(rows)
	}

	index := make(map[int64]int)
	var authors []AuthorStat
	for _, r := range rows {
		i, ok := index[r.AuthorID]
		if !ok {
			i = len(authors)
			index[r.AuthorID] = i
			authors = append(authors, AuthorStat{
				AuthorID: r.AuthorID,
				Email:    r.Email,
				Name:     r.Name,
				IsAI:     r.IsAI,
			})
		}
		a := &authors[i]
		a.Commits += r.Commits
		a.Added += r.Added
		a.Deleted += r.Deleted
		a.FilesChanged += r.FilesChanged
		a.CoAuthoredCommits += r.CoAuthoredCommits
		a.ActiveDays++
	}

	for i := range authors {
		authors[i].NetChange = authors[i].Added - authors[i].Deleted
		authors[i].TotalActivity = authors[i].Added + authors[i].Deleted
	}
	sort.SliceStable(authors, func(i, j int) bool {
		return authors[i].TotalActivity > authors[j].TotalActivity
	})

	return &AuthorBreakdown{
		From:      from.Format(models.DayLayout),
		To:        to.Format(models.DayLayout),
		ExcludeAI: excludeAI,
		Authors:   authors,
	}, nil
}

// AIAssistance measures how much of the window's work carries an AI
// co-author. Percentages are 0 when there is nothing to divide by.
func (s *Service) AIAssistance(ctx context.Context, scope Scope, from, to time.Time) (*AIAssistance, error) {
	if err := checkWindow(from, to); err != nil {
		return nil, err
	}

	result := &AIAssistance{
		Scope: scope,
		From:  from.Format(models.DayLayout),
		To:    to.Format(models.DayLayout),
	}

	filter := storage.AggregateFilter{
		From:        result.From,
		To:          result.To,
		AuthorEmail: scope.AuthorEmail,
	}
	if scope.Repository != "" {
		id, ok, err := s.repositoryID(ctx, scope.Repository)
		if err != nil {
			return nil, err
		}
		if !ok {
			return result, nil
		}
		filter.RepositoryID = id
	}

	commits, err := s.store.CommitAttributions(ctx, filter)
	if err != nil {
		return nil, err
	}

	for _, c := range commits {
		lines := c.Added + c.Deleted
		result.TotalCommits++
		result.TotalLines += lines
		if c.AIAssisted {
			result.AssistedCommits++
			result.AssistedLines += lines
		}
	}
	result.CommitPercentage = percentage(result.AssistedCommits, result.TotalCommits)
	result.LinePercentage = percentage(result.AssistedLines, result.TotalLines)
	return result, nil
}

// HasData reports whether any aggregate exists in the window, separating
// "never analyzed" from "analyzed with no activity"
func (s *Service) HasData(ctx context.Context, repo string, from, to time.Time) (bool, error) {
	if err := checkWindow(from, to); err != nil {
		return false, err
	}
	id, ok, err := s.repositoryID(ctx, repo)
	if err != nil || !ok {
		return false, err
	}
	return s.store.HasAggregates(ctx, id, from.Format(models.DayLayout), to.Format(models.DayLayout))
}

// Status returns the stored repository row and its most recent run. The
// repository is nil when it was never ingested.
func (s *Service) Status(ctx context.Context, repo string) (*RepositoryStatus, error) {
	r, err := s.store.GetRepositoryByPath(ctx, git.CanonicalPath(repo))
	if err == storage.ErrNotFound {
		return &RepositoryStatus{}, nil
	}
	if err != nil {
		return nil, err
	}

	status := &RepositoryStatus{Repository: r}
	run, err := s.store.LatestAnalysisRun(ctx, r.ID)
	switch {
	case err == storage.ErrNotFound:
	case err != nil:
		return nil, err
	default:
		status.LastRun = run
	}
	return status, nil
}

// LastRun returns the most recent analysis run, or nil if there is none
func (s *Service) LastRun(ctx context.Context, repo string) (*models.AnalysisRun, error) {
	status, err := s.Status(ctx, repo)
	if err != nil {
		return nil, err
	}
	return status.LastRun, nil
}

func sum(rows []models.AuthorDailyAggregate) Totals {
	var t Totals
	authors := make(map[int64]struct{})
	for _, r := range rows {
		t.Commits += r.Commits
		t.Added += r.Added
		t.Deleted += r.Deleted
		t.FilesChanged += r.FilesChanged
		authors[r.AuthorID] = struct{}{}
	}
	t.Authors = len(authors)
	return t
}

func withoutAI(rows []models.AuthorDailyAggregate) []models.AuthorDailyAggregate {
	kept := make([]models.AuthorDailyAggregate, 0, len(rows))
	for _, r := range rows {
		if !r.IsAI {
			kept = append(kept, r)
		}
	}
	return kept
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func checkWindow(from, to time.Time) error {
	if startOfDay(from).After(startOfDay(to)) {
		return errors.ValidationErrorf("window start %s is after end %s",
			from.Format(models.DayLayout), to.Format(models.DayLayout))
	}
	return nil
}
