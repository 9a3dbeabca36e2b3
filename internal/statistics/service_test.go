package statistics

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/gitpulse/internal/models"
	"github.com/rohankatakam/gitpulse/internal/storage"
)

const repoPath = "/src/project"

var (
	d1 = time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	d2 = d1.AddDate(0, 0, 1)
	d3 = d1.AddDate(0, 0, 2)
)

type fixture struct {
	t       *testing.T
	store   *storage.SQLiteStore
	repoID  int64
	authors map[string]*models.Author
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "stats.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	repo, err := store.EnsureRepository(context.Background(), repoPath)
	require.NoError(t, err)

	return &fixture{t: t, store: store, repoID: repo.ID, authors: make(map[string]*models.Author)}
}

func (f *fixture) author(tx storage.Tx, email string, isAI bool) *models.Author {
	if a, ok := f.authors[email]; ok {
		return a
	}
	a := &models.Author{Email: email, Name: email, IsAI: isAI}
	require.NoError(f.t, tx.CreateAuthor(context.Background(), a))
	f.authors[email] = a
	return a
}

// aggregate writes one daily aggregate row directly
func (f *fixture) aggregate(day time.Time, email string, isAI bool, agg models.DailyAggregate) {
	ctx := context.Background()
	require.NoError(f.t, f.store.InTx(ctx, func(tx storage.Tx) error {
		a := f.author(tx, email, isAI)
		agg.RepositoryID = f.repoID
		agg.AuthorID = a.ID
		agg.Day = day.Format(models.DayLayout)
		return tx.UpsertDailyAggregate(ctx, &agg)
	}))
}

// commit writes one commit row with optional co-author links
func (f *fixture) commit(day time.Time, hash, email string, added, deleted int, coAuthors ...string) {
	ctx := context.Background()
	require.NoError(f.t, f.store.InTx(ctx, func(tx storage.Tx) error {
		a := f.author(tx, email, false)
		c := &models.Commit{RepositoryID: f.repoID, AuthorID: a.ID, Hash: hash,
			Timestamp: day.Add(time.Hour), Day: day.Format(models.DayLayout),
			Added: added, Deleted: deleted, FilesChanged: 1}
		if err := tx.CreateCommit(ctx, c); err != nil {
			return err
		}
		for _, co := range coAuthors {
			ca := f.author(tx, co, co == "claude@anthropic.com")
			if err := tx.CreateCoAuthorLink(ctx, &models.CoAuthorLink{CommitID: c.ID, AuthorID: ca.ID}); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestDayTotals_ZeroFilled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(f.store)

	totals, err := svc.DayTotals(ctx, repoPath, d1)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-14", totals.Day)
	assert.Equal(t, Totals{}, totals.Totals)

	unknown, err := svc.DayTotals(ctx, "/src/never-ingested", d1)
	require.NoError(t, err)
	assert.Equal(t, Totals{}, unknown.Totals)
}

func TestDayTotals_CountsCoAuthorsAsAuthors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.aggregate(d2, "a@x.com", false, models.DailyAggregate{Commits: 1, Added: 10, Deleted: 2, FilesChanged: 1})
	f.aggregate(d2, "b@x.com", false, models.DailyAggregate{Commits: 1, Added: 5, FilesChanged: 2})
	f.aggregate(d2, "claude@anthropic.com", true, models.DailyAggregate{CoAuthoredCommits: 1, CoAuthoredAdded: 5})

	totals, err := NewService(f.store).DayTotals(ctx, repoPath, d2)
	require.NoError(t, err)
	assert.Equal(t, Totals{Commits: 2, Added: 15, Deleted: 2, FilesChanged: 3, Authors: 3}, totals.Totals)
}

func TestPeriodTotals_Additive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.aggregate(d1, "a@x.com", false, models.DailyAggregate{Commits: 2, Added: 7, Deleted: 1, FilesChanged: 3})
	f.aggregate(d2, "a@x.com", false, models.DailyAggregate{Commits: 1, Added: 4, Deleted: 4, FilesChanged: 1})
	f.aggregate(d2, "b@x.com", false, models.DailyAggregate{Commits: 1, Added: 9, FilesChanged: 2})
	f.aggregate(d3, "b@x.com", false, models.DailyAggregate{Commits: 3, Added: 1, Deleted: 8, FilesChanged: 5})

	svc := NewService(f.store)
	period, err := svc.PeriodTotals(ctx, repoPath, d1, d3, false)
	require.NoError(t, err)

	var want Totals
	for _, d := range []time.Time{d1, d2, d3} {
		day, err := svc.DayTotals(ctx, repoPath, d)
		require.NoError(t, err)
		want.Commits += day.Commits
		want.Added += day.Added
		want.Deleted += day.Deleted
		want.FilesChanged += day.FilesChanged
	}

	assert.Equal(t, want.Commits, period.Commits)
	assert.Equal(t, want.Added, period.Added)
	assert.Equal(t, want.Deleted, period.Deleted)
	assert.Equal(t, want.FilesChanged, period.FilesChanged)
	assert.Equal(t, 2, period.Authors)
	assert.Equal(t, 21-13, period.NetChange())
}

func TestPeriodTotals_ExcludeAI(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.aggregate(d1, "a@x.com", false, models.DailyAggregate{Commits: 1, Added: 10})
	f.aggregate(d1, "bot@claude.ai", true, models.DailyAggregate{Commits: 2, Added: 100, Deleted: 50})

	svc := NewService(f.store)

	all, err := svc.PeriodTotals(ctx, repoPath, d1, d1, false)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Commits)
	assert.Equal(t, 2, all.Authors)

	human, err := svc.PeriodTotals(ctx, repoPath, d1, d1, true)
	require.NoError(t, err)
	assert.Equal(t, Totals{Commits: 1, Added: 10, Authors: 1}, human.Totals)
	assert.True(t, human.ExcludeAI)
}

func TestDailyBreakdown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.aggregate(d1, "a@x.com", false, models.DailyAggregate{Commits: 1, Added: 3})
	f.aggregate(d3, "a@x.com", false, models.DailyAggregate{Commits: 2, Added: 5})

	breakdown, err := NewService(f.store).DailyBreakdown(ctx, repoPath, d1, d3)
	require.NoError(t, err)
	require.Len(t, breakdown.Days, 3)
	assert.Equal(t, "2024-03-15", breakdown.Days[1].Day)
	assert.Equal(t, Totals{}, breakdown.Days[1].Totals)
	assert.Equal(t, 2, breakdown.DaysWithActivity)
	assert.Equal(t, 3, breakdown.Totals.Commits)
	assert.Equal(t, 8, breakdown.Totals.Added)
}

func TestAuthorBreakdown_SortedByActivity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.aggregate(d1, "low@x.com", false, models.DailyAggregate{Commits: 1, Added: 1, Deleted: 1})
	f.aggregate(d1, "tie1@x.com", false, models.DailyAggregate{Commits: 1, Added: 5})
	f.aggregate(d1, "tie2@x.com", false, models.DailyAggregate{Commits: 1, Added: 2, Deleted: 3})
	f.aggregate(d2, "low@x.com", false, models.DailyAggregate{Commits: 1, Added: 1})
	f.aggregate(d2, "top@x.com", false, models.DailyAggregate{Commits: 4, Added: 20, Deleted: 10})
	f.aggregate(d2, "claude@anthropic.com", true, models.DailyAggregate{CoAuthoredCommits: 1, CoAuthoredAdded: 20})

	svc := NewService(f.store)
	breakdown, err := svc.AuthorBreakdown(ctx, repoPath, d1, d2, false)
	require.NoError(t, err)

	var emails []string
	for _, a := range breakdown.Authors {
		emails = append(emails, a.Email)
	}
	assert.Equal(t, []string{"top@x.com", "tie1@x.com", "tie2@x.com", "low@x.com", "claude@anthropic.com"}, emails)

	low := breakdown.Authors[3]
	assert.Equal(t, 2, low.Commits)
	assert.Equal(t, 2, low.ActiveDays)
	assert.Equal(t, 1, low.NetChange)
	assert.Equal(t, 3, low.TotalActivity)

	human, err := svc.AuthorBreakdown(ctx, repoPath, d1, d2, true)
	require.NoError(t, err)
	assert.Len(t, human.Authors, 4)
}

func TestAIAssistance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(f.store)

	empty, err := svc.AIAssistance(ctx, Scope{Repository: repoPath}, d1, d3)
	require.NoError(t, err)
	assert.Zero(t, empty.CommitPercentage)
	assert.Zero(t, empty.LinePercentage)

	f.commit(d1, "h1", "a@x.com", 30, 0)
	f.commit(d1, "h2", "b@x.com", 5, 5, "claude@anthropic.com")
	f.commit(d2, "h3", "a@x.com", 10, 0, "jane@x.com")
	f.commit(d2, "h4", "b@x.com", 0, 0, "claude@anthropic.com")

	all, err := svc.AIAssistance(ctx, Scope{Repository: repoPath}, d1, d3)
	require.NoError(t, err)
	assert.Equal(t, 4, all.TotalCommits)
	assert.Equal(t, 2, all.AssistedCommits)
	assert.Equal(t, 50, all.TotalLines)
	assert.Equal(t, 10, all.AssistedLines)
	assert.InDelta(t, 50.0, all.CommitPercentage, 0.001)
	assert.InDelta(t, 20.0, all.LinePercentage, 0.001)

	byAuthor, err := svc.AIAssistance(ctx, Scope{AuthorEmail: "b@x.com"}, d1, d3)
	require.NoError(t, err)
	assert.Equal(t, 2, byAuthor.TotalCommits)
	assert.InDelta(t, 100.0, byAuthor.CommitPercentage, 0.001)

	zeroLines, err := svc.AIAssistance(ctx, Scope{Repository: repoPath}, d2.AddDate(0, 0, 5), d2.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Zero(t, zeroLines.TotalLines)
	assert.Zero(t, zeroLines.LinePercentage)
}

func TestHasDataAndStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(f.store)

	has, err := svc.HasData(ctx, repoPath, d1, d3)
	require.NoError(t, err)
	assert.False(t, has)

	f.aggregate(d2, "a@x.com", false, models.DailyAggregate{})

	has, err = svc.HasData(ctx, repoPath, d1, d3)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = svc.HasData(ctx, "/src/never-ingested", d1, d3)
	require.NoError(t, err)
	assert.False(t, has)

	status, err := svc.Status(ctx, repoPath)
	require.NoError(t, err)
	require.NotNil(t, status.Repository)
	assert.Nil(t, status.LastRun)

	missing, err := svc.Status(ctx, "/src/never-ingested")
	require.NoError(t, err)
	assert.Nil(t, missing.Repository)

	run, err := svc.LastRun(ctx, repoPath)
	require.NoError(t, err)
	assert.Nil(t, run)
}

func TestWindowValidation(t *testing.T) {
	f := newFixture(t)
	_, err := NewService(f.store).PeriodTotals(context.Background(), repoPath, d3, d1, false)
	assert.Error(t, err)
}
