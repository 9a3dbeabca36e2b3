package git

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeStat(t *testing.T) {
	ctx := context.Background()
	tr := newTestRepo(t)

	before := tr.commit("a.txt", "1\n", "base", "a@x.com", testDay.Add(-14*time.Hour))
	tr.commit("b.txt", "1\n2\n", "add b", "a@x.com", testDay.Add(9*time.Hour))
	newest := tr.commit("a.txt", "1\nx\n", "grow a", "b@x.com", testDay.Add(17*time.Hour))
	tr.commit("c.txt", "c\n", "add c", "a@x.com", testDay.Add(30*time.Hour))

	repo := tr.open()

	t.Run("day", func(t *testing.T) {
		stat, err := repo.DayStat(ctx, testDay)
		require.NoError(t, err)
		assert.Equal(t, 2, stat.Commits)
		assert.Equal(t, before, stat.From)
		assert.Equal(t, newest, stat.To)
		assert.Equal(t, SummaryStat{FilesChanged: 2, Insertions: 3}, stat.SummaryStat)
	})

	t.Run("quiet day", func(t *testing.T) {
		stat, err := repo.DayStat(ctx, testDay.AddDate(0, 0, 5))
		require.NoError(t, err)
		assert.Equal(t, RangeStat{}, stat)
	})

	t.Run("period", func(t *testing.T) {
		stat, err := repo.PeriodStat(ctx, testDay)
		require.NoError(t, err)
		assert.Equal(t, 3, stat.Commits)
		assert.Equal(t, before, stat.From)
		assert.Equal(t, "HEAD", stat.To)
		assert.Equal(t, SummaryStat{FilesChanged: 3, Insertions: 4}, stat.SummaryStat)
	})

	t.Run("period from the root", func(t *testing.T) {
		stat, err := repo.PeriodStat(ctx, testDay.AddDate(0, 0, -3))
		require.NoError(t, err)
		assert.Equal(t, 4, stat.Commits)
		assert.Equal(t, EmptyTreeHash, stat.From)
		assert.Equal(t, SummaryStat{FilesChanged: 3, Insertions: 5}, stat.SummaryStat)
	})

	t.Run("parent of root", func(t *testing.T) {
		parent, err := repo.Parent(ctx, before)
		require.NoError(t, err)
		assert.Empty(t, parent)
	})
}

func TestRangeStat_EmptyRepository(t *testing.T) {
	repo := newTestRepo(t).open()

	stat, err := repo.PeriodStat(context.Background(), testDay)
	require.NoError(t, err)
	assert.Equal(t, RangeStat{}, stat)

	stat, err = repo.DayStat(context.Background(), testDay)
	require.NoError(t, err)
	assert.Equal(t, RangeStat{}, stat)
}
