package git

import (
	"context"
	"strings"
	"time"

	"github.com/rohankatakam/gitpulse/internal/errors"
)

// RangeStat is a live shortstat over a window of the checked-out history.
// Nothing here is persisted; FilesChanged is the integer git reports for the
// whole range, not a per-commit path count.
type RangeStat struct {
	SummaryStat `yaml:",inline"`
	Commits     int    `json:"commits" yaml:"commits"`
	From        string `json:"from" yaml:"from"`
	To          string `json:"to" yaml:"to"`
}

// CommitBefore returns the newest commit on HEAD dated before t, or "" if none
func (r *Repo) CommitBefore(ctx context.Context, t time.Time) (string, error) {
	res, err := r.Run(ctx, "rev-list", "-n", "1", "--before="+t.Format(gitTimeLayout), "HEAD")
	if err != nil {
		return "", notFoundAsEmpty(err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Parent returns the first parent of hash, or "" for a root commit
func (r *Repo) Parent(ctx context.Context, hash string) (string, error) {
	res, err := r.Run(ctx, "rev-parse", "--verify", "--quiet", hash+"^")
	if err != nil {
		return "", notFoundAsEmpty(err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// PeriodStat diffs the tree as it was before since against HEAD, counting the
// commits on HEAD dated in [since, now]
func (r *Repo) PeriodStat(ctx context.Context, since time.Time) (RangeStat, error) {
	if !r.hasHead(ctx) {
		return RangeStat{}, nil
	}

	commits, err := r.listCommits(ctx, "HEAD", since, time.Now().Add(time.Second))
	if err != nil {
		return RangeStat{}, err
	}
	if len(commits) == 0 {
		return RangeStat{}, nil
	}

	from, err := r.CommitBefore(ctx, since)
	if err != nil {
		return RangeStat{}, err
	}
	if from == "" {
		from = EmptyTreeHash
	}

	summary, err := r.ShortStat(ctx, from, "HEAD")
	if err != nil {
		return RangeStat{}, err
	}

	return RangeStat{SummaryStat: summary, Commits: len(commits), From: from, To: "HEAD"}, nil
}

// DayStat diffs from the parent of the day's oldest commit on HEAD to its
// newest one
func (r *Repo) DayStat(ctx context.Context, day time.Time) (RangeStat, error) {
	if !r.hasHead(ctx) {
		return RangeStat{}, nil
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	commits, err := r.listCommits(ctx, "HEAD", start, start.AddDate(0, 0, 1))
	if err != nil {
		return RangeStat{}, err
	}
	if len(commits) == 0 {
		return RangeStat{}, nil
	}

	// git log lists newest first
	newest := commits[0].Hash
	oldest := commits[len(commits)-1].Hash

	from, err := r.Parent(ctx, oldest)
	if err != nil {
		return RangeStat{}, err
	}
	if from == "" {
		from = EmptyTreeHash
	}

	summary, err := r.ShortStat(ctx, from, newest)
	if err != nil {
		return RangeStat{}, err
	}

	return RangeStat{SummaryStat: summary, Commits: len(commits), From: from, To: newest}, nil
}

func (r *Repo) hasHead(ctx context.Context) bool {
	_, err := r.Run(ctx, "rev-parse", "--verify", "--quiet", "HEAD")
	return err == nil
}

// notFoundAsEmpty treats a failed revision lookup as "no such commit"
func notFoundAsEmpty(err error) error {
	if errors.HasType(err, errors.ErrorTypeCommand) {
		return nil
	}
	return err
}
