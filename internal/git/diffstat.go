package git

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	filesChangedPattern = regexp.MustCompile(`(\d+) files? changed`)
	insertionsPattern   = regexp.MustCompile(`(\d+) insertions?\(\+\)`)
	deletionsPattern    = regexp.MustCompile(`(\d+) deletions?\(-\)`)
)

// SummaryStat is a parsed shortstat line
type SummaryStat struct {
	FilesChanged int `json:"files_changed" yaml:"files_changed"`
	Insertions   int `json:"insertions" yaml:"insertions"`
	Deletions    int `json:"deletions" yaml:"deletions"`
}

// DetailedStat is a parsed per-commit --stat listing. Files holds each
// distinct path once, however many hunks touched it.
type DetailedStat struct {
	Insertions int
	Deletions  int
	Files      map[string]struct{}
}

// FilesChanged is the number of distinct paths in the listing
func (d DetailedStat) FilesChanged() int {
	return len(d.Files)
}

// Paths returns the changed paths in sorted order
func (d DetailedStat) Paths() []string {
	paths := make([]string, 0, len(d.Files))
	for p := range d.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ParseSummary extracts "<N> file(s) changed[, <N> insertion(s)(+)][, <N> deletion(s)(-)]".
// Absent clauses are zero; text without a summary yields all zeros.
func ParseSummary(text string) SummaryStat {
	var stat SummaryStat
	if text == "" {
		return stat
	}

	stat.FilesChanged = firstInt(filesChangedPattern, text)
	stat.Insertions = firstInt(insertionsPattern, text)
	stat.Deletions = firstInt(deletionsPattern, text)
	return stat
}

// ParseDetailed extracts line counts and distinct file paths from
// `git show --stat` output. Empty or unrecognised text yields zeros.
func ParseDetailed(text string) DetailedStat {
	stat := DetailedStat{Files: make(map[string]struct{})}
	if text == "" {
		return stat
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")

		if filesChangedPattern.MatchString(line) && !strings.Contains(line, "|") {
			stat.Insertions += firstInt(insertionsPattern, line)
			stat.Deletions += firstInt(deletionsPattern, line)
			continue
		}

		// git indents every stat row by one column; anything deeper is not a file row
		row := strings.TrimPrefix(line, " ")
		if row == "" || row[0] == ' ' || row[0] == '\t' {
			continue
		}

		bar := strings.LastIndex(row, "|")
		if bar < 0 {
			continue
		}
		if path := strings.TrimSpace(row[:bar]); path != "" {
			stat.Files[path] = struct{}{}
		}
	}

	return stat
}

// CommitStat returns the detailed diff statistics of a single commit
func (r *Repo) CommitStat(ctx context.Context, hash string) (DetailedStat, error) {
	res, err := r.Run(ctx, "show",
		"--stat",
		"--stat-width=4096",
		"--stat-name-width=4000",
		"--format=",
		"--no-color",
		hash,
	)
	if err != nil {
		return DetailedStat{}, err
	}
	return ParseDetailed(res.Stdout), nil
}

// ShortStat returns the summary of the diff between two revisions
func (r *Repo) ShortStat(ctx context.Context, from, to string) (SummaryStat, error) {
	res, err := r.Run(ctx, "diff", "--shortstat", from, to)
	if err != nil {
		return SummaryStat{}, err
	}
	return ParseSummary(strings.TrimSpace(res.Stdout)), nil
}

func firstInt(pattern *regexp.Regexp, text string) int {
	m := pattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 {
		return 0
	}
	return n
}
