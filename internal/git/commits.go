package git

import (
	"context"
	"strings"
	"time"
)

// Commit log framing. The unit separator delimits fields and the record
// separator ends each commit, so multi-line messages parse intact.
const (
	fieldSeparator  = "\x1f"
	recordSeparator = "\x1e"
	logFormat       = "--pretty=format:%H%x1f%ae%x1f%an%x1f%aI%x1f%B%x1e"
)

// gitTimeLayout is an absolute timestamp format git's date parser accepts
const gitTimeLayout = "2006-01-02 15:04:05 -0700"

// CommitInfo is one commit as listed by git log
type CommitInfo struct {
	Hash        string
	AuthorEmail string
	AuthorName  string
	Timestamp   time.Time
	Message     string
}

// ListCommits returns commits reachable from any ref whose date falls in
// [since, until), each hash once, in first-seen order
func (r *Repo) ListCommits(ctx context.Context, since, until time.Time) ([]CommitInfo, error) {
	return r.listCommits(ctx, "--all", since, until)
}

func (r *Repo) listCommits(ctx context.Context, rev string, since, until time.Time) ([]CommitInfo, error) {
	args := []string{
		"log",
		rev,
		"--since=" + since.Format(gitTimeLayout),
		// git's --until is inclusive and timestamps have second precision
		"--until=" + until.Add(-time.Second).Format(gitTimeLayout),
		logFormat,
	}

	res, err := r.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	if res.IsEmpty() {
		return nil, nil
	}

	return ParseLog(res.Stdout), nil
}

// ParseLog parses output produced with logFormat. Malformed records are
// skipped and duplicate hashes keep their first occurrence.
func ParseLog(output string) []CommitInfo {
	var commits []CommitInfo
	seen := make(map[string]struct{})

	for _, record := range strings.Split(output, recordSeparator) {
		record = strings.TrimLeft(record, "\r\n")
		if strings.TrimSpace(record) == "" {
			continue
		}

		fields := strings.SplitN(record, fieldSeparator, 5)
		if len(fields) != 5 {
			continue
		}

		hash := strings.TrimSpace(fields[0])
		if !isCommitHash(hash) {
			continue
		}
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}

		timestamp, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[3]))
		if err != nil {
			timestamp = time.Time{}
		}

		commits = append(commits, CommitInfo{
			Hash:        hash,
			AuthorEmail: strings.TrimSpace(fields[1]),
			AuthorName:  strings.TrimSpace(fields[2]),
			Timestamp:   timestamp,
			Message:     strings.TrimRight(fields[4], "\r\n"),
		})
	}

	return commits
}

// isCommitHash accepts full SHA-1 and SHA-256 object names
func isCommitHash(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
