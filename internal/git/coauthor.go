package git

import (
	"strings"
)

const (
	// CoAuthorTrailer is the case-sensitive trailer key recognised in messages
	CoAuthorTrailer = "Co-Authored-By:"
	// ClaudeName is the display name of the sentinel AI identity
	ClaudeName = "Claude"
	// ClaudeEmail is the sentinel email for the legacy bare "Claude" trailer
	ClaudeEmail = "claude@anthropic.com"
)

// CoAuthor is one co-authorship trailer found in a commit message
type CoAuthor struct {
	Name  string
	Email string
	IsAI  bool
}

// ExtractCoAuthors returns one entry per Co-Authored-By trailer, in message
// order. Only lines starting with the trailer key count, so indented or
// quoted trailers are ignored. Duplicates are kept; merging identities is the
// caller's job.
func ExtractCoAuthors(message string) []CoAuthor {
	var coAuthors []CoAuthor

	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, CoAuthorTrailer) {
			continue
		}

		value := strings.TrimSpace(line[len(CoAuthorTrailer):])
		if value == "" {
			continue
		}

		open := strings.Index(value, "<")
		if open < 0 {
			// Legacy short form carries no email and only ever names Claude.
			// Any other bare name has no identity to attach to.
			if strings.EqualFold(value, ClaudeName) {
				coAuthors = append(coAuthors, CoAuthor{
					Name:  ClaudeName,
					Email: ClaudeEmail,
					IsAI:  true,
				})
			}
			continue
		}

		closing := strings.Index(value[open+1:], ">")
		if closing < 0 {
			continue
		}

		name := strings.TrimSpace(value[:open])
		email := strings.TrimSpace(value[open+1 : open+1+closing])
		if email == "" {
			continue
		}

		coAuthors = append(coAuthors, CoAuthor{
			Name:  name,
			Email: email,
			IsAI:  isAIIdentity(name, email),
		})
	}

	return coAuthors
}

func isAIIdentity(name, email string) bool {
	return strings.EqualFold(name, "claude") ||
		strings.Contains(strings.ToLower(email), "claude")
}
