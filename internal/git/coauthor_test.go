package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCoAuthors(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    []CoAuthor
	}{
		{
			name:    "bare claude",
			message: "Co-Authored-By: Claude",
			want:    []CoAuthor{{Name: "Claude", Email: "claude@anthropic.com", IsAI: true}},
		},
		{
			name:    "human co-author",
			message: "Fix bug\n\nCo-Authored-By: Jane Doe <jane@x.com>",
			want:    []CoAuthor{{Name: "Jane Doe", Email: "jane@x.com", IsAI: false}},
		},
		{
			name:    "ai by email",
			message: "Add feature\n\nCo-Authored-By: Assistant <noreply@CLAUDE.ai>",
			want:    []CoAuthor{{Name: "Assistant", Email: "noreply@CLAUDE.ai", IsAI: true}},
		},
		{
			name:    "ai by name",
			message: "Co-Authored-By: claude <bot@example.com>  \r",
			want:    []CoAuthor{{Name: "claude", Email: "bot@example.com", IsAI: true}},
		},
		{
			name:    "duplicates preserved",
			message: "x\n\nCo-Authored-By: Jane <jane@x.com>\nCo-Authored-By: Jane <jane@x.com>",
			want: []CoAuthor{
				{Name: "Jane", Email: "jane@x.com"},
				{Name: "Jane", Email: "jane@x.com"},
			},
		},
		{
			name:    "prefix is case sensitive",
			message: "co-authored-by: Jane <jane@x.com>",
			want:    nil,
		},
		{
			name:    "bare non-claude name skipped",
			message: "Co-Authored-By: Jane",
			want:    nil,
		},
		{
			name:    "bare claude variant skipped",
			message: "Co-Authored-By: Claude Code",
			want:    nil,
		},
		{
			name:    "indented trailer ignored",
			message: "Quoted:\n  Co-Authored-By: Jane <jane@x.com>\n> Co-Authored-By: Joe <joe@x.com>",
			want:    nil,
		},
		{
			name:    "crlf line endings",
			message: "x\r\n\r\nCo-Authored-By: Jane <jane@x.com>\r\nCo-Authored-By: Claude\r\n",
			want: []CoAuthor{
				{Name: "Jane", Email: "jane@x.com"},
				{Name: "Claude", Email: "claude@anthropic.com", IsAI: true},
			},
		},
		{
			name:    "unterminated email skipped",
			message: "Co-Authored-By: Jane <jane@x.com",
			want:    nil,
		},
		{
			name:    "empty email skipped",
			message: "Co-Authored-By: Jane <>",
			want:    nil,
		},
		{
			name:    "no trailers",
			message: "Just a message",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCoAuthors(tt.message))
		})
	}
}
