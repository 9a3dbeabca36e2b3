package git

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logRecord(hash, email, name, date, message string) string {
	return strings.Join([]string{hash, email, name, date, message}, fieldSeparator) + recordSeparator
}

func TestParseLog(t *testing.T) {
	h1 := strings.Repeat("a", 40)
	h2 := strings.Repeat("b", 40)

	output := logRecord(h1, "a@x.com", "Alice", "2024-03-15T10:00:00+00:00", "First\n\nCo-Authored-By: Claude\n") + "\n" +
		logRecord(h2, "b@x.com", "Bob", "2024-03-15T12:30:00+02:00", "Second") + "\n" +
		logRecord(h1, "a@x.com", "Alice", "2024-03-15T10:00:00+00:00", "First again")

	commits := ParseLog(output)
	require.Len(t, commits, 2)

	assert.Equal(t, h1, commits[0].Hash)
	assert.Equal(t, "a@x.com", commits[0].AuthorEmail)
	assert.Equal(t, "Alice", commits[0].AuthorName)
	assert.Equal(t, "First\n\nCo-Authored-By: Claude", commits[0].Message)
	assert.True(t, commits[0].Timestamp.Equal(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)))

	assert.Equal(t, h2, commits[1].Hash)
	assert.True(t, commits[1].Timestamp.Equal(time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)))
}

func TestParseLog_SkipsMalformed(t *testing.T) {
	output := "garbage" + recordSeparator +
		logRecord("not-a-hash", "a@x.com", "A", "2024-03-15T10:00:00Z", "m") +
		strings.Join([]string{strings.Repeat("c", 40), "only", "three"}, fieldSeparator) + recordSeparator

	assert.Empty(t, ParseLog(output))
	assert.Empty(t, ParseLog(""))
}

func TestIsCommitHash(t *testing.T) {
	assert.True(t, isCommitHash(strings.Repeat("0", 40)))
	assert.True(t, isCommitHash(strings.Repeat("f", 64)))
	assert.False(t, isCommitHash(strings.Repeat("F", 40)))
	assert.False(t, isCommitHash("abc123"))
}
