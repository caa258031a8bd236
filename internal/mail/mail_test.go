package mail

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicCategory(t *testing.T) {
	tests := []struct {
		name     string
		subject  string
		sender   string
		expected Category
	}{
		{"excess punctuation", "YOU WON $1,000,000!!! CLAIM NOW!!!", "spam.bot@randomsite.xyz", CategorySpam},
		{"suspicious tld", "Quick question", "someone@weird.xyz", CategorySpam},
		{"monetary win", "you won a prize", "friendly@example.com", CategorySpam},
		{"newsletter sender", "Weekly digest", "newsletter@techdigest.com", CategoryNewsletter},
		{"digest sender", "This week in Go", "weekly.digest@example.com", CategoryNewsletter},
		{"action required", "Q4 Deadline - Action Required", "boss@example.com", CategoryToDo},
		{"polite request", "Please review the attached", "colleague@example.com", CategoryToDo},
		{"need phrasing", "We need the numbers", "colleague@example.com", CategoryToDo},
		{"default important", "Meeting notes", "colleague@example.com", CategoryImportant},
		// Spam rules win over the newsletter sender.
		{"spam beats newsletter", "CLAIM NOW!!!", "newsletter@techdigest.com", CategorySpam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HeuristicCategory(tt.subject, tt.sender))
		})
	}
}

func TestCategoryNeedsActionItems(t *testing.T) {
	assert.True(t, CategoryImportant.NeedsActionItems())
	assert.True(t, CategoryToDo.NeedsActionItems())
	assert.False(t, CategoryNewsletter.NeedsActionItems())
	assert.False(t, CategorySpam.NeedsActionItems())
	assert.False(t, CategoryError.NeedsActionItems())
	assert.False(t, CategoryUncategorized.NeedsActionItems())
	assert.False(t, CategoryNone.NeedsActionItems())
}

func TestCategoryValid(t *testing.T) {
	for _, c := range []Category{CategoryNone, CategoryImportant, CategoryNewsletter,
		CategorySpam, CategoryToDo, CategoryError, CategoryUncategorized} {
		assert.True(t, c.Valid(), "category %q", c)
	}
	assert.False(t, Category("Junk").Valid())
}

func TestTruncateBody(t *testing.T) {
	m := Message{Body: strings.Repeat("x", MaxBodyLength+200)}
	m.TruncateBody()
	assert.Len(t, m.Body, MaxBodyLength)

	short := Message{Body: "hello"}
	short.TruncateBody()
	assert.Equal(t, "hello", short.Body)
}

func TestTruncateBodyRuneBoundary(t *testing.T) {
	// Place a multi-byte rune across the cap so a byte-index cut would
	// leave an invalid trailing byte.
	m := Message{Body: strings.Repeat("x", MaxBodyLength-1) + "éllo"}
	m.TruncateBody()
	assert.True(t, utf8.ValidString(m.Body))
	assert.LessOrEqual(t, len(m.Body), MaxBodyLength)
	assert.True(t, strings.HasSuffix(m.Body, "x"))
}

func TestPromptSetMerge(t *testing.T) {
	p := PromptSet{
		Categorization: "cat",
		ActionItem:     "act",
		AutoReply:      "reply",
		Chat:           "chat",
	}
	p.Merge(PromptSet{Chat: "new chat"})

	assert.Equal(t, "new chat", p.Chat)
	assert.Equal(t, "cat", p.Categorization)
	assert.Equal(t, "act", p.ActionItem)
	assert.Equal(t, "reply", p.AutoReply)
	assert.True(t, p.Complete())
}

func TestPromptSetComplete(t *testing.T) {
	assert.False(t, PromptSet{}.Complete())
	assert.False(t, PromptSet{Categorization: "a", ActionItem: "b", AutoReply: "c"}.Complete())
}

func TestMockSourceBuiltinSamples(t *testing.T) {
	src := NewMockSource("", nil, nil)

	msgs, err := src.ListMessages(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "mock_1", msgs[0].ID)
	assert.Equal(t, CategoryNone, msgs[0].Category)
	assert.Empty(t, msgs[0].ActionItems)
}

func TestMockSourceFixtureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.json")
	fixture := `[
		{"id":"f1","from":"a@example.com","subject":"one","body":"` + strings.Repeat("b", MaxBodyLength+100) + `"},
		{"id":"f2","from":"b@example.com","subject":"two","body":"short"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	src := NewMockSource(path, nil, nil)
	msgs, err := src.ListMessages(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "f1", msgs[0].ID)
	// The body cap applies to fixture messages too.
	assert.Len(t, msgs[0].Body, MaxBodyLength)
}

func TestMockSourceRespectsMax(t *testing.T) {
	src := NewMockSource("", nil, nil)
	msgs, err := src.ListMessages(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestMockSourceCorruptFixtureFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	src := NewMockSource(path, nil, nil)
	msgs, err := src.ListMessages(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 3)
}
