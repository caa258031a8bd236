package agent

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmessner/mailminder/internal/mail"
	"github.com/tmessner/mailminder/internal/store"
)

// fakeGenerator returns scripted results and records which operations
// ran for which messages.
type fakeGenerator struct {
	categories map[string]mail.Category
	tasks      map[string][]mail.Task
	reply      string
	answer     string

	extracted []string
}

func (f *fakeGenerator) Categorize(_ context.Context, msg mail.Message, _ string) mail.Category {
	if c, ok := f.categories[msg.ID]; ok {
		return c
	}
	return mail.CategoryUncategorized
}

func (f *fakeGenerator) ExtractActionItems(_ context.Context, msg mail.Message, _ string) []mail.Task {
	f.extracted = append(f.extracted, msg.ID)
	return f.tasks[msg.ID]
}

func (f *fakeGenerator) GenerateReply(_ context.Context, _ mail.Message, _ string) string {
	return f.reply
}

func (f *fakeGenerator) ChatAnswer(_ context.Context, _ mail.Message, _, _, _ string) string {
	return f.answer
}

type staticSource struct {
	msgs []mail.Message
	err  error
}

func (s *staticSource) ListMessages(context.Context, int) ([]mail.Message, error) {
	return s.msgs, s.err
}

func newTestAgent(t *testing.T, gen Generator) *Agent {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "data.json"), "", nil)
	require.NoError(t, err)
	return New(gen, st, nil, nil)
}

func TestIngestStoresMessages(t *testing.T) {
	a := newTestAgent(t, &fakeGenerator{})
	src := &staticSource{msgs: []mail.Message{
		{ID: "m1", From: "a@example.com", Subject: "one"},
		{ID: "m2", From: "b@example.com", Subject: "two"},
	}}

	got, err := a.Ingest(context.Background(), src, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Len(t, a.Store().GetMessages(), 2)
}

func TestIngestSourceError(t *testing.T) {
	a := newTestAgent(t, &fakeGenerator{})
	src := &staticSource{err: errors.New("mailbox unavailable")}

	_, err := a.Ingest(context.Background(), src, 10)
	assert.ErrorContains(t, err, "mailbox unavailable")
}

func TestProcessAllExtractsOnlyActionCategories(t *testing.T) {
	gen := &fakeGenerator{
		categories: map[string]mail.Category{
			"m1": mail.CategoryImportant,
			"m2": mail.CategoryNewsletter,
			"m3": mail.CategoryToDo,
		},
		tasks: map[string][]mail.Task{
			"m1": {{Task: "Send report", Deadline: "Friday"}},
			"m3": {},
		},
	}
	a := newTestAgent(t, gen)
	require.NoError(t, a.Store().ReplaceMessages([]mail.Message{
		{ID: "m1"}, {ID: "m2"}, {ID: "m3"},
	}))

	got, err := a.ProcessAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, mail.CategoryImportant, got[0].Category)
	assert.Equal(t, []mail.Task{{Task: "Send report", Deadline: "Friday"}}, got[0].ActionItems)

	// Newsletter never reaches extraction and keeps an empty task list.
	assert.Equal(t, mail.CategoryNewsletter, got[1].Category)
	assert.Empty(t, got[1].ActionItems)
	assert.NotContains(t, gen.extracted, "m2")

	// The batch result is persisted.
	assert.Equal(t, got, a.Store().GetMessages())
}

func TestProcessAllCancelledContextMarksError(t *testing.T) {
	a := newTestAgent(t, &fakeGenerator{})
	require.NoError(t, a.Store().ReplaceMessages([]mail.Message{{ID: "m1"}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := a.ProcessAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mail.CategoryError, got[0].Category)
	assert.Empty(t, got[0].ActionItems)
}

func TestGenerateDraft(t *testing.T) {
	a := newTestAgent(t, &fakeGenerator{reply: "Thanks, I'll take a look."})
	msg := mail.Message{ID: "m1", From: "alice@example.com", Subject: "Budget numbers"}

	draft, err := a.GenerateDraft(context.Background(), msg)
	require.NoError(t, err)

	assert.NotEmpty(t, draft.ID)
	assert.Equal(t, "alice@example.com", draft.To)
	assert.Equal(t, "Re: Budget numbers", draft.Subject)
	assert.Equal(t, "Thanks, I'll take a look.", draft.Body)
	assert.Equal(t, "m1", draft.OriginalEmailID)
	assert.Equal(t, mail.DraftStatus, draft.Status)
	assert.Len(t, a.Store().GetDrafts(), 1)
}

func TestReplySubject(t *testing.T) {
	assert.Equal(t, "Re: Hello", replySubject("Hello"))
	assert.Equal(t, "Re: Hello", replySubject("Re: Hello"))
	assert.Equal(t, "RE: Hello", replySubject("RE: Hello"))
}

func TestChat(t *testing.T) {
	a := newTestAgent(t, &fakeGenerator{answer: "It asks for the Q3 numbers."})
	got := a.Chat(context.Background(), mail.Message{ID: "m1"}, "what does it want?", "")
	assert.Equal(t, "It asks for the Q3 numbers.", got)
}
