package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmessner/mailminder/internal/mail"
)

// writeCandidate writes a successful generateContent response with the
// given text.
func writeCandidate(w http.ResponseWriter, text string) {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": text}},
			}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeAPIError(w http.ResponseWriter, code int, status, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":%q,"status":%q}}`, code, message, status)
}

// newTestClient builds a client against a local test server with fast
// pacing and backoff so tests stay quick.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		APIKey:        "test-key",
		BaseURL:       srv.URL,
		MinInterval:   time.Millisecond,
		QuotaCooldown: 5 * time.Millisecond,
		RetryDelay:    time.Millisecond,
	})
	require.NoError(t, err)
	return c, srv
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestGenerateRetriesThenSucceeds(t *testing.T) {
	var calls int
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "transient failure")
			return
		}
		writeCandidate(w, "Important")
	})

	got, err := c.generate(context.Background(), "categorize", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Important", got)
	assert.Equal(t, 2, calls)
}

func TestGenerateExhaustsAttempts(t *testing.T) {
	var calls int
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "still broken")
	})

	_, err := c.generate(context.Background(), "categorize", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still broken")
	assert.Equal(t, DefaultMaxAttempts, calls)
}

func TestGenerateQuotaErrorPropagatesOnLastAttempt(t *testing.T) {
	var calls int
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		writeAPIError(w, http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", "quota exceeded")
	})

	_, err := c.generate(context.Background(), "categorize", "prompt")
	require.Error(t, err)
	assert.True(t, isQuotaError(err))
	assert.Equal(t, DefaultMaxAttempts, calls)
}

func TestPacerEnforcesSpacing(t *testing.T) {
	p := newPacer(100 * time.Millisecond)

	p.Wait()
	start := time.Now()
	waited := p.Wait()
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, waited, 50*time.Millisecond)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
}

func TestPacerConcurrentCallers(t *testing.T) {
	const interval = 60 * time.Millisecond
	p := newPacer(interval)

	var mu sync.Mutex
	var stamps []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Wait()
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		assert.GreaterOrEqual(t, gap, interval-10*time.Millisecond,
			"calls %d and %d fired within the pacing window", i-1, i)
	}
}

func TestIsQuotaError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429 status", &providerError{statusCode: http.StatusTooManyRequests}, true},
		{"quota in message", &providerError{message: "Quota exceeded for requests"}, true},
		{"rate limit in message", fmt.Errorf("provider rate limit hit"), true},
		{"resource exhausted", &providerError{status: "x", message: "RESOURCE_EXHAUSTED"}, true},
		{"plain failure", &providerError{statusCode: 500, message: "boom"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isQuotaError(tt.err))
		})
	}
}

func TestCategorizeLabels(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected mail.Category
	}{
		{"plain label", "Important", mail.CategoryImportant},
		{"label in sentence", "This email is clearly Spam.", mail.CategorySpam},
		{"newsletter", "newsletter", mail.CategoryNewsletter},
		{"todo with hyphen", "To-Do", mail.CategoryToDo},
		{"todo without hyphen", "TODO", mail.CategoryToDo},
		{"spam beats important", "important but actually spam", mail.CategorySpam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				writeCandidate(w, tt.response)
			})
			got := c.Categorize(context.Background(), mail.Message{Subject: "hello"}, "")
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCategorizeHeuristicFallback(t *testing.T) {
	// The provider answers with no recognizable label; the deterministic
	// heuristics take over.
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeCandidate(w, "I cannot classify this message.")
	})

	msg := mail.Message{
		Subject: "YOU WON $1,000,000!!! CLAIM NOW!!!",
		From:    "spam.bot@randomsite.xyz",
	}
	assert.Equal(t, mail.CategorySpam, c.Categorize(context.Background(), msg, ""))
}

func TestCategorizeProviderFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "down")
	})

	got := c.Categorize(context.Background(), mail.Message{Subject: "x"}, "")
	assert.Equal(t, mail.CategoryUncategorized, got)
}

func TestExtractActionItems(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected []mail.Task
	}{
		{
			name:     "fenced json",
			response: "```json\n{\"tasks\":[{\"task\":\"Send report\",\"deadline\":\"Friday\"}]}\n```",
			expected: []mail.Task{{Task: "Send report", Deadline: "Friday"}},
		},
		{
			name:     "json with commentary",
			response: "Here are the tasks:\n{\"tasks\":[{\"task\":\"Review doc\"}]}\nLet me know!",
			expected: []mail.Task{{Task: "Review doc", Deadline: "Not specified"}},
		},
		{
			name:     "no json at all",
			response: "There are no tasks in this email.",
			expected: []mail.Task{},
		},
		{
			name:     "malformed json",
			response: "{\"tasks\":[{\"task\":\"broken\"",
			expected: []mail.Task{},
		},
		{
			name:     "empty task and non-object entries dropped",
			response: "{\"tasks\":[{\"task\":\"  \"},\"not-an-object\",{\"task\":\" Ship it \"}]}",
			expected: []mail.Task{{Task: "Ship it", Deadline: "Not specified"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				writeCandidate(w, tt.response)
			})
			got := c.ExtractActionItems(context.Background(), mail.Message{Subject: "x"}, "")
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractActionItemsProviderFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "down")
	})

	got := c.ExtractActionItems(context.Background(), mail.Message{}, "")
	assert.Equal(t, []mail.Task{}, got)
}

func TestGenerateReplyStripsEmphasis(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeCandidate(w, "Hi **John**,\n\nThanks for the **update**.")
	})

	got := c.GenerateReply(context.Background(), mail.Message{From: "john@example.com"}, "")
	assert.Equal(t, "Hi John,\n\nThanks for the update.", got)
}

func TestGenerateReplyFallback(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "down")
	})

	got := c.GenerateReply(context.Background(), mail.Message{From: "john.smith@techcorp.com"}, "")
	assert.Contains(t, got, "Hi John Smith,")
	assert.Contains(t, got, "Thank you for your email.")
}

func TestSenderName(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{"john.smith@techcorp.com", "John Smith"},
		{"alice@example.com", "Alice"},
		{"no-at-sign", "No-at-sign"},
		{"@example.com", "there"},
		{"", "there"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, senderName(tt.from), "from=%q", tt.from)
	}
}

func TestChatAnswerTruncatesHistory(t *testing.T) {
	var prompt string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt = req.Contents[0].Parts[0].Text
		writeCandidate(w, "answer")
	})

	history := "line1\nline2\nline3\nline4\nline5\nline6"
	got := c.ChatAnswer(context.Background(), mail.Message{Subject: "x"}, "question?", history, "")
	assert.Equal(t, "answer", got)

	// Only the last four lines of history make it into the prompt.
	assert.NotContains(t, prompt, "line1")
	assert.NotContains(t, prompt, "line2")
	assert.Contains(t, prompt, "line3")
	assert.Contains(t, prompt, "line6")
}

func TestChatAnswerFallback(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeAPIError(w, http.StatusInternalServerError, "INTERNAL", "down")
	})

	got := c.ChatAnswer(context.Background(), mail.Message{}, "q", "", "")
	assert.Equal(t, "I encountered an error processing your request. Please try again.", got)
}

func TestPing(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeCandidate(w, "OK")
	})

	ok, detail := c.Ping(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "OK", detail)
}
