package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmessner/mailminder/internal/logging"
	"github.com/tmessner/mailminder/internal/mail"
)

// Prompt-level truncation caps. The ingestion cap (mail.MaxBodyLength)
// already bounds stored bodies; these keep individual prompts small.
const (
	categorizeBodyCap = 500
	extractBodyCap    = 800
	replyBodyCap      = 800
	chatBodyCap       = 800

	// chatHistoryLines is how many trailing lines of prior conversation
	// are embedded into a chat prompt.
	chatHistoryLines = 4
)

// Default instruction headers, used when the prompt set supplies no
// template for an operation.
const (
	defaultCategorizePrompt = "Categorize this email. Reply with ONLY one word: Important, Newsletter, Spam, or To-Do"
	defaultExtractPrompt    = "Extract action items as JSON. Reply ONLY with JSON."
	defaultReplyPrompt      = "Write a brief professional reply."
	defaultChatPrompt       = "You are an email assistant. Answer questions about emails clearly and helpfully."
)

// Categorize classifies a message into one of the four content
// categories. The model response is pattern-matched against the known
// labels; when none is recognized the deterministic heuristics take over.
// An unrecoverable provider failure yields Uncategorized, never an error.
func (c *Client) Categorize(ctx context.Context, msg mail.Message, promptTemplate string) mail.Category {
	header := promptTemplate
	if header == "" {
		header = defaultCategorizePrompt
	}
	prompt := fmt.Sprintf(`%s

From: %s
Subject: %s
Body: %s

Category:`, header, msg.From, msg.Subject, truncate(msg.Body, categorizeBodyCap))

	result, err := c.generate(ctx, "categorize", prompt)
	if err != nil {
		c.logger.Error("categorization failed", logging.Operation("categorize"), logging.Err(err))
		return mail.CategoryUncategorized
	}

	// Label indicators are checked in priority order; first match wins.
	answer := strings.ToLower(strings.TrimSpace(result))
	switch {
	case strings.Contains(answer, "spam"):
		return mail.CategorySpam
	case strings.Contains(answer, "newsletter"):
		return mail.CategoryNewsletter
	case strings.Contains(answer, "todo"), strings.Contains(answer, "to-do"):
		return mail.CategoryToDo
	case strings.Contains(answer, "important"):
		return mail.CategoryImportant
	}

	return mail.HeuristicCategory(msg.Subject, msg.From)
}

// ExtractActionItems pulls actionable tasks out of a message. The model
// is asked for a {"tasks":[...]} JSON object; the response is defensively
// unfenced, the first brace-delimited substring parsed, and malformed or
// missing JSON degrades to an empty list. Provider failure likewise
// returns an empty list.
func (c *Client) ExtractActionItems(ctx context.Context, msg mail.Message, promptTemplate string) []mail.Task {
	header := promptTemplate
	if header == "" {
		header = defaultExtractPrompt
	}
	prompt := fmt.Sprintf(`%s

Email:
From: %s
Subject: %s
Body: %s

Format: {"tasks":[{"task":"...", "deadline":"..."}]}
If no tasks: {"tasks":[]}

JSON:`, header, msg.From, msg.Subject, truncate(msg.Body, extractBodyCap))

	result, err := c.generate(ctx, "extract_action_items", prompt)
	if err != nil {
		c.logger.Error("action item extraction failed", logging.Operation("extract_action_items"), logging.Err(err))
		return []mail.Task{}
	}

	return c.parseTasks(result)
}

// parseTasks turns a raw model response into a well-formed task list.
// It never fails; anything unparseable becomes an empty list.
func (c *Client) parseTasks(raw string) []mail.Task {
	cleaned := stripCodeFences(raw)
	payload := extractJSONObject(cleaned)
	if payload == "" {
		c.logger.Warn("no JSON object found in model response", logging.Operation("extract_action_items"))
		return []mail.Task{}
	}

	var parsed struct {
		Tasks []json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		c.logger.Warn("model response is not valid JSON", logging.Operation("extract_action_items"), logging.Err(err))
		return []mail.Task{}
	}

	tasks := make([]mail.Task, 0, len(parsed.Tasks))
	for _, entry := range parsed.Tasks {
		var t mail.Task
		// Entries that are not object-shaped fail to unmarshal and are
		// dropped rather than aborting the whole list.
		if err := json.Unmarshal(entry, &t); err != nil {
			continue
		}
		t.Task = strings.TrimSpace(t.Task)
		if t.Task == "" {
			continue
		}
		if t.Deadline == "" {
			t.Deadline = mail.NoDeadline
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// GenerateReply drafts a short professional reply to a message. Emphasis
// markup is stripped from the result. On unrecoverable provider failure a
// generic reply addressed to the sender is synthesized instead; that path
// cannot fail.
func (c *Client) GenerateReply(ctx context.Context, msg mail.Message, promptTemplate string) string {
	header := promptTemplate
	if header == "" {
		header = defaultReplyPrompt
	}
	prompt := fmt.Sprintf(`%s

Original:
From: %s
Subject: %s
Body: %s

Reply (2-3 paragraphs):`, header, msg.From, msg.Subject, truncate(msg.Body, replyBodyCap))

	reply, err := c.generate(ctx, "generate_reply", prompt)
	if err != nil {
		c.logger.Error("reply generation failed", logging.Operation("generate_reply"), logging.Err(err))
		return fallbackReply(msg.From)
	}
	return strings.TrimSpace(strings.ReplaceAll(reply, "**", ""))
}

// fallbackReply synthesizes the boilerplate used when the provider is
// unavailable, greeting the sender by a name derived from the address
// local-part.
func fallbackReply(from string) string {
	name := senderName(from)
	return fmt.Sprintf("Hi %s,\n\nThank you for your email. I'll review this and get back to you soon.\n\nBest regards", name)
}

// senderName derives a display name from an email address: the text
// before '@' with dots turned into spaces and each word title-cased.
func senderName(from string) string {
	local := from
	if i := strings.Index(from, "@"); i >= 0 {
		local = from[:i]
	}
	if local == "" {
		return "there"
	}
	words := strings.Split(strings.ReplaceAll(local, ".", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ChatAnswer answers a free-form question about a message, optionally
// embedding the tail of the prior conversation. Provider failure returns
// a fixed apologetic fallback, never an error.
func (c *Client) ChatAnswer(ctx context.Context, msg mail.Message, question, history, promptTemplate string) string {
	header := promptTemplate
	if header == "" {
		header = defaultChatPrompt
	}

	historyBlock := ""
	if history != "" {
		lines := strings.Split(history, "\n")
		if len(lines) > chatHistoryLines {
			lines = lines[len(lines)-chatHistoryLines:]
		}
		historyBlock = "\n\nPrevious:\n" + strings.Join(lines, "\n")
	}

	prompt := fmt.Sprintf(`%s

Email:
From: %s
Subject: %s
Body: %s%s

Question: %s

Answer (be concise):`, header, msg.From, msg.Subject, truncate(msg.Body, chatBodyCap), historyBlock, question)

	answer, err := c.generate(ctx, "chat", prompt)
	if err != nil {
		c.logger.Error("chat answer failed", logging.Operation("chat"), logging.Err(err))
		return "I encountered an error processing your request. Please try again."
	}
	return answer
}
