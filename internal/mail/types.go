package mail

import (
	"context"
	"unicode/utf8"
)

// MaxBodyLength is the cap applied to message bodies at ingestion.
// Bodies longer than this are truncated before the message enters the
// system; prompts apply their own, tighter caps on top of it.
const MaxBodyLength = 1000

// Category is the classification assigned to a message.
type Category string

// Known categories. A freshly ingested message has CategoryNone until the
// processing step assigns one of the others.
const (
	CategoryNone          Category = ""
	CategoryImportant     Category = "Important"
	CategoryNewsletter    Category = "Newsletter"
	CategorySpam          Category = "Spam"
	CategoryToDo          Category = "To-Do"
	CategoryError         Category = "Error"
	CategoryUncategorized Category = "Uncategorized"
)

// Valid reports whether c is one of the known category values, including
// the empty "not yet classified" state.
func (c Category) Valid() bool {
	switch c {
	case CategoryNone, CategoryImportant, CategoryNewsletter, CategorySpam,
		CategoryToDo, CategoryError, CategoryUncategorized:
		return true
	}
	return false
}

// NeedsActionItems reports whether messages of this category go through
// task extraction. Only Important and To-Do messages carry action items.
func (c Category) NeedsActionItems() bool {
	return c == CategoryImportant || c == CategoryToDo
}

// Task is a single actionable obligation extracted from a message.
type Task struct {
	Task     string `json:"task"`
	Deadline string `json:"deadline"`
}

// NoDeadline is the deadline value used when a task mentions none.
const NoDeadline = "Not specified"

// Message is a normalized email record.
type Message struct {
	ID          string   `json:"id"`
	From        string   `json:"from"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	Timestamp   string   `json:"timestamp"`
	Category    Category `json:"category"`
	ActionItems []Task   `json:"actionItems"`
}

// TruncateBody applies the ingestion body cap to m in place. The cut
// backs off to a rune boundary so the stored body stays valid UTF-8.
func (m *Message) TruncateBody() {
	if len(m.Body) <= MaxBodyLength {
		return
	}
	n := MaxBodyLength
	for n > 0 && !utf8.RuneStart(m.Body[n]) {
		n--
	}
	m.Body = m.Body[:n]
}

// Draft is a generated candidate reply awaiting human review. Drafts are
// immutable once created; the only mutation is deletion.
type Draft struct {
	ID              string `json:"id"`
	To              string `json:"to"`
	Subject         string `json:"subject"`
	Body            string `json:"body"`
	OriginalEmailID string `json:"originalEmailId"`
	CreatedAt       string `json:"createdAt"`
	Status          string `json:"status"`
}

// DraftStatus is the only status drafts currently take.
const DraftStatus = "draft"

// PromptSet maps each generative operation to its steering template.
type PromptSet struct {
	Categorization string `json:"categorization"`
	ActionItem     string `json:"actionItem"`
	AutoReply      string `json:"autoReply"`
	Chat           string `json:"chat"`
}

// Merge overlays non-empty fields of other onto p, leaving unspecified
// keys untouched. This is the partial-update semantics of the prompts API.
func (p *PromptSet) Merge(other PromptSet) {
	if other.Categorization != "" {
		p.Categorization = other.Categorization
	}
	if other.ActionItem != "" {
		p.ActionItem = other.ActionItem
	}
	if other.AutoReply != "" {
		p.AutoReply = other.AutoReply
	}
	if other.Chat != "" {
		p.Chat = other.Chat
	}
}

// Complete reports whether all four prompt keys are populated.
func (p PromptSet) Complete() bool {
	return p.Categorization != "" && p.ActionItem != "" && p.AutoReply != "" && p.Chat != ""
}

// Source supplies normalized messages from a mailbox or a fixture.
// Implementations must apply the MaxBodyLength truncation rule.
type Source interface {
	// ListMessages returns up to max messages, newest first.
	ListMessages(ctx context.Context, max int) ([]Message, error)
}
