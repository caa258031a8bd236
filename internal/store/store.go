package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/tmessner/mailminder/internal/logging"
	"github.com/tmessner/mailminder/internal/mail"
)

// document is the on-disk shape of the store.
type document struct {
	Prompts mail.PromptSet `json:"prompts"`
	Emails  []mail.Message `json:"emails"`
	Drafts  []mail.Draft   `json:"drafts"`
}

// Store is a flat JSON-file document store. All methods are safe for
// concurrent use; each mutation rewrites the whole file.
type Store struct {
	mu          sync.Mutex
	path        string
	promptsPath string
	logger      *slog.Logger
	data        document

	// lastDraftID guards draft ID monotonicity when two drafts are
	// created within the same nanosecond tick.
	lastDraftID int64
}

// Open loads (or initializes) the store at path. defaultPromptsPath may
// name a JSON file providing the default PromptSet; when empty or
// unreadable the hardcoded defaults are used.
func Open(path, defaultPromptsPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:        path,
		promptsPath: defaultPromptsPath,
		logger:      logging.WithService(logger, "store"),
	}
	s.load()
	return s, nil
}

// load reads the persisted document, recovering from a missing or
// corrupted file by reinitializing with defaults.
func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Info("no existing data file, starting fresh", "path", s.path)
		s.data = s.defaultDocument()
		return
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("data file is corrupted, reinitializing with defaults",
			"path", s.path, logging.Err(err))
		s.data = s.defaultDocument()
		return
	}

	// A document written by an older version may miss prompt keys;
	// backfill so the PromptSet invariant holds after any initialization.
	if !doc.Prompts.Complete() {
		defaults := s.defaultPrompts()
		merged := defaults
		merged.Merge(doc.Prompts)
		doc.Prompts = merged
	}
	s.data = doc
	s.logger.Info("loaded data file", "path", s.path,
		"emails", len(doc.Emails), "drafts", len(doc.Drafts))
}

func (s *Store) defaultDocument() document {
	return document{
		Prompts: s.defaultPrompts(),
		Emails:  []mail.Message{},
		Drafts:  []mail.Draft{},
	}
}

// defaultPrompts loads the default PromptSet from the configured file,
// falling back to the hardcoded set.
func (s *Store) defaultPrompts() mail.PromptSet {
	if s.promptsPath != "" {
		if data, err := os.ReadFile(s.promptsPath); err == nil {
			var p mail.PromptSet
			if err := json.Unmarshal(data, &p); err == nil && p.Complete() {
				return p
			}
			s.logger.Warn("default prompts file unusable, using hardcoded defaults",
				"path", s.promptsPath)
		}
	}
	return hardcodedPrompts()
}

// hardcodedPrompts is the built-in PromptSet used when no prompts file is
// available.
func hardcodedPrompts() mail.PromptSet {
	return mail.PromptSet{
		Categorization: "Categorize this email into exactly ONE of these categories: Important, Newsletter, Spam, or To-Do.\n\nRules:\n- Important: Emails requiring immediate attention but no specific action\n- To-Do: Emails with explicit requests or tasks requiring your action\n- Newsletter: Promotional content, updates, or marketing emails\n- Spam: Unwanted or suspicious emails\n\nRespond with ONLY the category name.",
		ActionItem:     "Extract all actionable tasks from this email.\n\nRespond ONLY with valid JSON:\n{\n  \"tasks\": [\n    {\"task\": \"task description\", \"deadline\": \"deadline if mentioned\"}\n  ]\n}\n\nIf no tasks, return: {\"tasks\": []}",
		AutoReply:      "Generate a professional email reply based on the content.\n\n- For meeting requests: Ask for agenda\n- For task requests: Acknowledge and provide timeline\n- Keep responses concise (2-4 paragraphs)\n- Use professional, friendly tone",
		Chat:           "You are an email assistant. Answer questions about emails clearly and helpfully.",
	}
}

// save writes the document to disk. The write goes through a temp file
// and rename so a crash mid-write cannot leave a half-written document.
// Callers hold s.mu.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store document: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// GetMessages returns all stored messages.
func (s *Store) GetMessages() []mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mail.Message, len(s.data.Emails))
	copy(out, s.data.Emails)
	return out
}

// GetMessage returns the stored message with the given ID.
func (s *Store) GetMessage(id string) (mail.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.data.Emails {
		if m.ID == id {
			return m, true
		}
	}
	return mail.Message{}, false
}

// ReplaceMessages replaces the whole message collection.
func (s *Store) ReplaceMessages(msgs []mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msgs == nil {
		msgs = []mail.Message{}
	}
	s.data.Emails = msgs
	if err := s.save(); err != nil {
		return err
	}
	s.logger.Info("messages saved", logging.Operation("replace_messages"), "count", len(msgs))
	return nil
}

// GetPromptSet returns the current PromptSet.
func (s *Store) GetPromptSet() mail.PromptSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Prompts
}

// UpdatePromptSet merges the non-empty fields of partial into the stored
// PromptSet and returns the result.
func (s *Store) UpdatePromptSet(partial mail.PromptSet) (mail.PromptSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Prompts.Merge(partial)
	if err := s.save(); err != nil {
		return mail.PromptSet{}, err
	}
	s.logger.Info("prompts updated", logging.Operation("update_prompts"))
	return s.data.Prompts, nil
}

// ResetPromptSet restores the default PromptSet. Calling it twice yields
// the same set both times.
func (s *Store) ResetPromptSet() (mail.PromptSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Prompts = s.defaultPrompts()
	if err := s.save(); err != nil {
		return mail.PromptSet{}, err
	}
	s.logger.Info("prompts reset to defaults", logging.Operation("reset_prompts"))
	return s.data.Prompts, nil
}

// AddDraft stores a draft, assigning the ID, creation timestamp and
// status. The ID is derived from creation time and strictly increases.
func (s *Store) AddDraft(d mail.Draft) (mail.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	id := now.UnixNano()
	if id <= s.lastDraftID {
		id = s.lastDraftID + 1
	}
	s.lastDraftID = id

	d.ID = strconv.FormatInt(id, 10)
	d.CreatedAt = now.Format(time.RFC3339)
	d.Status = mail.DraftStatus

	s.data.Drafts = append(s.data.Drafts, d)
	if err := s.save(); err != nil {
		return mail.Draft{}, err
	}
	s.logger.Info("draft created", logging.Operation("add_draft"),
		"draft_id", d.ID, logging.UserHash(d.To))
	return d, nil
}

// GetDrafts returns all stored drafts.
func (s *Store) GetDrafts() []mail.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mail.Draft, len(s.data.Drafts))
	copy(out, s.data.Drafts)
	return out
}

// DeleteDraft removes the draft with the given ID. Deleting an unknown ID
// is not an error.
func (s *Store) DeleteDraft(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.data.Drafts[:0]
	found := false
	for _, d := range s.data.Drafts {
		if d.ID == id {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	s.data.Drafts = kept
	if !found {
		s.logger.Warn("draft not found", logging.Operation("delete_draft"), "draft_id", id)
		return nil
	}
	if err := s.save(); err != nil {
		return err
	}
	s.logger.Info("draft deleted", logging.Operation("delete_draft"), "draft_id", id)
	return nil
}

// Statistics summarizes the stored collections.
type Statistics struct {
	TotalEmails       int            `json:"total_emails"`
	TotalDrafts       int            `json:"total_drafts"`
	Categories        map[string]int `json:"categories"`
	EmailsWithActions int            `json:"emails_with_actions"`
}

// Stats returns counts over the stored messages and drafts.
func (s *Store) Stats() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Statistics{
		TotalEmails: len(s.data.Emails),
		TotalDrafts: len(s.data.Drafts),
		Categories:  make(map[string]int),
	}
	for _, m := range s.data.Emails {
		cat := m.Category
		if cat == mail.CategoryNone {
			cat = mail.CategoryUncategorized
		}
		stats.Categories[string(cat)]++
		if len(m.ActionItems) > 0 {
			stats.EmailsWithActions++
		}
	}
	return stats
}
