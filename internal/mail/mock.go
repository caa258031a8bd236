package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tmessner/mailminder/internal/instrumentation"
)

// MockSource is a fixture-backed Source. If the configured fixture file
// exists it is used; otherwise a small built-in sample inbox is served so
// the system works out of the box.
type MockSource struct {
	// FixturePath is the JSON file holding sample messages. May be empty.
	FixturePath string

	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewMockSource creates a MockSource reading from fixturePath when present.
func NewMockSource(fixturePath string, logger *slog.Logger, metrics *instrumentation.Metrics) *MockSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &MockSource{FixturePath: fixturePath, logger: logger, metrics: metrics}
}

// ListMessages implements Source. A missing or unreadable fixture falls
// back to the built-in samples rather than failing.
func (s *MockSource) ListMessages(ctx context.Context, max int) ([]Message, error) {
	start := time.Now()
	msgs, err := s.loadFixture()
	if err != nil {
		s.logger.Warn("mock inbox fixture unavailable, using built-in samples",
			"path", s.FixturePath, "error", err)
		msgs = sampleInbox()
	}
	for i := range msgs {
		msgs[i].TruncateBody()
	}
	if max > 0 && len(msgs) > max {
		msgs = msgs[:max]
	}
	s.metrics.RecordMailFetch(ctx, "mock", instrumentation.StatusSuccess, time.Since(start))
	return msgs, nil
}

func (s *MockSource) loadFixture() ([]Message, error) {
	if s.FixturePath == "" {
		return nil, fmt.Errorf("no fixture path configured")
	}
	data, err := os.ReadFile(s.FixturePath)
	if err != nil {
		return nil, err
	}
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", s.FixturePath, err)
	}
	return msgs, nil
}

// sampleInbox returns the built-in sample messages used when no fixture
// file is available. One per interesting category.
func sampleInbox() []Message {
	return []Message{
		{
			ID:          "mock_1",
			From:        "john.smith@techcorp.com",
			Subject:     "Q4 Project Deadline - Action Required",
			Body:        "Hi Team, We need to finalize the Q4 report by Friday, November 29th. Please review the attached document and send me your feedback by EOD Wednesday. Also, can you provide the latest sales figures for the presentation?",
			Timestamp:   "2025-11-25T10:30:00",
			ActionItems: []Task{},
		},
		{
			ID:          "mock_2",
			From:        "newsletter@techdigest.com",
			Subject:     "Weekly Tech Digest - AI Trends & Updates",
			Body:        "Welcome to this week's Tech Digest! Check out the latest AI developments, new framework releases, and trending open-source projects.",
			Timestamp:   "2025-11-25T09:15:00",
			ActionItems: []Task{},
		},
		{
			ID:          "mock_3",
			From:        "spam.bot@randomsite.xyz",
			Subject:     "YOU WON $1,000,000!!! CLAIM NOW!!!",
			Body:        "Congratulations! You have been selected as our lucky winner! Click here to claim your prize now!",
			Timestamp:   "2025-11-25T08:45:00",
			ActionItems: []Task{},
		},
	}
}
