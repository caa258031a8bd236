package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/tmessner/mailminder/internal/google"
	"github.com/tmessner/mailminder/internal/instrumentation"
	"github.com/tmessner/mailminder/internal/logging"
	"github.com/tmessner/mailminder/internal/mail"
)

// Client is the live Gmail-backed mail source.
type Client struct {
	svc     *gmail.UsersService
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewClient creates a Gmail client from the credential file pair. It
// returns google.ErrNotConfigured (wrapped) when the client secret file
// is missing.
func NewClient(ctx context.Context, creds google.Credentials, logger *slog.Logger, metrics *instrumentation.Metrics) (*Client, error) {
	httpClient, err := creds.HTTPClient(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create Gmail service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		svc:     svc.Users,
		logger:  logging.WithService(logger, "gmail"),
		metrics: metrics,
	}, nil
}

// ListMessages implements mail.Source. It lists up to max INBOX messages
// and fetches each in full. A message that fails to fetch is skipped
// rather than failing the whole listing.
func (c *Client) ListMessages(ctx context.Context, max int) ([]mail.Message, error) {
	ctx, span := instrumentation.StartSpan(ctx, "gmail.list_messages")
	defer span.End()

	start := time.Now()
	res, err := c.svc.Messages.List("me").
		LabelIds("INBOX").
		MaxResults(int64(max)).
		Context(ctx).
		Do()
	if err != nil {
		instrumentation.RecordSpanError(span, err)
		c.metrics.RecordMailFetch(ctx, "gmail", instrumentation.StatusError, time.Since(start))
		return nil, fmt.Errorf("list inbox messages: %w", err)
	}

	msgs := make([]mail.Message, 0, len(res.Messages))
	for _, m := range res.Messages {
		full, err := c.svc.Messages.Get("me", m.Id).Format("full").Context(ctx).Do()
		if err != nil {
			c.logger.Warn("failed to fetch message, skipping",
				logging.Operation("list_messages"), "message_id", m.Id, logging.Err(err))
			continue
		}
		msgs = append(msgs, normalizeMessage(full))
	}

	c.metrics.RecordMailFetch(ctx, "gmail", instrumentation.StatusSuccess, time.Since(start))
	c.logger.Info("fetched inbox messages",
		logging.Operation("list_messages"), "count", len(msgs))
	return msgs, nil
}

// CreateDraft stores a reply draft in the user's mailbox and returns the
// Gmail draft ID.
func (c *Client) CreateDraft(ctx context.Context, to, subject, body string) (string, error) {
	ctx, span := instrumentation.StartSpan(ctx, "gmail.create_draft")
	defer span.End()

	raw := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body)
	draft, err := c.svc.Drafts.Create("me", &gmail.Draft{
		Message: &gmail.Message{
			Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
		},
	}).Context(ctx).Do()
	if err != nil {
		instrumentation.RecordSpanError(span, err)
		return "", fmt.Errorf("create Gmail draft: %w", err)
	}
	c.logger.Info("draft pushed to mailbox",
		logging.Operation("create_draft"), "draft_id", draft.Id,
		logging.UserHash(to), logging.Domain(to))
	return draft.Id, nil
}
