package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tmessner/mailminder/internal/instrumentation"
	"github.com/tmessner/mailminder/internal/logging"
	"github.com/tmessner/mailminder/internal/mail"
	"github.com/tmessner/mailminder/internal/store"
)

// Generator is the subset of the classification client the agent needs.
// Every operation converts provider failure into a safe fallback, so
// none of them return errors.
type Generator interface {
	Categorize(ctx context.Context, msg mail.Message, promptTemplate string) mail.Category
	ExtractActionItems(ctx context.Context, msg mail.Message, promptTemplate string) []mail.Task
	GenerateReply(ctx context.Context, msg mail.Message, promptTemplate string) string
	ChatAnswer(ctx context.Context, msg mail.Message, question, history, promptTemplate string) string
}

// Agent composes the mail sources, the store and the classification
// client into the application-level operations the API exposes.
type Agent struct {
	llm     Generator
	store   *store.Store
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// New creates an Agent.
func New(llm Generator, st *store.Store, logger *slog.Logger, metrics *instrumentation.Metrics) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		llm:     llm,
		store:   st,
		logger:  logging.WithService(logger, "agent"),
		metrics: metrics,
	}
}

// Store exposes the underlying store for read-only handler paths.
func (a *Agent) Store() *store.Store {
	return a.store
}

// Ingest pulls up to max messages from src and replaces the stored
// message collection with them.
func (a *Agent) Ingest(ctx context.Context, src mail.Source, max int) ([]mail.Message, error) {
	ctx, span := instrumentation.StartOperationSpan(ctx, "ingest")
	defer span.End()

	msgs, err := src.ListMessages(ctx, max)
	if err != nil {
		instrumentation.RecordSpanError(span, err)
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if err := a.store.ReplaceMessages(msgs); err != nil {
		instrumentation.RecordSpanError(span, err)
		return nil, err
	}
	a.logger.Info("ingested messages", logging.Operation("ingest"), "count", len(msgs))
	return msgs, nil
}

// ProcessAll runs categorization, and task extraction where the category
// calls for it, over every stored message, then persists the updated
// collection. A failure on one message marks that message with the Error
// category and moves on; it never aborts the batch.
func (a *Agent) ProcessAll(ctx context.Context) ([]mail.Message, error) {
	ctx, span := instrumentation.StartOperationSpan(ctx, "process_all")
	defer span.End()

	msgs := a.store.GetMessages()
	prompts := a.store.GetPromptSet()

	for i := range msgs {
		category, tasks := a.processOne(ctx, msgs[i], prompts)
		msgs[i].Category = category
		msgs[i].ActionItems = tasks
		a.metrics.RecordProcessedEmail(ctx, string(category))
	}

	if err := a.store.ReplaceMessages(msgs); err != nil {
		instrumentation.RecordSpanError(span, err)
		return nil, err
	}
	a.logger.Info("processed messages", logging.Operation("process_all"), "count", len(msgs))
	return msgs, nil
}

// processOne classifies a single message and extracts its action items
// when the category warrants it. Cancellation mid-batch marks the message
// as Error rather than surfacing the context error.
func (a *Agent) processOne(ctx context.Context, msg mail.Message, prompts mail.PromptSet) (mail.Category, []mail.Task) {
	if err := ctx.Err(); err != nil {
		a.logger.Warn("processing interrupted",
			logging.Operation("process"), "message_id", msg.ID, logging.Err(err))
		return mail.CategoryError, []mail.Task{}
	}

	ctx, span := instrumentation.StartOperationSpan(ctx, "process",
		attribute.String(instrumentation.SpanAttrMessageID, msg.ID))
	defer span.End()

	category := a.llm.Categorize(ctx, msg, prompts.Categorization)
	span.SetAttributes(attribute.String(instrumentation.SpanAttrCategory, string(category)))

	tasks := []mail.Task{}
	if category.NeedsActionItems() {
		tasks = a.llm.ExtractActionItems(ctx, msg, prompts.ActionItem)
	}

	a.logger.Info("message processed", logging.Operation("process"),
		"message_id", msg.ID, logging.Category(string(category)), "tasks", len(tasks))
	return category, tasks
}

// GenerateDraft produces a reply draft for msg and stores it. The draft
// is addressed to the original sender with a Re: subject.
func (a *Agent) GenerateDraft(ctx context.Context, msg mail.Message) (mail.Draft, error) {
	ctx, span := instrumentation.StartOperationSpan(ctx, "draft_generate",
		attribute.String(instrumentation.SpanAttrMessageID, msg.ID))
	defer span.End()

	prompts := a.store.GetPromptSet()
	body := a.llm.GenerateReply(ctx, msg, prompts.AutoReply)

	draft, err := a.store.AddDraft(mail.Draft{
		To:              msg.From,
		Subject:         replySubject(msg.Subject),
		Body:            body,
		OriginalEmailID: msg.ID,
	})
	if err != nil {
		instrumentation.RecordSpanError(span, err)
		return mail.Draft{}, err
	}
	return draft, nil
}

// Chat answers a free-form question about msg, given optional prior
// conversation history.
func (a *Agent) Chat(ctx context.Context, msg mail.Message, question, history string) string {
	ctx, span := instrumentation.StartOperationSpan(ctx, "chat",
		attribute.String(instrumentation.SpanAttrMessageID, msg.ID))
	defer span.End()

	prompts := a.store.GetPromptSet()
	return a.llm.ChatAnswer(ctx, msg, question, history, prompts.Chat)
}

// replySubject prefixes a subject with "Re: " unless it already carries
// one.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}
