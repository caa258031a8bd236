package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrSource    = "source"
	attrCategory  = "category"
)

// Metrics provides methods for recording observability metrics. All
// methods tolerate a nil receiver and uninitialized instruments.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Provider (LLM) metrics
	llmRequestsTotal   metric.Int64Counter
	llmRequestDuration metric.Float64Histogram
	llmRetriesTotal    metric.Int64Counter
	llmPacerWait       metric.Float64Histogram

	// Mail source metrics
	mailFetchTotal    metric.Int64Counter
	mailFetchDuration metric.Float64Histogram

	// Batch processing metrics
	processedEmailsTotal metric.Int64Counter
}

// NewMetrics creates a Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.llmRequestsTotal, err = meter.Int64Counter(
		"llm_requests_total",
		metric.WithDescription("Total number of generative provider calls"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_requests_total counter: %w", err)
	}

	m.llmRequestDuration, err = meter.Float64Histogram(
		"llm_request_duration_seconds",
		metric.WithDescription("Generative provider call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_request_duration_seconds histogram: %w", err)
	}

	m.llmRetriesTotal, err = meter.Int64Counter(
		"llm_retries_total",
		metric.WithDescription("Total number of provider call retries"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_retries_total counter: %w", err)
	}

	m.llmPacerWait, err = meter.Float64Histogram(
		"llm_pacer_wait_seconds",
		metric.WithDescription("Time spent waiting in the provider rate limiter"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.0, 3.0, 4.0, 5.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_pacer_wait_seconds histogram: %w", err)
	}

	m.mailFetchTotal, err = meter.Int64Counter(
		"mail_fetch_total",
		metric.WithDescription("Total number of mail source fetches"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail_fetch_total counter: %w", err)
	}

	m.mailFetchDuration, err = meter.Float64Histogram(
		"mail_fetch_duration_seconds",
		metric.WithDescription("Mail source fetch duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail_fetch_duration_seconds histogram: %w", err)
	}

	m.processedEmailsTotal, err = meter.Int64Counter(
		"processed_emails_total",
		metric.WithDescription("Total number of emails processed by the batch pipeline"),
		metric.WithUnit("{email}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create processed_emails_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status
// code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}
	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordProviderCall records one generative provider call attempt.
// Operation is the client operation (categorize, extract_action_items,
// generate_reply, chat); status is "success" or "error".
func (m *Metrics) RecordProviderCall(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.llmRequestsTotal == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}
	m.llmRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.llmRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordProviderRetry records a retry of a provider call.
func (m *Metrics) RecordProviderRetry(ctx context.Context, operation string) {
	if m == nil || m.llmRetriesTotal == nil {
		return
	}
	m.llmRetriesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrOperation, operation),
	))
}

// RecordPacerWait records time spent blocked in the rate limiter.
func (m *Metrics) RecordPacerWait(ctx context.Context, waited time.Duration) {
	if m == nil || m.llmPacerWait == nil {
		return
	}
	m.llmPacerWait.Record(ctx, waited.Seconds())
}

// RecordMailFetch records a mail source fetch. Source is "mock" or
// "gmail"; status is "success" or "error".
func (m *Metrics) RecordMailFetch(ctx context.Context, source, status string, duration time.Duration) {
	if m == nil || m.mailFetchTotal == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(attrSource, source),
		attribute.String(attrStatus, status),
	}
	m.mailFetchTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.mailFetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordProcessedEmail records one batch-processed email and the category
// it ended up in.
func (m *Metrics) RecordProcessedEmail(ctx context.Context, category string) {
	if m == nil || m.processedEmailsTotal == nil {
		return
	}
	m.processedEmailsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrCategory, category),
	))
}
