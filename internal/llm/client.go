package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tmessner/mailminder/internal/instrumentation"
	"github.com/tmessner/mailminder/internal/logging"
)

// Default pacing and retry policy. The pacing interval models the
// provider's free-tier quota of roughly 15 requests per minute.
const (
	DefaultMinInterval   = 4200 * time.Millisecond
	DefaultMaxAttempts   = 2
	DefaultQuotaCooldown = 10 * time.Second
	DefaultRetryDelay    = 500 * time.Millisecond

	defaultHTTPTimeout = 60 * time.Second
)

// Config configures a Client. Only APIKey is required; zero values for
// the remaining fields select the defaults above.
type Config struct {
	// APIKey authenticates against the provider. Required.
	APIKey string

	// Model is the provider model name (default: gemini-2.5-flash).
	Model string

	// BaseURL overrides the provider endpoint. Tests point this at a
	// local httptest server.
	BaseURL string

	// MinInterval is the minimum spacing between provider calls.
	MinInterval time.Duration

	// MaxAttempts bounds the retry loop, first attempt included.
	MaxAttempts int

	// QuotaCooldown is the wait after a quota/rate-limit failure.
	QuotaCooldown time.Duration

	// RetryDelay is the backoff after other transient failures.
	RetryDelay time.Duration

	// Logger receives pacing and retry events. Defaults to slog.Default.
	Logger *slog.Logger

	// Metrics records provider call metrics. May be nil.
	Metrics *instrumentation.Metrics
}

// Client wraps the generative text provider. A single instance is shared
// by all callers; it is safe for concurrent use, with the pacer as the
// only synchronized state.
type Client struct {
	apiKey        string
	model         string
	baseURL       string
	maxAttempts   int
	quotaCooldown time.Duration
	retryDelay    time.Duration

	httpClient *http.Client
	pacer      *pacer
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// New creates a Client. It fails fast with a configuration error when the
// API key is missing.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: API key is required (set GEMINI_API_KEY)")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.QuotaCooldown <= 0 {
		cfg.QuotaCooldown = DefaultQuotaCooldown
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		apiKey:        cfg.APIKey,
		model:         cfg.Model,
		baseURL:       cfg.BaseURL,
		maxAttempts:   cfg.MaxAttempts,
		quotaCooldown: cfg.QuotaCooldown,
		retryDelay:    cfg.RetryDelay,
		httpClient:    &http.Client{Timeout: defaultHTTPTimeout},
		pacer:         newPacer(cfg.MinInterval),
		logger:        logging.WithService(cfg.Logger, "llm"),
		metrics:       cfg.Metrics,
	}, nil
}

// Model returns the configured provider model name.
func (c *Client) Model() string {
	return c.model
}

// generate runs one prompt through the pacer and the bounded retry loop.
// Every attempt, the first included, is paced. Exhausting all attempts
// propagates the last error; callers convert that into their operation's
// fallback value.
func (c *Client) generate(ctx context.Context, operation, prompt string) (string, error) {
	logger := logging.WithOperation(c.logger, operation)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if waited := c.pacer.Wait(); waited > 0 {
			logger.Debug("pacing provider request", "waited", waited)
			c.metrics.RecordPacerWait(ctx, waited)
		}

		start := time.Now()
		text, err := c.generateOnce(ctx, prompt)
		if err == nil {
			c.metrics.RecordProviderCall(ctx, operation, instrumentation.StatusSuccess, time.Since(start))
			return text, nil
		}
		lastErr = err
		c.metrics.RecordProviderCall(ctx, operation, instrumentation.StatusError, time.Since(start))

		if isQuotaError(err) {
			logger.Warn("provider quota exhausted, cooling down",
				"cooldown", c.quotaCooldown, logging.Err(err))
			time.Sleep(c.quotaCooldown)
			if attempt == c.maxAttempts {
				return "", lastErr
			}
			c.metrics.RecordProviderRetry(ctx, operation)
			continue
		}

		if attempt == c.maxAttempts {
			return "", lastErr
		}
		logger.Warn("provider call failed, retrying",
			"attempt", attempt, "delay", c.retryDelay, logging.Err(err))
		time.Sleep(c.retryDelay)
		c.metrics.RecordProviderRetry(ctx, operation)
	}
	return "", lastErr
}

// Ping issues one trivial paced provider call and reports whether the
// provider is reachable. Diagnostics only.
func (c *Client) Ping(ctx context.Context) (bool, string) {
	c.pacer.Wait()
	text, err := c.generateOnce(ctx, "Reply: OK")
	if err != nil {
		return false, err.Error()
	}
	return true, text
}
