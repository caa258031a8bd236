package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/tmessner/mailminder/internal/agent"
	"github.com/tmessner/mailminder/internal/instrumentation"
	"github.com/tmessner/mailminder/internal/logging"
	"github.com/tmessner/mailminder/internal/mail"
)

// ServiceName and ServiceVersion identify the API in health responses.
const (
	ServiceName    = "mailminder"
	ServiceVersion = "1.0.0"
)

// Default timeouts for the API server.
const (
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second
)

// LiveSourceFactory lazily constructs the live mail source. It is
// invoked on the first fetch request so the server can start without
// provider credentials.
type LiveSourceFactory func(ctx context.Context) (mail.Source, error)

// Config holds the API server dependencies.
type Config struct {
	// Addr is the listen address, e.g. ":5001".
	Addr string

	// Agent runs the application operations behind the routes.
	Agent *agent.Agent

	// MockSource supplies the fixture inbox for load-mock.
	MockSource mail.Source

	// LiveSource constructs the live mail source on demand. Nil means
	// live mode is unavailable and fetch requests fail with a setup
	// error.
	LiveSource LiveSourceFactory

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Server is the HTTP API server.
type Server struct {
	addr    string
	agent   *agent.Agent
	mock    mail.Source
	liveFn  LiveSourceFactory
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	// liveMu guards the lazy live-source cache. Handlers run
	// concurrently, so the check-and-set below must be atomic.
	liveMu sync.Mutex
	live   mail.Source

	httpServer *http.Server
}

// New creates the API server and wires its routes.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:    cfg.Addr,
		agent:   cfg.Agent,
		mock:    cfg.MockSource,
		liveFn:  cfg.LiveSource,
		logger:  logging.WithService(logger, "server"),
		metrics: cfg.Metrics,
	}
}

// Handler returns the routed handler, wrapped with observability.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/emails/load-mock", s.handleLoadMock)
	mux.HandleFunc("GET /api/emails/fetch", s.handleFetch)
	mux.HandleFunc("POST /api/emails/process", s.handleProcess)
	mux.HandleFunc("GET /api/emails", s.handleGetEmails)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/draft/generate", s.handleGenerateDraft)
	mux.HandleFunc("GET /api/drafts", s.handleGetDrafts)
	mux.HandleFunc("DELETE /api/drafts/{id}", s.handleDeleteDraft)
	mux.HandleFunc("GET /api/prompts", s.handleGetPrompts)
	mux.HandleFunc("PUT /api/prompts", s.handleUpdatePrompts)
	mux.HandleFunc("POST /api/prompts/reset", s.handleResetPrompts)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	return s.withObservability(mux)
}

// Start runs the server until it fails or is shut down. It blocks.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}
	s.logger.Info("starting API server", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// liveSource returns the live mail source, constructing it on first
// use. It returns an error when live mode is not configured. The lock
// is held across construction so concurrent requests share one source.
func (s *Server) liveSource(ctx context.Context) (mail.Source, error) {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()

	if s.live != nil {
		return s.live, nil
	}
	if s.liveFn == nil {
		return nil, errLiveUnavailable
	}
	src, err := s.liveFn(ctx)
	if err != nil {
		return nil, err
	}
	s.live = src
	return src, nil
}
