package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/tmessner/mailminder/internal/agent"
	"github.com/tmessner/mailminder/internal/config"
	"github.com/tmessner/mailminder/internal/gmail"
	"github.com/tmessner/mailminder/internal/google"
	"github.com/tmessner/mailminder/internal/instrumentation"
	"github.com/tmessner/mailminder/internal/llm"
	"github.com/tmessner/mailminder/internal/mail"
	"github.com/tmessner/mailminder/internal/server"
	"github.com/tmessner/mailminder/internal/store"
	"github.com/tmessner/mailminder/internal/tools/agent_tools"
)

// Transport types for the serve command.
const (
	transportHTTP  = "http"
	transportStdio = "stdio"
)

func newServeCmd() *cobra.Command {
	var (
		configPath  string
		addr        string
		transport   string
		debugMode   bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mailminder server",
		Long: `Start the mailminder server.

Supports two transport types:
  - http: the REST API under /api (default)
  - stdio: an MCP (Model Context Protocol) server over standard
    input/output, exposing the same operations as tools for AI assistants

Configuration comes from an optional YAML file and the environment;
GEMINI_API_KEY is required. The Gmail source is optional: without a
credentials.json file only the mock inbox is available.

A dedicated Prometheus metrics server runs alongside the HTTP transport
when instrumentation is enabled (METRICS_EXPORTER=prometheus).`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if transport != transportHTTP && transport != transportStdio {
				return fmt.Errorf("invalid transport %q, must be %q or %q", transport, transportHTTP, transportStdio)
			}
			return runServe(configPath, addr, transport, debugMode, metricsAddr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the YAML configuration file")
	cmd.Flags().StringVar(&addr, "addr", "", "API listen address (overrides configuration)")
	cmd.Flags().StringVarP(&transport, "transport", "t", transportHTTP, "Transport type: http or stdio")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server listen address")

	return cmd
}

func runServe(configPath, addr, transport string, debugMode bool, metricsAddr string) error {
	logger := newLogger(debugMode, transport)
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if addr != "" {
		cfg.ListenAddr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation config: %w", err)
	}
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("initialize instrumentation: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("instrumentation shutdown failed", "error", err)
		}
	}()

	llmClient, err := llm.New(llm.Config{
		APIKey:      cfg.GeminiAPIKey,
		Model:       cfg.Model,
		MinInterval: cfg.PacingInterval,
		Logger:      logger,
		Metrics:     provider.Metrics(),
	})
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.StorePath, cfg.DefaultPromptsPath, logger)
	if err != nil {
		return err
	}

	app := agent.New(llmClient, st, logger, provider.Metrics())

	if transport == transportStdio {
		return runStdioServer(app)
	}

	mock := mail.NewMockSource(cfg.MockInboxPath, logger, provider.Metrics())

	creds := google.Credentials{
		CredentialsPath: cfg.GoogleCredentialsPath,
		TokenPath:       cfg.GoogleTokenPath,
	}
	var liveFn server.LiveSourceFactory
	if _, err := os.Stat(cfg.GoogleCredentialsPath); err == nil {
		liveFn = func(ctx context.Context) (mail.Source, error) {
			return gmail.NewClient(ctx, creds, logger, provider.Metrics())
		}
	} else {
		logger.Info("no Google credentials file, Gmail source disabled",
			"path", cfg.GoogleCredentialsPath)
	}

	apiServer := server.New(server.Config{
		Addr:       cfg.ListenAddr,
		Agent:      app,
		MockSource: mock,
		LiveSource: liveFn,
		Logger:     logger,
		Metrics:    provider.Metrics(),
	})

	errCh := make(chan error, 2)
	go func() {
		if err := apiServer.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	var metricsServer *server.MetricsServer
	if provider.Enabled() && instrConfig.MetricsExporter == instrumentation.ExporterPrometheus {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsAddr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return err
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown: %w", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
	}
	return nil
}

// newLogger builds the application logger. On the stdio transport all
// logging goes to stderr so stdout stays clean for the MCP protocol.
func newLogger(debugMode bool, transport string) *slog.Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	out := os.Stdout
	if transport == transportStdio {
		out = os.Stderr
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}

// runStdioServer serves the MCP tools over standard input/output until
// the client disconnects.
func runStdioServer(app *agent.Agent) error {
	mcpSrv := mcpserver.NewMCPServer("mailminder", version)
	if err := agent_tools.RegisterAgentTools(mcpSrv, app); err != nil {
		return fmt.Errorf("failed to register agent tools: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
