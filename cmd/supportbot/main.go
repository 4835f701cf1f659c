// Command supportbot serves a configuration-defined knowledge base and
// action set over MCP or plain JSON-RPC.
//
// Run with: go run ./cmd/supportbot -config examples/knowledge_bot/supportbot.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/supportbot/action"
	"github.com/jonwraymond/supportbot/config"
	"github.com/jonwraymond/supportbot/document"
	"github.com/jonwraymond/supportbot/effects"
	"github.com/jonwraymond/supportbot/knowledge"
	"github.com/jonwraymond/supportbot/router"
	"github.com/jonwraymond/supportbot/rpc"
	"github.com/jonwraymond/supportbot/search"
	"github.com/jonwraymond/supportbot/server"
	"github.com/jonwraymond/supportbot/telemetry"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("supportbot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to the service config file (YAML)")
	documentPath := fs.String("document", "", "Path to the bot document (overrides bot.document)")
	transport := fs.String("transport", "", "Transport: stdio, http, rpc-stdio, rpc-http (overrides server.transport)")
	check := fs.Bool("check", false, "Validate the config and document, then exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if *documentPath != "" {
		cfg.Bot.Document = *documentPath
	}
	if *transport != "" {
		cfg.Server.Transport = *transport
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	logger := telemetry.ConfigureSlog(stderr, telemetry.LogOptions{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.Server.Name,
		Version: cfg.Server.Version,
	})
	slog.SetDefault(logger)

	shutdown, err := telemetry.Init(cfg.Server.Name, cfg.Server.Version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
		Output:       stderr,
	})
	if err != nil {
		logger.Error("telemetry init failed", "error", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	app, err := build(cfg, logger)
	if err != nil {
		reportBuildError(logger, err)
		return 1
	}
	defer app.close()

	caps := app.router.ListCapabilities()
	logger.Info("bot loaded",
		"document", cfg.Bot.Document,
		"persona", app.router.Persona().Name,
		"knowledge", len(app.document.Knowledge),
		"actions", len(caps.Actions),
		"engine", caps.SearchEngine,
	)
	if *check {
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, app, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", "error", err)
		return 1
	}
	return 0
}

// app holds everything built from a config.
type app struct {
	document *document.Document
	effects  *effects.Set
	registry *action.Registry
	router   *router.Router
	closers  []io.Closer
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

func build(cfg *config.Config, logger *slog.Logger) (*app, error) {
	doc, err := document.LoadFile(cfg.Bot.Document)
	if err != nil {
		return nil, err
	}

	index, err := knowledge.NewIndex(doc.Knowledge, knowledge.IndexOptions{
		TitleWeight: cfg.Search.TitleWeight,
		BodyWeight:  cfg.Search.BodyWeight,
	})
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	instruments, err := telemetry.NewInstruments(nil)
	if err != nil {
		return nil, fmt.Errorf("create instruments: %w", err)
	}

	effectOpts := effects.Options{Logger: logger}
	if cfg.Effects.TicketWebhook.URL != "" {
		hook, err := effects.NewWebhook(effects.WebhookConfig{
			URL:     cfg.Effects.TicketWebhook.URL,
			Headers: cfg.Effects.TicketWebhook.Headers,
		})
		if err != nil {
			return nil, fmt.Errorf("ticket webhook: %w", err)
		}
		effectOpts.TicketWebhook = hook
	}
	set := effects.NewSet(effectOpts)

	registry, err := action.NewRegistry(doc.Actions, set.Handlers(), action.Options{
		Retention: cfg.Audit.Retention,
		Timeout:   cfg.Actions.Timeout,
		Logger:    logger,
		Observer:  instruments,
	})
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	a := &app{document: doc, effects: set, registry: registry}
	opts := router.Options{
		SearchEngine: cfg.Search.Engine,
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
		Logger:       logger,
		Observer:     instruments,
	}
	if cfg.Search.Engine == "bm25" || cfg.Search.Engine == "hybrid" {
		bm25, err := search.NewBM25Searcher(doc.Knowledge, search.BM25Config{})
		if err != nil {
			return nil, fmt.Errorf("build bm25 searcher: %w", err)
		}
		a.closers = append(a.closers, bm25)
		opts.Searcher = bm25

		if cfg.Search.Engine == "hybrid" {
			alpha := cfg.Search.HybridAlpha
			hybrid, err := search.NewHybridSearcher(search.HybridOptions{
				Primary:   bm25,
				Secondary: index,
				Alpha:     &alpha,
			})
			if err != nil {
				a.close()
				return nil, fmt.Errorf("build hybrid searcher: %w", err)
			}
			opts.Searcher = hybrid
		}
	}

	rt, err := router.New(doc.Persona, index, registry, opts)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("build router: %w", err)
	}
	a.router = rt
	return a, nil
}

func reportBuildError(logger *slog.Logger, err error) {
	var cfgErr *document.ConfigError
	if errors.As(err, &cfgErr) {
		for _, v := range cfgErr.Errors {
			logger.Error("invalid document", "path", v.Path, "problem", v.Message)
		}
		return
	}
	logger.Error("startup failed", "error", err)
}

func serve(ctx context.Context, cfg *config.Config, a *app, logger *slog.Logger) error {
	info := rpc.ServerInfo{Name: cfg.Server.Name, Version: cfg.Server.Version}

	switch cfg.Server.Transport {
	case "stdio":
		srv := server.New(a.router, server.Options{Name: info.Name, Version: info.Version, Logger: logger})
		return srv.Run(ctx, &mcp.StdioTransport{})
	case "http":
		srv := server.New(a.router, server.Options{Name: info.Name, Version: info.Version, Logger: logger})
		mux := http.NewServeMux()
		mux.Handle("/mcp", srv.HTTPHandler())
		return listen(ctx, cfg.Server.Addr, mux, logger)
	case "rpc-stdio":
		return rpc.ServeStdio(ctx, rpc.NewHandler(a.router, info), os.Stdin, os.Stdout)
	case "rpc-http":
		h := rpc.NewHandler(a.router, info)
		mux := http.NewServeMux()
		mux.Handle("/rpc", rpc.ServeHTTP(h))
		mux.Handle("/sse", rpc.ServeSSE(h))
		return listen(ctx, cfg.Server.Addr, mux, logger)
	default:
		return fmt.Errorf("unknown transport %q", cfg.Server.Transport)
	}
}

func listen(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
