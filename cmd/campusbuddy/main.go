// Command campusbuddy is the CampusBuddy student assistant server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"golang.org/x/sync/errgroup"

	"github.com/campusbuddy/campusbuddy/internal/api"
	"github.com/campusbuddy/campusbuddy/internal/chat"
	"github.com/campusbuddy/campusbuddy/internal/config"
	"github.com/campusbuddy/campusbuddy/internal/health"
	"github.com/campusbuddy/campusbuddy/internal/mcpserver"
	"github.com/campusbuddy/campusbuddy/internal/observe"
	"github.com/campusbuddy/campusbuddy/internal/resilience"
	"github.com/campusbuddy/campusbuddy/internal/session"
	"github.com/campusbuddy/campusbuddy/internal/store"
	"github.com/campusbuddy/campusbuddy/internal/store/postgres"
	"github.com/campusbuddy/campusbuddy/internal/tools"
	"github.com/campusbuddy/campusbuddy/internal/tools/campus"
	"github.com/campusbuddy/campusbuddy/pkg/provider/llm"
	"github.com/campusbuddy/campusbuddy/pkg/provider/llm/anyllm"
	"github.com/campusbuddy/campusbuddy/pkg/provider/llm/openai"
)

// version is stamped at build time via -ldflags.
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	demo := flag.Bool("demo", false, "run on the seeded in-memory demo store")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "campusbuddy: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "campusbuddy: %v\n", err)
		}
		return 1
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("campusbuddy starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := otelShutdown(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Store ─────────────────────────────────────────────────────────────────
	st, checkers, closeStore, err := buildStore(ctx, cfg, *demo)
	if err != nil {
		slog.Error("failed to connect store", "err", err)
		return 1
	}
	defer closeStore()

	// ── LLM provider ──────────────────────────────────────────────────────────
	provider, err := buildLLM(cfg.LLM)
	if err != nil {
		slog.Error("failed to build llm provider", "err", err)
		return 1
	}

	// ── Tool catalog + chat runner ────────────────────────────────────────────
	registry, err := tools.NewRegistry(campus.New(st).Tools())
	if err != nil {
		slog.Error("failed to build tool registry", "err", err)
		return 1
	}
	executor := tools.NewExecutor(registry, nil)
	runner := chat.NewRunner(chat.Config{
		Provider: provider,
		Registry: registry,
		Executor: executor,
		MaxTurns: cfg.Chat.MaxTurns,
	})

	// ── HTTP server ───────────────────────────────────────────────────────────
	var mcpHandler http.Handler
	if cfg.MCP.Enabled {
		mcpHandler = mcpserver.Handler(registry, executor, version)
		slog.Info("mcp endpoint enabled", "path", "/mcp")
	}

	server := api.New(api.Config{
		Runner:   runner,
		Sessions: session.NewManager(st),
		Health:   health.New(checkers...),
		MCP:      mcpHandler,
	})

	printStartupSummary(cfg, *demo)

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server ready — press Ctrl+C to shut down", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutdown signal received, stopping…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Store wiring ──────────────────────────────────────────────────────────────

// buildStore selects the backing store: PostgreSQL when a DSN is configured,
// the seeded demo fixture with -demo, and an empty in-memory store otherwise.
// It also returns the readiness checkers the chosen store supports.
func buildStore(ctx context.Context, cfg *config.Config, demo bool) (store.Store, []health.Checker, func(), error) {
	if dsn := cfg.Database.PostgresDSN; dsn != "" {
		pg, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, nil, nil, err
		}
		slog.Info("connected to postgres")
		checker := health.Checker{Name: "database", Check: pg.Ping}
		return pg, []health.Checker{checker}, pg.Close, nil
	}

	if demo {
		slog.Info("running on the seeded demo store")
		return store.NewDemoStore(), nil, func() {}, nil
	}

	slog.Warn("no database configured, campus data starts empty")
	return store.NewMemStore(), nil, func() {}, nil
}

// ── LLM wiring ────────────────────────────────────────────────────────────────

// buildLLM constructs the primary chat backend plus any configured failover
// backends, wrapped in the circuit-breaking fallback chain.
func buildLLM(cfg config.LLMConfig) (llm.Provider, error) {
	primary, err := buildBackend(cfg.ProviderEntry)
	if err != nil {
		return nil, fmt.Errorf("primary %q: %w", cfg.Provider, err)
	}
	slog.Info("llm provider created", "name", cfg.Provider, "model", cfg.Model)

	if len(cfg.Fallbacks) == 0 {
		return primary, nil
	}

	chain := resilience.NewLLMFallback(primary, cfg.Provider, resilience.FallbackConfig{})
	for _, entry := range cfg.Fallbacks {
		backend, err := buildBackend(entry)
		if err != nil {
			return nil, fmt.Errorf("fallback %q: %w", entry.Provider, err)
		}
		chain.AddFallback(entry.Provider, backend)
		slog.Info("llm fallback registered", "name", entry.Provider, "model", entry.Model)
	}
	return chain, nil
}

// buildBackend maps one config entry to a provider implementation. The
// "openai" name uses the native client; every other provider goes through
// the any-llm gateway.
func buildBackend(entry config.ProviderEntry) (llm.Provider, error) {
	if entry.Provider == "openai" {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	}

	var opts []anyllmlib.Option
	if entry.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
	}
	if entry.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
	}
	return anyllm.New(entry.Provider, entry.Model, opts...)
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, demo bool) {
	storeName := "in-memory"
	if cfg.Database.PostgresDSN != "" {
		storeName = "postgres"
	} else if demo {
		storeName = "demo"
	}
	llmName := cfg.LLM.Provider
	if cfg.LLM.Model != "" {
		llmName += " / " + cfg.LLM.Model
	}

	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║       CampusBuddy — startup summary   ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printRow("LLM", llmName)
	printRow("Fallbacks", fmt.Sprintf("%d", len(cfg.LLM.Fallbacks)))
	printRow("Store", storeName)
	if cfg.MCP.Enabled {
		printRow("MCP", "/mcp")
	} else {
		printRow("MCP", "(disabled)")
	}
	printRow("Listen addr", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printRow(key, value string) {
	if value == "" {
		value = "(not configured)"
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-14s  : %-19s ║\n", key, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
