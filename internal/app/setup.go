package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/firebase/genkit/go/core/tracing"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/verda0/verda/internal/coach"
	"github.com/verda0/verda/internal/config"
	"github.com/verda0/verda/internal/log"
	"github.com/verda0/verda/internal/rag"
	"github.com/verda0/verda/internal/store"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	db, err := provideDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.Store = store.New(db, logger)

	g, err := provideGenkit(ctx, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	a.Embedder = embedder

	a.Indexer = rag.NewIndexer(cfg.DocsDir, rag.NewEmbeddingFunc(embedder), logger)
	index, err := a.Indexer.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("building knowledge index: %w", err)
	}
	a.Index = rag.NewHandle(index)

	generator := coach.NewGenkitGenerator(g, cfg.FullModelName(), cfg.MaxTokens, cfg.Temperature)
	a.Coach = coach.New(a.Index, generator, cfg.RAGTopK, logger)

	return a, nil
}

// provideOtelShutdown sets up OTLP trace export before Genkit initialization,
// so Genkit's TracerProvider is ready when Init runs. An empty endpoint
// disables tracing and returns a no-op cleanup.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	otelCfg := cfg.Otel
	if otelCfg.Endpoint == "" {
		return func() {}
	}

	// Set OTEL env vars for Genkit's TracerProvider to pick up.
	// SAFETY: os.Setenv is not concurrent-safe, but this function is called
	// exactly once during startup in Setup, before goroutines are spawned.
	if otelCfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", otelCfg.ServiceName)
	}
	if otelCfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+otelCfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(otelCfg.Endpoint),
		otlptracehttp.WithInsecure(), // local collector, no TLS
	)
	if err != nil {
		logger.Warn("creating trace exporter, tracing disabled", "error", err)
		return func() {}
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	logger.Debug("tracing enabled",
		"endpoint", otelCfg.Endpoint,
		"service", otelCfg.ServiceName,
		"environment", otelCfg.Environment,
	)

	shutdown := tracing.TracerProvider().Shutdown

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideDatabase opens the SQLite database and runs migrations.
func provideDatabase(cfg *config.Config, logger log.Logger) (*sql.DB, error) {
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("database ready", "path", cfg.DatabasePath)
	return db, nil
}

// provideGenkit initializes Genkit with the Google AI plugin. The plugin reads
// GEMINI_API_KEY from the environment; config validation checks its presence
// before Setup runs.
func provideGenkit(ctx context.Context, logger log.Logger) (*genkit.Genkit, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with googleai provider")
	}
	logger.Info("initialized Genkit with googleai provider")
	return g, nil
}
