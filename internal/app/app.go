// Package app wires the application together: configuration, storage, the
// Genkit AI stack, the knowledge index and the chat orchestrator. Setup builds
// everything in dependency order and App.Close releases it in reverse.
package app

import (
	"database/sql"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/verda0/verda/internal/coach"
	"github.com/verda0/verda/internal/config"
	"github.com/verda0/verda/internal/log"
	"github.com/verda0/verda/internal/rag"
	"github.com/verda0/verda/internal/store"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	// Storage
	DB    *sql.DB
	Store *store.Store

	// AI stack
	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	// Knowledge index. Index holds the current snapshot; Indexer rebuilds it.
	Index   *rag.Handle
	Indexer *rag.Indexer

	// Chat orchestration
	Coach *coach.Coach

	otelCleanup func()
}

// Close gracefully releases all resources in reverse initialization order.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")

	var firstErr error
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			firstErr = err
			a.Logger.Warn("closing database", "error", err)
		} else {
			a.Logger.Info("database closed")
		}
	}

	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return firstErr
}
