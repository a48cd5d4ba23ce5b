package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/verda0/verda/internal/log"
	"github.com/verda0/verda/internal/rag"
	"github.com/verda0/verda/internal/store"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger       log.Logger
	Store        *store.Store // Required
	Chat         ChatService  // Required
	Index        *rag.Handle  // Required
	Rebuilder    Rebuilder    // Required
	RebuildToken string       // Required: shared secret for /rebuild-rag
	CORSOrigins  []string     // Allowed origins for CORS
	DB           *sql.DB      // Optional: nil disables db ping in /ready
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Chat == nil {
		return nil, errors.New("chat service is required")
	}
	if cfg.Index == nil {
		return nil, errors.New("index handle is required")
	}
	if cfg.Rebuilder == nil {
		return nil, errors.New("rebuilder is required")
	}
	if cfg.RebuildToken == "" {
		return nil, errors.New("rebuild token is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ch := &chatHandler{chat: cfg.Chat, logger: logger}
	lh := &ledgerHandler{store: cfg.Store, logger: logger}
	gh := &challengeHandler{store: cfg.Store, logger: logger}
	rh := &reminderHandler{store: cfg.Store, logger: logger}
	bh := &rebuildHandler{
		index:     cfg.Index,
		rebuilder: cfg.Rebuilder,
		token:     cfg.RebuildToken,
		logger:    logger,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /chat", ch.send)

	mux.HandleFunc("POST /carbon/log", lh.logCarbon)
	mux.HandleFunc("GET /leaderboard", lh.leaderboard)
	mux.HandleFunc("GET /user/{username}", lh.getUser)

	mux.HandleFunc("GET /challenge/daily", gh.daily)
	mux.HandleFunc("POST /challenge/complete", gh.complete)

	mux.HandleFunc("POST /reminder/add", rh.add)
	mux.HandleFunc("GET /reminders/{username}", rh.list)
	mux.HandleFunc("POST /reminder/toggle", rh.toggle)

	mux.HandleFunc("POST /rebuild-rag", bh.rebuild)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → Routes
	// RequestID must be before Logging so request_id is available in log attributes.
	var handler http.Handler = mux
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Use a top-level mux to separate health probes from middleware stack
	topMux := http.NewServeMux()
	topMux.Handle("GET /health", health(logger))
	topMux.Handle("GET /ready", readiness(cfg.DB, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
