package api

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/verda0/verda/internal/log"
	"github.com/verda0/verda/internal/rag"
)

// Rebuilder constructs a fresh knowledge index from the docs directory.
type Rebuilder interface {
	Build(ctx context.Context) (*rag.Index, error)
}

type rebuildHandler struct {
	index     *rag.Handle
	rebuilder Rebuilder
	token     string
	logger    log.Logger
}

// rebuild handles POST /rebuild-rag. The new index is built fully before the
// handle swap, so readers keep hitting the old index until the replacement is
// complete; a failed rebuild leaves the old index untouched.
func (h *rebuildHandler) rebuild(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Rebuild-Token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) != 1 {
		h.logger.Warn("rebuild rejected, bad token", "ip", r.RemoteAddr)
		writeError(w, http.StatusForbidden, "forbidden", "invalid rebuild token", h.logger)
		return
	}

	index, err := h.rebuilder.Build(r.Context())
	if err != nil {
		h.logger.Error("rebuilding index", "error", err)
		writeError(w, http.StatusInternalServerError, "rebuild_failed", "could not rebuild index", h.logger)
		return
	}

	h.index.Store(index)
	h.logger.Info("knowledge index rebuilt", "chunks", index.Len())

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "index rebuilt",
		"chunks":  index.Len(),
	}, h.logger)
}
