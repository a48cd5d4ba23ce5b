package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/verda0/verda/internal/coach"
	"github.com/verda0/verda/internal/log"
)

// maxBodySize caps request bodies at 1 MB.
const maxBodySize = 1 << 20

// defaultUsername is the guest identity used when a chat request carries no
// username. Chat turns are not persisted, so the name only appears in logs.
const defaultUsername = "guest"

// ChatService produces one coaching reply per user message.
type ChatService interface {
	Reply(ctx context.Context, message string) (coach.Turn, error)
}

type chatHandler struct {
	chat   ChatService
	logger log.Logger
}

type chatRequest struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// send handles POST /chat. Retrieval or generation failures surface as soft
// errors so the client can render them as a chat bubble.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSoftError(w, "invalid request body", h.logger)
		return
	}

	if req.Message == "" {
		writeSoftError(w, "message is required", h.logger)
		return
	}
	if req.Username == "" {
		req.Username = defaultUsername
	}

	turn, err := h.chat.Reply(r.Context(), req.Message)
	if err != nil {
		h.logger.Error("chat turn failed", "username", req.Username, "error", err)
		writeSoftError(w, "could not generate a reply, please try again", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, turn, h.logger)
}
