package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/verda0/verda/internal/challenge"
	"github.com/verda0/verda/internal/log"
	"github.com/verda0/verda/internal/store"
)

type challengeHandler struct {
	store  *store.Store
	logger log.Logger
}

type dailyChallengeResponse struct {
	Date      string              `json:"date"`
	Challenge challenge.Challenge `json:"challenge"`
}

// daily handles GET /challenge/daily. Selection is a pure function of the
// date, so every instance answers identically; the challenge_of_day binding
// is still recorded so completions can be audited against the day they
// belonged to.
func (h *challengeHandler) daily(w http.ResponseWriter, r *http.Request) {
	date := time.Now().Format(time.DateOnly)

	ch, err := challenge.ForDate(date)
	if err != nil {
		h.logger.Error("selecting daily challenge", "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "challenge_error", "could not select a challenge", h.logger)
		return
	}

	if err := h.store.SetChallengeOfDay(r.Context(), date, ch.ID); err != nil {
		h.logger.Error("recording challenge of day", "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "could not record challenge of day", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, dailyChallengeResponse{Date: date, Challenge: ch}, h.logger)
}

type completeChallengeRequest struct {
	Username    string `json:"username"`
	ChallengeID int    `json:"challenge_id"`
}

// complete handles POST /challenge/complete.
func (h *challengeHandler) complete(w http.ResponseWriter, r *http.Request) {
	var req completeChallengeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSoftError(w, "invalid request body", h.logger)
		return
	}
	if req.Username == "" {
		writeSoftError(w, "username is required", h.logger)
		return
	}
	if _, ok := challenge.ByID(req.ChallengeID); !ok {
		writeSoftError(w, "unknown challenge", h.logger)
		return
	}

	userID, err := h.store.GetOrCreateUser(r.Context(), req.Username)
	if err != nil {
		h.logger.Error("resolving user", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "could not resolve user", h.logger)
		return
	}

	if err := h.store.CompleteChallenge(r.Context(), userID, req.ChallengeID); err != nil {
		h.logger.Error("recording completion", "username", req.Username, "challenge_id", req.ChallengeID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "could not record completion", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "challenge completed",
		"username":     req.Username,
		"challenge_id": req.ChallengeID,
	}, h.logger)
}
