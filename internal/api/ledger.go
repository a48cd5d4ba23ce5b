package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/verda0/verda/internal/log"
	"github.com/verda0/verda/internal/store"
)

type ledgerHandler struct {
	store  *store.Store
	logger log.Logger
}

type logCarbonRequest struct {
	Username    string  `json:"username"`
	Activity    string  `json:"activity"`
	CarbonSaved float64 `json:"carbon_saved"`
}

type logCarbonResponse struct {
	Username         string  `json:"username"`
	Activity         string  `json:"activity"`
	CarbonSaved      float64 `json:"carbon_saved"`
	TotalCarbonSaved float64 `json:"total_carbon_saved"`
}

// logCarbon handles POST /carbon/log: resolve the user (creating on first
// sight) and append the reported amount to the ledger atomically. The amount
// is taken from the request as-is; the keyword estimator only scores chat
// messages, never explicit log entries.
func (h *ledgerHandler) logCarbon(w http.ResponseWriter, r *http.Request) {
	var req logCarbonRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSoftError(w, "invalid request body", h.logger)
		return
	}
	if req.Username == "" {
		writeSoftError(w, "username is required", h.logger)
		return
	}
	if req.Activity == "" {
		writeSoftError(w, "activity is required", h.logger)
		return
	}

	userID, err := h.store.GetOrCreateUser(r.Context(), req.Username)
	if err != nil {
		h.logger.Error("resolving user", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "could not resolve user", h.logger)
		return
	}

	if err := h.store.LogCarbon(r.Context(), userID, req.CarbonSaved, req.Activity); err != nil {
		h.logger.Error("logging carbon", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "could not log activity", h.logger)
		return
	}

	user, err := h.store.GetUser(r.Context(), req.Username)
	if err != nil {
		h.logger.Error("reading user after log", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "could not read updated total", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, logCarbonResponse{
		Username:         req.Username,
		Activity:         req.Activity,
		CarbonSaved:      req.CarbonSaved,
		TotalCarbonSaved: user.TotalCarbonSaved,
	}, h.logger)
}

// leaderboard handles GET /leaderboard: top users by total carbon saved,
// returned as a bare array.
func (h *ledgerHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Leaderboard(r.Context(), store.DefaultLeaderboardLimit)
	if err != nil {
		h.logger.Error("querying leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "could not load leaderboard", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, entries, h.logger)
}

// getUser handles GET /user/{username}. An unknown user is a soft error, not
// a 404: the chat frontend shows it inline.
func (h *ledgerHandler) getUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	user, err := h.store.GetUser(r.Context(), username)
	if errors.Is(err, store.ErrNotFound) {
		writeSoftError(w, "user not found", h.logger)
		return
	}
	if err != nil {
		h.logger.Error("getting user", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "could not load user", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, user, h.logger)
}
