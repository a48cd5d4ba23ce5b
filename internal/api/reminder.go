package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/verda0/verda/internal/log"
	"github.com/verda0/verda/internal/store"
)

type reminderHandler struct {
	store  *store.Store
	logger log.Logger
}

type addReminderRequest struct {
	Username  string `json:"username"`
	Habit     string `json:"habit"`
	Frequency string `json:"frequency"`
}

// add handles POST /reminder/add.
func (h *reminderHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addReminderRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSoftError(w, "invalid request body", h.logger)
		return
	}
	if req.Username == "" {
		writeSoftError(w, "username is required", h.logger)
		return
	}
	if req.Habit == "" {
		writeSoftError(w, "habit is required", h.logger)
		return
	}
	if req.Frequency == "" {
		req.Frequency = "daily"
	}

	userID, err := h.store.GetOrCreateUser(r.Context(), req.Username)
	if err != nil {
		h.logger.Error("resolving user", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "could not resolve user", h.logger)
		return
	}

	if err := h.store.AddReminder(r.Context(), userID, req.Habit, req.Frequency); err != nil {
		h.logger.Error("adding reminder", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "could not add reminder", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "reminder added",
		"username":  req.Username,
		"habit":     req.Habit,
		"frequency": req.Frequency,
	}, h.logger)
}

// list handles GET /reminders/{username}. Only enabled reminders are
// returned, as a bare array.
func (h *reminderHandler) list(w http.ResponseWriter, r *http.Request) {
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

	reminders, err := h.store.UserReminders(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("listing reminders", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "could not load reminders", h.logger)
		return
	}
	if reminders == nil {
		reminders = []store.Reminder{}
	}

	writeJSON(w, http.StatusOK, reminders, h.logger)
}

type toggleReminderRequest struct {
	ReminderID int64 `json:"reminder_id"`
	Enabled    bool  `json:"enabled"`
}

// toggle handles POST /reminder/toggle. Disabled reminders stay in the table
// and can be re-enabled later.
func (h *reminderHandler) toggle(w http.ResponseWriter, r *http.Request) {
	var req toggleReminderRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSoftError(w, "invalid request body", h.logger)
		return
	}

	err := h.store.ToggleReminder(r.Context(), req.ReminderID, req.Enabled)
	if errors.Is(err, store.ErrNotFound) {
		writeSoftError(w, "reminder not found", h.logger)
		return
	}
	if err != nil {
		h.logger.Error("toggling reminder", "reminder_id", req.ReminderID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "could not toggle reminder", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "reminder updated",
		"reminder_id": req.ReminderID,
		"enabled":     req.Enabled,
	}, h.logger)
}
