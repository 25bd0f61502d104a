package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/azielinski/notifyme/internal/account"
	"github.com/azielinski/notifyme/internal/event"
	"github.com/azielinski/notifyme/internal/models"
	"github.com/azielinski/notifyme/internal/store"
)

// Handler holds dependencies for HTTP handlers. The events routes take the
// acting user from the X-User-ID header; token issuance is out of scope.
type Handler struct {
	accounts  *account.Service
	events    *event.Service
	logger    *zap.Logger
	cachePing func() error
}

// NewHandler returns a new Handler. cachePing, when set, is called by the
// health handler to check cache backend reachability.
func NewHandler(accounts *account.Service, events *event.Service, logger *zap.Logger, cachePing func() error) *Handler {
	return &Handler{
		accounts:  accounts,
		events:    events,
		logger:    logger,
		cachePing: cachePing,
	}
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input account.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		return
	}

	user, err := h.accounts.Create(r.Context(), input)
	if err != nil {
		var invalid *account.InvalidUserDataError
		switch {
		case errors.As(err, &invalid):
			writeError(w, r, http.StatusBadRequest, "INVALID_USER_DATA", invalid.Error())
		case errors.Is(err, store.ErrDuplicate):
			writeError(w, r, http.StatusConflict, "USER_EXISTS", "username or email already registered")
		default:
			h.logger.Error("create user", zap.Error(err))
			writeError(w, r, http.StatusInternalServerError, "INTERNAL", "could not create user")
		}
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/login. Confirms credentials; issues no token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds account.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		return
	}

	user, ok := h.accounts.Login(r.Context(), creds)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "username or password incorrect")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "user id must be an integer")
		return
	}
	if !h.accounts.Delete(r.Context(), userID) {
		writeError(w, r, http.StatusNotFound, "USER_NOT_FOUND", "no such user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEvents handles GET /api/events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := h.actingUser(w, r)
	if !ok {
		return
	}
	events := h.events.List(r.Context(), user)
	if events == nil {
		events = []models.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// CreateEvent handles POST /api/events.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := h.actingUser(w, r)
	if !ok {
		return
	}

	var input event.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		return
	}

	created, err := h.events.Create(r.Context(), user, input)
	if err != nil {
		switch {
		case errors.Is(err, event.ErrInvalidEvent):
			writeError(w, r, http.StatusBadRequest, "INVALID_EVENT_DATA", err.Error())
		case errors.Is(err, store.ErrDuplicate):
			writeError(w, r, http.StatusConflict, "EVENT_EXISTS", "an event for this location and frequency already exists")
		default:
			h.logger.Error("create event", zap.Error(err))
			writeError(w, r, http.StatusInternalServerError, "INTERNAL", "could not create event")
		}
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetEvent handles GET /api/events/{id}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := h.actingUser(w, r)
	if !ok {
		return
	}
	eventID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "event id must be an integer")
		return
	}
	found, ok := h.events.Get(r.Context(), user, eventID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "EVENT_NOT_FOUND", "no such event")
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// DeleteEvent handles DELETE /api/events/{id}.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := h.actingUser(w, r)
	if !ok {
		return
	}
	eventID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "event id must be an integer")
		return
	}
	if !h.events.Delete(r.Context(), user, eventID) {
		writeError(w, r, http.StatusNotFound, "EVENT_NOT_FOUND", "no such event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	statusCode := http.StatusOK

	if h.cachePing != nil {
		if h.cachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			// A dead cache degrades to always-fetch; the service still works.
			checks["cache"] = "unhealthy"
			status = "degraded"
		}
	}

	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   "notifyme",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// actingUser resolves the X-User-ID header to a user, writing the error
// response itself when it cannot.
func (h *Handler) actingUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		writeError(w, r, http.StatusUnauthorized, "MISSING_USER", "X-User-ID header is required")
		return models.User{}, false
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_USER", "X-User-ID must be an integer")
		return models.User{}, false
	}
	user, ok := h.accounts.Get(r.Context(), userID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "USER_NOT_FOUND", "no such user")
		return models.User{}, false
	}
	return user, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with
// code, message, and requestId (correlation ID) if available in context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}
