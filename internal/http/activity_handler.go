package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/focus-ledger/internal/application"
)

type presenceService interface {
	Start(ctx context.Context, principal application.Principal) (application.PresenceState, error)
	Heartbeat(ctx context.Context, principal application.Principal) (application.PresenceState, error)
	Stop(ctx context.Context, principal application.Principal) (application.PresenceState, error)
	Status(state application.PresenceState) application.PresenceStatus
}

type streakService interface {
	GetStreak(ctx context.Context, principal application.Principal) (application.StreakState, error)
}

// ActivityHandler serves the streak and the timer presence endpoints.
type ActivityHandler struct {
	presence  presenceService
	streaks   streakService
	responder responder
	logger    *slog.Logger
}

func NewActivityHandler(presence presenceService, streaks streakService, logger *slog.Logger) *ActivityHandler {
	base := defaultLogger(logger)
	return &ActivityHandler{presence: presence, streaks: streaks, responder: newResponder(base), logger: base}
}

func (h *ActivityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ActivityHandler", operation, attrs...)
}

// Streak returns the caller's current and longest streak.
func (h *ActivityHandler) Streak(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.streaks == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	state, err := h.streaks.GetStreak(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Streak").ErrorContext(r.Context(), "failed to load streak", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toStreakResponse(state))
}

// Start marks the timer as running.
func (h *ActivityHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, "Start")
}

// Heartbeat refreshes the last ping of a running timer.
func (h *ActivityHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, "Heartbeat")
}

// Stop marks the timer as stopped.
func (h *ActivityHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, "Stop")
}

func (h *ActivityHandler) record(w http.ResponseWriter, r *http.Request, operation string) {
	if h == nil || h.presence == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var (
		state application.PresenceState
		err   error
	)
	switch operation {
	case "Start":
		state, err = h.presence.Start(r.Context(), principal)
	case "Heartbeat":
		state, err = h.presence.Heartbeat(r.Context(), principal)
	default:
		state, err = h.presence.Stop(r.Context(), principal)
	}
	if err != nil {
		h.log(r.Context(), operation).ErrorContext(r.Context(), "presence update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPresenceResponse(state, h.presence.Status(state)))
}
