package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/focus-ledger/internal/application"
)

type userService interface {
	Profile(ctx context.Context, principal application.Principal) (application.Profile, error)
}

type browseService interface {
	RecordPing(ctx context.Context, principal application.Principal, domain string, visitedAt *time.Time) (application.BrowseStat, error)
}

// UserHandler serves the caller's own account endpoints.
type UserHandler struct {
	users     userService
	browse    browseService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(users userService, browse browseService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{users: users, browse: browse, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

// Me returns the profile of the authenticated user.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.users == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	profile, err := h.users.Profile(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Me").ErrorContext(r.Context(), "failed to load profile", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, profileResponse{
		User:     toUserResponse(profile.User),
		Streak:   toStreakResponse(profile.Streak),
		Presence: toPresenceResponse(profile.Presence, profile.Status),
		IsAdmin:  principal.IsAdmin,
	})
}

// BrowsePing counts one visit to a domain.
func (h *UserHandler) BrowsePing(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.browse == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req browsePingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "BrowsePing", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode browse ping", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}

	var visitedAt *time.Time
	if raw := strings.TrimSpace(req.VisitedAt); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
				FieldErrors: map[string]string{"visited_at": "visited_at must be an RFC 3339 timestamp"},
			})
			return
		}
		visitedAt = &parsed
	}

	principal, _ := PrincipalFromContext(r.Context())
	stat, err := h.browse.RecordPing(r.Context(), principal, req.Domain, visitedAt)
	if err != nil {
		h.log(r.Context(), "BrowsePing").WarnContext(r.Context(), "browse ping rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBrowseStatResponse(stat))
}

type browsePingRequest struct {
	Domain    string `json:"domain"`
	VisitedAt string `json:"visited_at"`
}
