package http

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/example/focus-ledger/internal/application"
)

type sessionService interface {
	RecordSession(ctx context.Context, params application.RecordSessionParams) (application.RecordSessionResult, error)
}

// SessionHandler records completed timer sessions.
type SessionHandler struct {
	service   sessionService
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(service sessionService, logger *slog.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SessionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SessionHandler", operation, attrs...)
}

// Record saves one completed focus or break session.
func (h *SessionHandler) Record(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req recordSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Record", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	result, err := h.service.RecordSession(r.Context(), application.RecordSessionParams{
		Principal: principal,
		Kind:      req.Type,
		Duration:  req.Duration.value(),
	})
	if err != nil {
		h.log(r.Context(), "Record", "kind", req.Type).WarnContext(r.Context(), "session not recorded", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := recordSessionResponse{
		Session:        toSessionResponse(result.Session),
		Streak:         toStreakResponse(result.Streak),
		StreakAdvanced: result.StreakAdvanced,
	}
	if result.DailyTotal != nil {
		resp.DailyTotal = &dailyTotalResponse{Day: result.DailyTotal.Day, FocusSeconds: result.DailyTotal.FocusSeconds}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, resp)
}

type recordSessionRequest struct {
	Type     string       `json:"type"`
	Duration flexDuration `json:"duration"`
}

// flexDuration accepts a JSON number or a numeric string. Any other present
// value decodes to NaN so the normalizer rejects it.
type flexDuration struct {
	set     bool
	seconds float64
}

func (d *flexDuration) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	d.set = true

	var number float64
	if err := json.Unmarshal(data, &number); err == nil {
		d.seconds = number
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			d.seconds = parsed
			return nil
		}
	}
	d.seconds = math.NaN()
	return nil
}

func (d flexDuration) value() *float64 {
	if !d.set {
		return nil
	}
	v := d.seconds
	return &v
}
