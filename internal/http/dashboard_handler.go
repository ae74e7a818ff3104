package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/focus-ledger/internal/application"
)

type dashboardService interface {
	DayView(ctx context.Context, principal application.Principal, anchor string) (application.RollupView, error)
	WeekView(ctx context.Context, principal application.Principal, anchor string) (application.RollupView, error)
	MonthView(ctx context.Context, principal application.Principal, year string) (application.RollupView, error)
}

// DashboardHandler serves the day, week and month rollups.
type DashboardHandler struct {
	service   dashboardService
	responder responder
	logger    *slog.Logger
}

func NewDashboardHandler(service dashboardService, logger *slog.Logger) *DashboardHandler {
	base := defaultLogger(logger)
	return &DashboardHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DashboardHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DashboardHandler", operation, attrs...)
}

// Day answers GET /api/dashboard/day?date=YYYY-MM-DD.
func (h *DashboardHandler) Day(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "Day", strings.TrimSpace(r.URL.Query().Get("date")))
}

// Week answers GET /api/dashboard/week?date=YYYY-MM-DD.
func (h *DashboardHandler) Week(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "Week", strings.TrimSpace(r.URL.Query().Get("date")))
}

// Month answers GET /api/dashboard/month?year=YYYY. A date parameter is
// accepted as well and contributes its year.
func (h *DashboardHandler) Month(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	year := strings.TrimSpace(query.Get("year"))
	if year == "" {
		if date := strings.TrimSpace(query.Get("date")); len(date) >= 4 {
			year = date[:4]
		}
	}
	h.serve(w, r, "Month", year)
}

func (h *DashboardHandler) serve(w http.ResponseWriter, r *http.Request, operation, param string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var (
		view application.RollupView
		err  error
	)
	switch operation {
	case "Day":
		view, err = h.service.DayView(r.Context(), principal, param)
	case "Week":
		view, err = h.service.WeekView(r.Context(), principal, param)
	default:
		view, err = h.service.MonthView(r.Context(), principal, param)
	}
	if err != nil {
		h.log(r.Context(), operation, "param", param).WarnContext(r.Context(), "rollup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRollupResponse(view))
}
