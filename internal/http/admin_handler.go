package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/focus-ledger/internal/application"
)

type adminService interface {
	Overview(ctx context.Context, principal application.Principal) (application.Overview, error)
	ListUsers(ctx context.Context, principal application.Principal) ([]application.UserReport, error)
	UserDetail(ctx context.Context, principal application.Principal, userID string) (application.UserDetail, error)
	Leaderboard(ctx context.Context, principal application.Principal) (application.Leaderboard, error)
	Timeline(ctx context.Context, principal application.Principal) (application.Timeline, error)
	SessionAnalytics(ctx context.Context, principal application.Principal) (application.SessionAnalytics, error)
	RebuildStreak(ctx context.Context, principal application.Principal, userID string) (application.StreakState, error)
}

// AdminHandler serves the administrator dashboard. Authorization is enforced
// by the service so every route answers 403 for regular users.
type AdminHandler struct {
	service   adminService
	responder responder
	logger    *slog.Logger
}

func NewAdminHandler(service adminService, logger *slog.Logger) *AdminHandler {
	base := defaultLogger(logger)
	return &AdminHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AdminHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AdminHandler", operation, attrs...)
}

func (h *AdminHandler) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	h.log(r.Context(), operation).WarnContext(r.Context(), "admin request failed", "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(r.Context(), w, err)
}

func (h *AdminHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// Stats returns the platform overview.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	overview, err := h.service.Overview(r.Context(), principal)
	if err != nil {
		h.fail(w, r, "Stats", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, overviewResponse{
		TotalUsers:        overview.TotalUsers,
		TotalSessions:     overview.Totals.Sessions,
		TotalFocusSeconds: overview.Totals.FocusSeconds,
		TotalBreakSeconds: overview.Totals.BreakSeconds,
		ActiveUsers7d:     overview.ActiveUsers7d,
		ActiveUsers30d:    overview.ActiveUsers30d,
		NewUsersWeek:      overview.NewUsersWeek,
		NewUsersMonth:     overview.NewUsersMonth,
		AvgFocusMinutes:   overview.AvgFocusMinutes,
		PeakHour:          overview.PeakHour,
	})
}

// Users lists every user with derived activity columns.
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	reports, err := h.service.ListUsers(r.Context(), principal)
	if err != nil {
		h.fail(w, r, "Users", err)
		return
	}
	out := make([]userReportResponse, 0, len(reports))
	for _, report := range reports {
		out = append(out, toUserReportResponse(report))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{"users": out})
}

// User returns the drill-down of a single user.
func (h *AdminHandler) User(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	userID := strings.TrimSpace(chi.URLParam(r, "id"))
	if userID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidUserID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	detail, err := h.service.UserDetail(r.Context(), principal, userID)
	if err != nil {
		h.fail(w, r, "User", err)
		return
	}

	resp := userDetailResponse{
		User:        toUserReportResponse(detail.Report),
		Sessions:    make([]sessionResponse, 0, len(detail.Sessions)),
		DailyTotals: toDailyTotals(detail.DailyTotals),
		TopSites:    make([]browseStatResponse, 0, len(detail.TopSites)),
	}
	for _, session := range detail.Sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(session))
	}
	for _, site := range detail.TopSites {
		resp.TopSites = append(resp.TopSites, toBrowseStatResponse(site))
	}
	if detail.LastSite != nil {
		last := toBrowseStatResponse(*detail.LastSite)
		resp.LastSite = &last
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// Leaderboard ranks users by focus time, session count and streak.
func (h *AdminHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	board, err := h.service.Leaderboard(r.Context(), principal)
	if err != nil {
		h.fail(w, r, "Leaderboard", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, leaderboardResponse{
		ByFocus:    toLeaderboardEntries(board.ByFocus),
		BySessions: toLeaderboardEntries(board.BySessions),
		ByStreak:   toLeaderboardEntries(board.ByStreak),
	})
}

// Timeline returns sessions and sign-ups per local day.
func (h *AdminHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	timeline, err := h.service.Timeline(r.Context(), principal)
	if err != nil {
		h.fail(w, r, "Timeline", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, timelineResponse{
		FromDay:        timeline.FromDay,
		SessionsPerDay: toDayCounts(timeline.SessionsPerDay),
		NewUsersPerDay: toDayCounts(timeline.NewUsersPerDay),
	})
}

// SessionAnalytics groups the ledger by hour, weekday and kind.
func (h *AdminHandler) SessionAnalytics(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	analytics, err := h.service.SessionAnalytics(r.Context(), principal)
	if err != nil {
		h.fail(w, r, "SessionAnalytics", err)
		return
	}

	resp := analyticsResponse{
		ByHour:    make([]hourCountResponse, 0, len(analytics.ByHour)),
		ByWeekday: make([]weekdayCountResponse, 0, len(analytics.ByWeekday)),
		ByKind:    make([]kindCountResponse, 0, len(analytics.ByKind)),
	}
	for _, hc := range analytics.ByHour {
		resp.ByHour = append(resp.ByHour, hourCountResponse{Hour: hc.Hour, Count: hc.Count})
	}
	for _, d := range analytics.ByWeekday {
		resp.ByWeekday = append(resp.ByWeekday, weekdayCountResponse{Weekday: d.Weekday.String(), Count: d.Count, AvgSeconds: d.AvgSeconds})
	}
	for _, k := range analytics.ByKind {
		resp.ByKind = append(resp.ByKind, kindCountResponse{Kind: string(k.Kind), Count: k.Count, TotalSeconds: k.TotalSeconds})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// RebuildStreak recomputes a user's streak from the daily aggregates.
func (h *AdminHandler) RebuildStreak(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	userID := strings.TrimSpace(chi.URLParam(r, "id"))
	if userID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "BAD_REQUEST", errInvalidUserID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	state, err := h.service.RebuildStreak(r.Context(), principal, userID)
	if err != nil {
		h.fail(w, r, "RebuildStreak", err)
		return
	}
	h.log(r.Context(), "RebuildStreak", "user_id", userID).InfoContext(r.Context(), "streak rebuilt", "current", state.Current, "longest", state.Longest)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toStreakResponse(state))
}

type overviewResponse struct {
	TotalUsers        int64   `json:"total_users"`
	TotalSessions     int64   `json:"total_sessions"`
	TotalFocusSeconds int64   `json:"total_focus_seconds"`
	TotalBreakSeconds int64   `json:"total_break_seconds"`
	ActiveUsers7d     int64   `json:"active_users_7d"`
	ActiveUsers30d    int64   `json:"active_users_30d"`
	NewUsersWeek      int64   `json:"new_users_week"`
	NewUsersMonth     int64   `json:"new_users_month"`
	AvgFocusMinutes   float64 `json:"avg_focus_minutes"`
	PeakHour          *int    `json:"peak_hour"`
}

type userReportResponse struct {
	User                userResponse     `json:"user"`
	Streak              streakResponse   `json:"streak"`
	Presence            presenceResponse `json:"presence"`
	Sessions            int64            `json:"sessions"`
	FocusSeconds        int64            `json:"focus_seconds"`
	BreakSeconds        int64            `json:"break_seconds"`
	AvgFocusMinutes     float64          `json:"avg_focus_minutes"`
	ActiveDays          int64            `json:"active_days"`
	FirstSessionAt      *string          `json:"first_session_at"`
	LastSessionAt       *string          `json:"last_session_at"`
	DaysSinceLastActive *int             `json:"days_since_last_active"`
}

func toUserReportResponse(report application.UserReport) userReportResponse {
	return userReportResponse{
		User:                toUserResponse(report.User),
		Streak:              toStreakResponse(report.Activity.Streak),
		Presence:            toPresenceResponse(report.Activity.Presence, report.Status),
		Sessions:            report.Sessions,
		FocusSeconds:        report.FocusSeconds,
		BreakSeconds:        report.BreakSeconds,
		AvgFocusMinutes:     report.AvgFocusMinutes,
		ActiveDays:          report.ActiveDays,
		FirstSessionAt:      formatTimePtr(report.FirstSessionAt),
		LastSessionAt:       formatTimePtr(report.LastSessionAt),
		DaysSinceLastActive: report.DaysSinceLastActive,
	}
}

type userDetailResponse struct {
	User        userReportResponse   `json:"user"`
	Sessions    []sessionResponse    `json:"sessions"`
	DailyTotals []dailyTotalResponse `json:"daily_totals"`
	LastSite    *browseStatResponse  `json:"last_site"`
	TopSites    []browseStatResponse `json:"top_sites"`
}

type leaderboardEntryResponse struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	FocusSeconds  int64  `json:"focus_seconds"`
	Sessions      int64  `json:"sessions"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

type leaderboardResponse struct {
	ByFocus    []leaderboardEntryResponse `json:"by_focus"`
	BySessions []leaderboardEntryResponse `json:"by_sessions"`
	ByStreak   []leaderboardEntryResponse `json:"by_streak"`
}

func toLeaderboardEntries(entries []application.LeaderboardEntry) []leaderboardEntryResponse {
	out := make([]leaderboardEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, leaderboardEntryResponse(e))
	}
	return out
}

type dayCountResponse struct {
	Day          string `json:"day"`
	Count        int64  `json:"count"`
	TotalSeconds int64  `json:"total_seconds"`
}

func toDayCounts(counts []application.DayCount) []dayCountResponse {
	out := make([]dayCountResponse, 0, len(counts))
	for _, c := range counts {
		out = append(out, dayCountResponse(c))
	}
	return out
}

type timelineResponse struct {
	FromDay        string             `json:"from_day"`
	SessionsPerDay []dayCountResponse `json:"sessions_per_day"`
	NewUsersPerDay []dayCountResponse `json:"new_users_per_day"`
}

type hourCountResponse struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

type weekdayCountResponse struct {
	Weekday    string  `json:"weekday"`
	Count      int64   `json:"count"`
	AvgSeconds float64 `json:"avg_seconds"`
}

type kindCountResponse struct {
	Kind         string `json:"kind"`
	Count        int64  `json:"count"`
	TotalSeconds int64  `json:"total_seconds"`
}

type analyticsResponse struct {
	ByHour    []hourCountResponse    `json:"by_hour"`
	ByWeekday []weekdayCountResponse `json:"by_weekday"`
	ByKind    []kindCountResponse    `json:"by_kind"`
}
