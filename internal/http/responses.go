package http

import (
	"time"

	"github.com/example/focus-ledger/internal/application"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := formatTime(*t)
	return &s
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	PhotoURL  string `json:"photo_url,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(user application.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		PhotoURL:  user.PhotoURL,
		CreatedAt: formatTime(user.CreatedAt),
	}
}

type streakResponse struct {
	Current int    `json:"current"`
	Longest int    `json:"longest"`
	LastDay string `json:"last_day,omitempty"`
}

func toStreakResponse(state application.StreakState) streakResponse {
	return streakResponse{Current: state.Current, Longest: state.Longest, LastDay: state.LastDay}
}

type presenceResponse struct {
	Running       bool    `json:"running"`
	StartedAt     *string `json:"started_at"`
	LastPingAt    *string `json:"last_ping_at"`
	LastActiveDay string  `json:"last_active_day,omitempty"`
	Status        string  `json:"status"`
}

func toPresenceResponse(state application.PresenceState, status application.PresenceStatus) presenceResponse {
	return presenceResponse{
		Running:       state.Running,
		StartedAt:     formatTimePtr(state.StartedAt),
		LastPingAt:    formatTimePtr(state.LastPingAt),
		LastActiveDay: state.LastActiveDay,
		Status:        string(status),
	}
}

type profileResponse struct {
	User     userResponse     `json:"user"`
	Streak   streakResponse   `json:"streak"`
	Presence presenceResponse `json:"presence"`
	IsAdmin  bool             `json:"is_admin"`
}

type sessionResponse struct {
	ID              string `json:"id"`
	Kind            string `json:"kind"`
	DurationSeconds int64  `json:"duration_seconds"`
	CompletedAt     string `json:"completed_at"`
	Day             string `json:"day"`
	Hour            int    `json:"hour"`
	Weekday         string `json:"weekday"`
}

func toSessionResponse(session application.FocusSession) sessionResponse {
	return sessionResponse{
		ID:              session.ID,
		Kind:            string(session.Kind),
		DurationSeconds: session.DurationSeconds,
		CompletedAt:     formatTime(session.CompletedAt),
		Day:             session.Day,
		Hour:            session.Hour,
		Weekday:         session.Weekday.String(),
	}
}

type dailyTotalResponse struct {
	Day          string `json:"day"`
	FocusSeconds int64  `json:"focus_seconds"`
}

func toDailyTotals(totals []application.DailyTotal) []dailyTotalResponse {
	out := make([]dailyTotalResponse, 0, len(totals))
	for _, total := range totals {
		out = append(out, dailyTotalResponse{Day: total.Day, FocusSeconds: total.FocusSeconds})
	}
	return out
}

type recordSessionResponse struct {
	Session        sessionResponse     `json:"session"`
	DailyTotal     *dailyTotalResponse `json:"daily_total"`
	Streak         streakResponse      `json:"streak"`
	StreakAdvanced bool                `json:"streak_advanced"`
}

type bucketResponse struct {
	Label   string   `json:"label"`
	Seconds *float64 `json:"seconds"`
	Hours   *float64 `json:"hours"`
}

type rollupResponse struct {
	Period      string           `json:"period"`
	Title       string           `json:"title"`
	RangeStart  string           `json:"range_start"`
	RangeEnd    string           `json:"range_end"`
	Aggregation string           `json:"aggregation"`
	Buckets     []bucketResponse `json:"buckets"`
}

func toRollupResponse(view application.RollupView) rollupResponse {
	buckets := make([]bucketResponse, 0, len(view.Buckets))
	for _, b := range view.Buckets {
		buckets = append(buckets, bucketResponse{Label: b.Label, Seconds: b.Seconds, Hours: b.Hours})
	}
	return rollupResponse{
		Period:      view.Period,
		Title:       view.Title,
		RangeStart:  view.RangeStart,
		RangeEnd:    view.RangeEnd,
		Aggregation: string(view.Aggregation),
		Buckets:     buckets,
	}
}

type browseStatResponse struct {
	Domain        string `json:"domain"`
	VisitCount    int64  `json:"visit_count"`
	FirstSeenAt   string `json:"first_seen_at"`
	LastVisitedAt string `json:"last_visited_at"`
}

func toBrowseStatResponse(stat application.BrowseStat) browseStatResponse {
	return browseStatResponse{
		Domain:        stat.Domain,
		VisitCount:    stat.VisitCount,
		FirstSeenAt:   formatTime(stat.FirstSeenAt),
		LastVisitedAt: formatTime(stat.LastVisitedAt),
	}
}
