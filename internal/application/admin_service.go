package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/focus-ledger/internal/calendar"
)

const (
	leaderboardSize     = 10
	detailSessionLimit  = 100
	detailTopSitesLimit = 10
	timelineDays        = 30
)

// SessionTotals aggregates the whole ledger.
type SessionTotals struct {
	Sessions        int64
	FocusSeconds    int64
	BreakSeconds    int64
	AvgFocusSeconds float64
}

// UserSummary joins a user with its activity state and ledger aggregates.
type UserSummary struct {
	User            User
	Activity        Activity
	Sessions        int64
	FocusSeconds    int64
	BreakSeconds    int64
	AvgFocusSeconds float64
	ActiveDays      int64
	FirstSessionAt  *time.Time
	LastSessionAt   *time.Time
}

// DayCount is a per local day tally.
type DayCount struct {
	Day          string
	Count        int64
	TotalSeconds int64
}

// HourCount is a per local hour tally.
type HourCount struct {
	Hour  int
	Count int64
}

// WeekdayCount is a per local weekday tally.
type WeekdayCount struct {
	Weekday    time.Weekday
	Count      int64
	AvgSeconds float64
}

// KindCount is a per session kind tally.
type KindCount struct {
	Kind         SessionKind
	Count        int64
	TotalSeconds int64
}

// AdminStore answers the read-model queries behind the admin dashboard.
type AdminStore interface {
	CountUsers(ctx context.Context) (int64, error)
	CountUsersActiveSince(ctx context.Context, day string) (int64, error)
	CountUsersCreatedSince(ctx context.Context, since time.Time) (int64, error)
	UsersCreatedSince(ctx context.Context, since time.Time) ([]User, error)
	SessionTotals(ctx context.Context) (SessionTotals, error)
	SessionsByHour(ctx context.Context) ([]HourCount, error)
	SessionsByWeekday(ctx context.Context) ([]WeekdayCount, error)
	KindDistribution(ctx context.Context) ([]KindCount, error)
	SessionsPerDay(ctx context.Context, fromDay string) ([]DayCount, error)
	UserSummaries(ctx context.Context) ([]UserSummary, error)
	UserSummary(ctx context.Context, userID string) (UserSummary, error)
	RecentSessions(ctx context.Context, userID string, limit int) ([]FocusSession, error)
	TopDomains(ctx context.Context, userID string, limit int) ([]BrowseStat, error)
	LastDomain(ctx context.Context, userID string) (BrowseStat, error)
}

// Overview is the platform wide summary.
type Overview struct {
	TotalUsers      int64
	Totals          SessionTotals
	ActiveUsers7d   int64
	ActiveUsers30d  int64
	NewUsersWeek    int64
	NewUsersMonth   int64
	AvgFocusMinutes float64
	PeakHour        *int
}

// UserReport is one row of the admin user list.
type UserReport struct {
	UserSummary
	AvgFocusMinutes     float64
	DaysSinceLastActive *int
	Status              PresenceStatus
}

// UserDetail is the drill-down of a single user.
type UserDetail struct {
	Report      UserReport
	Sessions    []FocusSession
	DailyTotals []DailyTotal
	LastSite    *BrowseStat
	TopSites    []BrowseStat
}

// LeaderboardEntry ranks a user.
type LeaderboardEntry struct {
	UserID        string
	Name          string
	Email         string
	FocusSeconds  int64
	Sessions      int64
	CurrentStreak int
	LongestStreak int
}

// Leaderboard holds the top users by three measures.
type Leaderboard struct {
	ByFocus    []LeaderboardEntry
	BySessions []LeaderboardEntry
	ByStreak   []LeaderboardEntry
}

// Timeline tallies the last thirty local days.
type Timeline struct {
	FromDay        string
	SessionsPerDay []DayCount
	NewUsersPerDay []DayCount
}

// SessionAnalytics groups the ledger by hour, weekday and kind.
type SessionAnalytics struct {
	ByHour    []HourCount
	ByWeekday []WeekdayCount
	ByKind    []KindCount
}

// AdminService serves the administrator dashboard. Every operation requires
// an administrator principal.
type AdminService struct {
	store    AdminStore
	totals   DailyTotalStore
	streaks  *StreakService
	bucketer calendar.Bucketer
	windows  PresenceWindows
	now      func() time.Time
	logger   *slog.Logger
	overview *overviewCache
}

// overviewTTL bounds how stale the platform totals may be.
const overviewTTL = 30 * time.Second

// NewAdminService wires dependencies for the admin service.
func NewAdminService(store AdminStore, totals DailyTotalStore, streaks *StreakService, bucketer calendar.Bucketer, windows PresenceWindows, now func() time.Time, logger *slog.Logger) *AdminService {
	if now == nil {
		now = time.Now
	}
	return &AdminService{
		store:    store,
		totals:   totals,
		streaks:  streaks,
		bucketer: bucketer,
		windows:  windows,
		now:      now,
		logger:   defaultLogger(logger),
		overview: newOverviewCache(overviewTTL, 0, now),
	}
}

func (s *AdminService) begin(ctx context.Context, principal Principal, operation string, attrs ...any) (*slog.Logger, error) {
	if s == nil {
		return nil, fmt.Errorf("AdminService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "AdminService", operation, append([]any{"actor_id", principal.UserID}, attrs...)...)
	if s.store == nil {
		return logger, fmt.Errorf("admin store not configured")
	}
	if err := requireAdmin(principal); err != nil {
		logger.WarnContext(ctx, "admin access denied", "error_kind", ErrorKind(err))
		return logger, err
	}
	return logger, nil
}

// Overview returns platform totals. The independent counts run concurrently.
func (s *AdminService) Overview(ctx context.Context, principal Principal) (Overview, error) {
	logger, err := s.begin(ctx, principal, "Overview")
	if err != nil {
		return Overview{}, err
	}

	now := s.now().UTC()
	today := s.bucketer.Day(now)
	if cached, ok := s.overview.Get(today); ok {
		logger.DebugContext(ctx, "overview served from cache")
		return cached, nil
	}
	weekAgo, _ := calendar.AddDays(today, -7)
	monthAgo, _ := calendar.AddDays(today, -30)

	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalUsers, err = s.store.CountUsers(gctx)
		return
	})
	g.Go(func() (err error) {
		out.Totals, err = s.store.SessionTotals(gctx)
		return
	})
	g.Go(func() (err error) {
		out.ActiveUsers7d, err = s.store.CountUsersActiveSince(gctx, weekAgo)
		return
	})
	g.Go(func() (err error) {
		out.ActiveUsers30d, err = s.store.CountUsersActiveSince(gctx, monthAgo)
		return
	})
	g.Go(func() (err error) {
		out.NewUsersWeek, err = s.store.CountUsersCreatedSince(gctx, now.AddDate(0, 0, -7))
		return
	})
	g.Go(func() (err error) {
		out.NewUsersMonth, err = s.store.CountUsersCreatedSince(gctx, now.AddDate(0, -1, 0))
		return
	})
	g.Go(func() error {
		byHour, err := s.store.SessionsByHour(gctx)
		if err != nil {
			return err
		}
		out.PeakHour = peakHour(byHour)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "overview failed", "error", err, "error_kind", ErrorKind(err))
		return Overview{}, err
	}

	out.AvgFocusMinutes = round2(out.Totals.AvgFocusSeconds / 60)
	s.overview.Store(today, out)
	logger.InfoContext(ctx, "overview computed", "total_users", out.TotalUsers, "total_sessions", out.Totals.Sessions)
	return out, nil
}

// ListUsers returns every user with stats, sorted by email.
func (s *AdminService) ListUsers(ctx context.Context, principal Principal) ([]UserReport, error) {
	logger, err := s.begin(ctx, principal, "ListUsers")
	if err != nil {
		return nil, err
	}

	summaries, err := s.store.UserSummaries(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list users", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	now := s.now()
	reports := make([]UserReport, 0, len(summaries))
	for _, summary := range summaries {
		reports = append(reports, s.report(summary, now))
	}
	sort.Slice(reports, func(i, j int) bool {
		a, b := strings.ToLower(reports[i].User.Email), strings.ToLower(reports[j].User.Email)
		if a == b {
			return reports[i].User.ID < reports[j].User.ID
		}
		return a < b
	})
	return reports, nil
}

// UserDetail returns the drill-down of one user. The independent reads run
// concurrently.
func (s *AdminService) UserDetail(ctx context.Context, principal Principal, userID string) (UserDetail, error) {
	logger, err := s.begin(ctx, principal, "UserDetail", "user_id", userID)
	if err != nil {
		return UserDetail{}, err
	}
	if s.totals == nil {
		return UserDetail{}, fmt.Errorf("daily total store not configured")
	}

	var (
		out     UserDetail
		summary UserSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		summary, err = s.store.UserSummary(gctx, userID)
		return
	})
	g.Go(func() (err error) {
		out.Sessions, err = s.store.RecentSessions(gctx, userID, detailSessionLimit)
		return
	})
	g.Go(func() error {
		rows, err := s.totals.FocusDays(gctx, userID)
		if err != nil {
			return err
		}
		for i := len(rows) - 1; i >= 0; i-- {
			out.DailyTotals = append(out.DailyTotals, rows[i])
		}
		return nil
	})
	g.Go(func() (err error) {
		out.TopSites, err = s.store.TopDomains(gctx, userID, detailTopSitesLimit)
		return
	})
	g.Go(func() error {
		last, err := s.store.LastDomain(gctx, userID)
		switch {
		case err == nil:
			out.LastSite = &last
			return nil
		case errors.Is(err, ErrNotFound):
			return nil
		default:
			return err
		}
	})
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "user detail failed", "error", err, "error_kind", ErrorKind(err))
		return UserDetail{}, err
	}

	out.Report = s.report(summary, s.now())
	return out, nil
}

// Leaderboard ranks the top ten users by focus time, session count and
// current streak.
func (s *AdminService) Leaderboard(ctx context.Context, principal Principal) (Leaderboard, error) {
	logger, err := s.begin(ctx, principal, "Leaderboard")
	if err != nil {
		return Leaderboard{}, err
	}

	summaries, err := s.store.UserSummaries(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load leaderboard", "error", err, "error_kind", ErrorKind(err))
		return Leaderboard{}, err
	}

	entries := make([]LeaderboardEntry, 0, len(summaries))
	for _, summary := range summaries {
		entries = append(entries, LeaderboardEntry{
			UserID:        summary.User.ID,
			Name:          summary.User.Name,
			Email:         summary.User.Email,
			FocusSeconds:  summary.FocusSeconds,
			Sessions:      summary.Sessions,
			CurrentStreak: summary.Activity.Streak.Current,
			LongestStreak: summary.Activity.Streak.Longest,
		})
	}

	return Leaderboard{
		ByFocus:    topEntries(entries, func(e LeaderboardEntry) int64 { return e.FocusSeconds }),
		BySessions: topEntries(entries, func(e LeaderboardEntry) int64 { return e.Sessions }),
		ByStreak:   topEntries(entries, func(e LeaderboardEntry) int64 { return int64(e.CurrentStreak) }),
	}, nil
}

// Timeline tallies sessions and sign-ups per local day over the last thirty days.
func (s *AdminService) Timeline(ctx context.Context, principal Principal) (Timeline, error) {
	logger, err := s.begin(ctx, principal, "Timeline")
	if err != nil {
		return Timeline{}, err
	}

	now := s.now().UTC()
	from, _ := calendar.AddDays(s.bucketer.Day(now), -timelineDays)
	start, _ := s.bucketer.StartOfDay(from)

	out := Timeline{FromDay: from}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.SessionsPerDay, err = s.store.SessionsPerDay(gctx, from)
		return
	})
	g.Go(func() error {
		users, err := s.store.UsersCreatedSince(gctx, start)
		if err != nil {
			return err
		}
		out.NewUsersPerDay = s.countByDay(users)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "timeline failed", "error", err, "error_kind", ErrorKind(err))
		return Timeline{}, err
	}
	return out, nil
}

// SessionAnalytics groups the whole ledger by local hour, weekday and kind.
func (s *AdminService) SessionAnalytics(ctx context.Context, principal Principal) (SessionAnalytics, error) {
	logger, err := s.begin(ctx, principal, "SessionAnalytics")
	if err != nil {
		return SessionAnalytics{}, err
	}

	var out SessionAnalytics
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.ByHour, err = s.store.SessionsByHour(gctx)
		return
	})
	g.Go(func() (err error) {
		out.ByWeekday, err = s.store.SessionsByWeekday(gctx)
		return
	})
	g.Go(func() (err error) {
		out.ByKind, err = s.store.KindDistribution(gctx)
		return
	})
	if err := g.Wait(); err != nil {
		logger.ErrorContext(ctx, "session analytics failed", "error", err, "error_kind", ErrorKind(err))
		return SessionAnalytics{}, err
	}
	return out, nil
}

// RebuildStreak recomputes a user's streak from the daily aggregates.
func (s *AdminService) RebuildStreak(ctx context.Context, principal Principal, userID string) (StreakState, error) {
	if _, err := s.begin(ctx, principal, "RebuildStreak", "user_id", userID); err != nil {
		return StreakState{}, err
	}
	if s.streaks == nil {
		return StreakState{}, fmt.Errorf("streak service not configured")
	}
	return s.streaks.Rebuild(ctx, userID)
}

func (s *AdminService) report(summary UserSummary, now time.Time) UserReport {
	report := UserReport{
		UserSummary:     summary,
		AvgFocusMinutes: round2(summary.AvgFocusSeconds / 60),
		Status:          ClassifyPresence(summary.Activity.Presence, now, s.windows),
	}
	if last := summary.Activity.Presence.LastActiveDay; last != "" {
		if days, err := calendar.DaysBetween(last, s.bucketer.Day(now)); err == nil {
			report.DaysSinceLastActive = &days
		}
	}
	return report
}

func (s *AdminService) countByDay(users []User) []DayCount {
	counts := make(map[string]int64)
	for _, u := range users {
		counts[s.bucketer.Day(u.CreatedAt)]++
	}
	out := make([]DayCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, DayCount{Day: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

func peakHour(byHour []HourCount) *int {
	var best *HourCount
	for i := range byHour {
		if best == nil || byHour[i].Count > best.Count {
			best = &byHour[i]
		}
	}
	if best == nil || best.Count == 0 {
		return nil
	}
	hour := best.Hour
	return &hour
}

func topEntries(entries []LeaderboardEntry, key func(LeaderboardEntry) int64) []LeaderboardEntry {
	sorted := append([]LeaderboardEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return key(sorted[i]) > key(sorted[j]) })
	if len(sorted) > leaderboardSize {
		sorted = sorted[:leaderboardSize]
	}
	return sorted
}
