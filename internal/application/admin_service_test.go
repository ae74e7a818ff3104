package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/focus-ledger/internal/calendar"
)

type adminStoreStub struct {
	summaries []UserSummary
	byHour    []HourCount
	lastSite  *BrowseStat
	created   []User
	err       error
}

func (s *adminStoreStub) CountUsers(ctx context.Context) (int64, error) {
	return int64(len(s.summaries)), s.err
}

func (s *adminStoreStub) CountUsersActiveSince(ctx context.Context, day string) (int64, error) {
	var n int64
	for _, u := range s.summaries {
		if u.Activity.Presence.LastActiveDay >= day {
			n++
		}
	}
	return n, nil
}

func (s *adminStoreStub) CountUsersCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	for _, u := range s.summaries {
		if !u.User.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *adminStoreStub) UsersCreatedSince(ctx context.Context, since time.Time) ([]User, error) {
	return s.created, nil
}

func (s *adminStoreStub) SessionTotals(ctx context.Context) (SessionTotals, error) {
	return SessionTotals{Sessions: 3, FocusSeconds: 3000, BreakSeconds: 300, AvgFocusSeconds: 1500}, nil
}

func (s *adminStoreStub) SessionsByHour(ctx context.Context) ([]HourCount, error) {
	return s.byHour, nil
}

func (s *adminStoreStub) SessionsByWeekday(ctx context.Context) ([]WeekdayCount, error) {
	return []WeekdayCount{{Weekday: time.Saturday, Count: 3, AvgSeconds: 1100}}, nil
}

func (s *adminStoreStub) KindDistribution(ctx context.Context) ([]KindCount, error) {
	return []KindCount{{Kind: SessionKindFocus, Count: 2, TotalSeconds: 3000}, {Kind: SessionKindBreak, Count: 1, TotalSeconds: 300}}, nil
}

func (s *adminStoreStub) SessionsPerDay(ctx context.Context, fromDay string) ([]DayCount, error) {
	return []DayCount{{Day: fromDay, Count: 1, TotalSeconds: 60}}, nil
}

func (s *adminStoreStub) UserSummaries(ctx context.Context) ([]UserSummary, error) {
	return s.summaries, s.err
}

func (s *adminStoreStub) UserSummary(ctx context.Context, userID string) (UserSummary, error) {
	for _, u := range s.summaries {
		if u.User.ID == userID {
			return u, nil
		}
	}
	return UserSummary{}, ErrNotFound
}

func (s *adminStoreStub) RecentSessions(ctx context.Context, userID string, limit int) ([]FocusSession, error) {
	return []FocusSession{{ID: "s1", UserID: userID}}, nil
}

func (s *adminStoreStub) TopDomains(ctx context.Context, userID string, limit int) ([]BrowseStat, error) {
	return nil, nil
}

func (s *adminStoreStub) LastDomain(ctx context.Context, userID string) (BrowseStat, error) {
	if s.lastSite == nil {
		return BrowseStat{}, ErrNotFound
	}
	return *s.lastSite, nil
}

func summary(id, email string, focus, sessions int64, current int, lastActive string) UserSummary {
	return UserSummary{
		User:         User{ID: id, Email: email, CreatedAt: time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)},
		Activity:     Activity{UserID: id, Streak: StreakState{Current: current, Longest: current}, Presence: PresenceState{LastActiveDay: lastActive}},
		Sessions:     sessions,
		FocusSeconds: focus,
	}
}

func newAdminFixture(store *adminStoreStub, totals DailyTotalStore) *AdminService {
	now := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)
	return NewAdminService(store, totals, nil, calendar.Default(), DefaultPresenceWindows, fixedClock(now), nil)
}

var adminPrincipal = Principal{UserID: "admin", IsAdmin: true}

func TestAdminService_RequiresAdmin(t *testing.T) {
	t.Parallel()

	svc := newAdminFixture(&adminStoreStub{}, newMemStore())
	if _, err := svc.Overview(context.Background(), Principal{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := svc.ListUsers(context.Background(), Principal{UserID: "u1"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.RebuildStreak(context.Background(), Principal{UserID: "u1"}, "u2"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAdminService_Overview(t *testing.T) {
	t.Parallel()

	store := &adminStoreStub{
		summaries: []UserSummary{
			summary("a", "a@example.com", 0, 0, 0, "2026-10-16"),
			summary("b", "b@example.com", 0, 0, 0, "2026-09-01"),
		},
		byHour: []HourCount{{Hour: 9, Count: 2}, {Hour: 22, Count: 5}, {Hour: 23, Count: 1}},
	}
	svc := newAdminFixture(store, newMemStore())

	out, err := svc.Overview(context.Background(), adminPrincipal)
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if out.TotalUsers != 2 || out.ActiveUsers7d != 1 || out.ActiveUsers30d != 1 {
		t.Fatalf("unexpected counts %+v", out)
	}
	if out.PeakHour == nil || *out.PeakHour != 22 {
		t.Fatalf("expected peak hour 22, got %v", out.PeakHour)
	}
	if out.AvgFocusMinutes != 25 {
		t.Fatalf("expected 25 average minutes, got %v", out.AvgFocusMinutes)
	}
	if out.NewUsersMonth != 2 || out.NewUsersWeek != 0 {
		t.Fatalf("unexpected sign-up counts %+v", out)
	}
}

func TestAdminService_ListUsersAndLeaderboard(t *testing.T) {
	t.Parallel()

	var summaries []UserSummary
	emails := []string{"k@x.io", "b@x.io", "c@x.io", "d@x.io", "e@x.io", "f@x.io", "g@x.io", "h@x.io", "i@x.io", "j@x.io", "a@x.io", "l@x.io"}
	for i, email := range emails {
		summaries = append(summaries, summary(string(rune('a'+i)), email, int64(i*100), int64(12-i), i%4, "2026-10-15"))
	}
	svc := newAdminFixture(&adminStoreStub{summaries: summaries}, newMemStore())

	reports, err := svc.ListUsers(context.Background(), adminPrincipal)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(reports) != 12 || reports[0].User.Email != "a@x.io" {
		t.Fatalf("expected email ordering, got first %q", reports[0].User.Email)
	}
	if d := reports[0].DaysSinceLastActive; d == nil || *d != 2 {
		t.Fatalf("expected two days since last active, got %v", d)
	}

	board, err := svc.Leaderboard(context.Background(), adminPrincipal)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	if len(board.ByFocus) != 10 || board.ByFocus[0].FocusSeconds != 1100 {
		t.Fatalf("unexpected focus ranking %+v", board.ByFocus)
	}
	if board.BySessions[0].Sessions != 12 {
		t.Fatalf("unexpected session ranking %+v", board.BySessions[0])
	}
	if board.ByStreak[0].CurrentStreak != 3 {
		t.Fatalf("unexpected streak ranking %+v", board.ByStreak[0])
	}
}

func TestAdminService_UserDetail(t *testing.T) {
	t.Parallel()

	totals := newMemStore()
	totals.setTotal("u1", "2026-10-15", 100)
	totals.setTotal("u1", "2026-10-16", 200)
	store := &adminStoreStub{summaries: []UserSummary{summary("u1", "u1@example.com", 300, 2, 2, "2026-10-16")}}
	svc := newAdminFixture(store, totals)

	detail, err := svc.UserDetail(context.Background(), adminPrincipal, "u1")
	if err != nil {
		t.Fatalf("UserDetail failed: %v", err)
	}
	if len(detail.DailyTotals) != 2 || detail.DailyTotals[0].Day != "2026-10-16" {
		t.Fatalf("expected newest first daily totals, got %+v", detail.DailyTotals)
	}
	if detail.LastSite != nil {
		t.Fatalf("expected no last site, got %+v", detail.LastSite)
	}
	if len(detail.Sessions) != 1 {
		t.Fatalf("expected sessions, got %+v", detail.Sessions)
	}

	if _, err := svc.UserDetail(context.Background(), adminPrincipal, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdminService_TimelineAndAnalytics(t *testing.T) {
	t.Parallel()

	store := &adminStoreStub{created: []User{
		{ID: "a", CreatedAt: time.Date(2026, time.October, 16, 19, 0, 0, 0, time.UTC)},
		{ID: "b", CreatedAt: time.Date(2026, time.October, 17, 1, 0, 0, 0, time.UTC)},
		{ID: "c", CreatedAt: time.Date(2026, time.October, 10, 1, 0, 0, 0, time.UTC)},
	}}
	svc := newAdminFixture(store, newMemStore())

	timeline, err := svc.Timeline(context.Background(), adminPrincipal)
	if err != nil {
		t.Fatalf("Timeline failed: %v", err)
	}
	if timeline.FromDay != "2026-09-17" {
		t.Fatalf("unexpected start day %s", timeline.FromDay)
	}
	if len(timeline.NewUsersPerDay) != 2 || timeline.NewUsersPerDay[1] != (DayCount{Day: "2026-10-17", Count: 2}) {
		t.Fatalf("expected local day bucketing of sign-ups, got %+v", timeline.NewUsersPerDay)
	}

	analytics, err := svc.SessionAnalytics(context.Background(), adminPrincipal)
	if err != nil {
		t.Fatalf("SessionAnalytics failed: %v", err)
	}
	if len(analytics.ByKind) != 2 || len(analytics.ByWeekday) != 1 {
		t.Fatalf("unexpected analytics %+v", analytics)
	}
}

func TestAdminService_RebuildStreak(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.addUser("u1")
	store.setTotal("u1", "2026-10-16", 60)
	store.setTotal("u1", "2026-10-17", 60)
	streaks := NewStreakService(store, store, store, fixedClock(now))
	svc := NewAdminService(&adminStoreStub{}, store, streaks, calendar.Default(), DefaultPresenceWindows, fixedClock(now), nil)

	state, err := svc.RebuildStreak(context.Background(), adminPrincipal, "u1")
	if err != nil {
		t.Fatalf("RebuildStreak failed: %v", err)
	}
	if state.Current != 2 || state.LastDay != "2026-10-17" {
		t.Fatalf("unexpected rebuilt streak %+v", state)
	}
}
