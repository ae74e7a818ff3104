package application

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/example/focus-ledger/internal/calendar"
)

func floatPtr(v float64) *float64 { return &v }

func newSessionFixture(now time.Time) (*SessionService, *memStore) {
	store := newMemStore()
	store.addUser("u1")
	svc := NewSessionService(store, store, store, store, calendar.Default(), sequentialIDs("s"), fixedClock(now))
	return svc, store
}

func TestSessionService_RecordSession(t *testing.T) {
	t.Parallel()

	// 20:15 UTC is 01:45 IST on the following day.
	now := time.Date(2026, time.October, 17, 20, 15, 0, 0, time.UTC)

	t.Run("requires an authenticated user", func(t *testing.T) {
		t.Parallel()
		svc, _ := newSessionFixture(now)
		_, err := svc.RecordSession(context.Background(), RecordSessionParams{Kind: "focus", Duration: floatPtr(1500)})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("reports every invalid field", func(t *testing.T) {
		t.Parallel()
		svc, store := newSessionFixture(now)
		_, err := svc.RecordSession(context.Background(), RecordSessionParams{
			Principal: Principal{UserID: "u1"},
			Kind:      "nap",
			Duration:  floatPtr(math.NaN()),
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["type"]; !ok {
			t.Fatalf("expected type error, got %v", vErr.FieldErrors)
		}
		if _, ok := vErr.FieldErrors["duration"]; !ok {
			t.Fatalf("expected duration error, got %v", vErr.FieldErrors)
		}
		if !errors.Is(err, ErrInvalidDuration) || !errors.Is(err, ErrInvalidSessionKind) {
			t.Fatalf("expected both sentinels reachable, got %v", err)
		}
		if len(store.sessions) != 0 {
			t.Fatalf("expected nothing stored, got %d sessions", len(store.sessions))
		}
	})

	t.Run("rejects missing and out of range durations", func(t *testing.T) {
		t.Parallel()
		svc, _ := newSessionFixture(now)
		for _, d := range []*float64{nil, floatPtr(0), floatPtr(-20), floatPtr(43201)} {
			_, err := svc.RecordSession(context.Background(), RecordSessionParams{Principal: Principal{UserID: "u1"}, Kind: "focus", Duration: d})
			if !errors.Is(err, ErrInvalidDuration) {
				t.Fatalf("expected ErrInvalidDuration for %v, got %v", d, err)
			}
		}
	})

	t.Run("focus session updates ledger, aggregate, streak and presence", func(t *testing.T) {
		t.Parallel()
		svc, store := newSessionFixture(now)

		res, err := svc.RecordSession(context.Background(), RecordSessionParams{
			Principal: Principal{UserID: "u1"},
			Kind:      " Focus ",
			Duration:  floatPtr(1499.6),
		})
		if err != nil {
			t.Fatalf("RecordSession returned error: %v", err)
		}

		if res.NormalizedSeconds != 1500 {
			t.Fatalf("expected 1500 seconds, got %d", res.NormalizedSeconds)
		}
		if res.Session.Day != "2026-10-18" || res.Session.Hour != 1 || res.Session.Weekday != time.Sunday {
			t.Fatalf("unexpected local coordinates %+v", res.Session)
		}
		if !res.Session.CompletedAt.Equal(now) {
			t.Fatalf("expected server clock timestamp, got %v", res.Session.CompletedAt)
		}
		if res.DailyTotal == nil || res.DailyTotal.FocusSeconds != 1500 {
			t.Fatalf("expected daily total 1500, got %+v", res.DailyTotal)
		}
		if !res.StreakAdvanced || res.Streak.Current != 1 || res.Streak.LastDay != "2026-10-18" {
			t.Fatalf("unexpected streak %+v", res.Streak)
		}

		activity, _ := store.GetActivity(context.Background(), "u1")
		if activity.Presence.Running || activity.Presence.LastActiveDay != "2026-10-18" {
			t.Fatalf("expected presence stopped on the session day, got %+v", activity.Presence)
		}
		if activity.Version != 1 {
			t.Fatalf("expected one streak write, got version %d", activity.Version)
		}
	})

	t.Run("second focus session on the same day only grows the total", func(t *testing.T) {
		t.Parallel()
		svc, store := newSessionFixture(now)
		params := RecordSessionParams{Principal: Principal{UserID: "u1"}, Kind: "focus", Duration: floatPtr(600)}

		if _, err := svc.RecordSession(context.Background(), params); err != nil {
			t.Fatalf("first save failed: %v", err)
		}
		res, err := svc.RecordSession(context.Background(), params)
		if err != nil {
			t.Fatalf("second save failed: %v", err)
		}
		if res.DailyTotal.FocusSeconds != 1200 {
			t.Fatalf("expected total 1200, got %d", res.DailyTotal.FocusSeconds)
		}
		if res.StreakAdvanced || res.Streak.Current != 1 {
			t.Fatalf("expected unchanged streak, got %+v advanced=%v", res.Streak, res.StreakAdvanced)
		}
		if len(store.sessions) != 2 {
			t.Fatalf("expected two ledger entries, got %d", len(store.sessions))
		}
	})

	t.Run("break sessions never touch the aggregate or streak", func(t *testing.T) {
		t.Parallel()
		svc, store := newSessionFixture(now)

		res, err := svc.RecordSession(context.Background(), RecordSessionParams{
			Principal: Principal{UserID: "u1"},
			Kind:      "break",
			Duration:  floatPtr(300),
		})
		if err != nil {
			t.Fatalf("RecordSession returned error: %v", err)
		}
		if res.DailyTotal != nil || res.StreakAdvanced {
			t.Fatalf("expected no aggregate or streak change, got %+v", res)
		}
		if rows, _ := store.FocusDays(context.Background(), "u1"); len(rows) != 0 {
			t.Fatalf("expected no aggregate rows, got %v", rows)
		}
		if len(store.sessions) != 1 || store.sessions[0].Kind != SessionKindBreak {
			t.Fatalf("expected one break in the ledger, got %+v", store.sessions)
		}
	})

	t.Run("a failed write leaves no partial state", func(t *testing.T) {
		t.Parallel()
		svc, store := newSessionFixture(now)
		boom := errors.New("disk full")
		store.saveErr = boom

		_, err := svc.RecordSession(context.Background(), RecordSessionParams{
			Principal: Principal{UserID: "u1"},
			Kind:      "focus",
			Duration:  floatPtr(900),
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected storage error, got %v", err)
		}
		if len(store.sessions) != 0 {
			t.Fatalf("expected ledger rollback, got %d sessions", len(store.sessions))
		}
		if rows, _ := store.FocusDays(context.Background(), "u1"); len(rows) != 0 {
			t.Fatalf("expected aggregate rollback, got %v", rows)
		}
	})

	t.Run("streak conflict surfaces as ErrConflict", func(t *testing.T) {
		t.Parallel()
		svc, store := newSessionFixture(now)
		store.saveErr = ErrConflict

		_, err := svc.RecordSession(context.Background(), RecordSessionParams{
			Principal: Principal{UserID: "u1"},
			Kind:      "focus",
			Duration:  floatPtr(900),
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		t.Parallel()
		svc, _ := newSessionFixture(now)
		_, err := svc.RecordSession(context.Background(), RecordSessionParams{
			Principal: Principal{UserID: "ghost"},
			Kind:      "focus",
			Duration:  floatPtr(900),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSessionService_ConcurrentSavesSumExactly(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 17, 4, 0, 0, 0, time.UTC)
	svc, store := newSessionFixture(now)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.RecordSession(context.Background(), RecordSessionParams{
				Principal: Principal{UserID: "u1"},
				Kind:      "focus",
				Duration:  floatPtr(60),
			})
		}()
	}
	wg.Wait()

	rows, _ := store.FocusDays(context.Background(), "u1")
	var ledger int64
	for _, s := range store.sessions {
		ledger += s.DurationSeconds
	}
	if len(rows) != 1 || rows[0].FocusSeconds != ledger {
		t.Fatalf("expected aggregate to equal ledger sum %d, got %v", ledger, rows)
	}
}
