package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/focus-ledger/internal/calendar"
)

func TestClassifyPresence(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	cases := []struct {
		name  string
		state PresenceState
		want  PresenceStatus
	}{
		{"running is active regardless of ping age", PresenceState{Running: true, LastPingAt: at(48 * time.Hour)}, StatusActive},
		{"never pinged is dormant", PresenceState{}, StatusDormant},
		{"just stopped is recently active", PresenceState{LastPingAt: at(30 * time.Second)}, StatusRecentlyActive},
		{"exactly five minutes is recently active", PresenceState{LastPingAt: at(5 * time.Minute)}, StatusRecentlyActive},
		{"past five minutes is inactive", PresenceState{LastPingAt: at(5*time.Minute + time.Second)}, StatusInactive},
		{"exactly thirty days is inactive", PresenceState{LastPingAt: at(30 * 24 * time.Hour)}, StatusInactive},
		{"beyond thirty days is dormant", PresenceState{LastPingAt: at(31 * 24 * time.Hour)}, StatusDormant},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyPresence(tc.state, now, DefaultPresenceWindows); got != tc.want {
				t.Fatalf("ClassifyPresence = %q, want %q", got, tc.want)
			}
		})
	}

	custom := PresenceWindows{Recent: time.Minute, Inactive: time.Hour}
	if got := ClassifyPresence(PresenceState{LastPingAt: at(2 * time.Minute)}, now, custom); got != StatusInactive {
		t.Fatalf("expected custom windows to apply, got %q", got)
	}
}

func TestPresenceService_Lifecycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 17, 20, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.addUser("u1")
	svc := NewPresenceService(store, calendar.Default(), DefaultPresenceWindows, fixedClock(now))
	principal := Principal{UserID: "u1"}

	state, err := svc.Start(context.Background(), principal)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !state.Running || state.StartedAt == nil || state.LastActiveDay != "2026-10-18" {
		t.Fatalf("unexpected state after start %+v", state)
	}
	if svc.Status(state) != StatusActive {
		t.Fatalf("expected Active while running")
	}

	if state, err = svc.Heartbeat(context.Background(), principal); err != nil || !state.Running {
		t.Fatalf("Heartbeat failed: %+v %v", state, err)
	}

	state, err = svc.Stop(context.Background(), principal)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if state.Running || state.StartedAt != nil {
		t.Fatalf("expected stopped state, got %+v", state)
	}
	if svc.Status(state) != StatusRecentlyActive {
		t.Fatalf("expected Recently Active right after stop")
	}

	if _, err := svc.Start(context.Background(), Principal{}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestPresenceService_DoesNotTouchStreak(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 17, 6, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.addUser("u1")
	presence := NewPresenceService(store, calendar.Default(), DefaultPresenceWindows, fixedClock(now))
	sessions := NewSessionService(store, store, store, store, calendar.Default(), nil, fixedClock(now))

	if _, err := presence.Start(context.Background(), Principal{UserID: "u1"}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	res, err := sessions.RecordSession(context.Background(), RecordSessionParams{
		Principal: Principal{UserID: "u1"},
		Kind:      "focus",
		Duration:  floatPtr(1500),
	})
	if err != nil {
		t.Fatalf("RecordSession failed: %v", err)
	}
	if !res.StreakAdvanced || res.Streak.Current != 1 {
		t.Fatalf("expected a presence ping on the same day not to block the streak, got %+v", res.Streak)
	}
}
