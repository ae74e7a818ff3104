package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/focus-ledger/internal/persistence"
	"github.com/example/focus-ledger/internal/testfixtures"
)

func TestRepositories_FocusSaveCommitsAtomically(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	user := harness.SeedUser(t, testfixtures.NewUserFixture())
	session := testfixtures.NewFocusSessionFixture(user.ID).Persistence()

	err := harness.Tx.Within(ctx, func(ctx context.Context) error {
		if err := harness.Ledger.AppendSession(ctx, session); err != nil {
			return err
		}
		if _, err := harness.Daily.AddFocusSeconds(ctx, user.ID, session.Day, session.DurationSeconds); err != nil {
			return err
		}
		activity, err := harness.Activity.GetActivity(ctx, user.ID)
		if err != nil {
			return err
		}
		return harness.Activity.SaveStreak(ctx, user.ID, 1, 1, session.Day, activity.Version, session.CompletedAt)
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}

	stats, err := harness.Daily.ListDailyStats(ctx, user.ID, session.Day, session.Day)
	if err != nil {
		t.Fatalf("ListDailyStats failed: %v", err)
	}
	if len(stats) != 1 || stats[0].FocusSeconds != session.DurationSeconds {
		t.Fatalf("unexpected daily stats: %+v", stats)
	}

	activity, err := harness.Activity.GetActivity(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetActivity failed: %v", err)
	}
	if activity.CurrentStreak != 1 || activity.StreakDay != session.Day || activity.Version != 1 {
		t.Fatalf("unexpected activity: %+v", activity)
	}
}

func TestRepositories_StaleVersionRollsBackLedger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	user := harness.SeedUser(t, testfixtures.NewUserFixture())
	session := testfixtures.NewFocusSessionFixture(user.ID).Persistence()

	if err := harness.Activity.SaveStreak(ctx, user.ID, 1, 1, "2026-03-01", 0, session.CompletedAt); err != nil {
		t.Fatalf("SaveStreak failed: %v", err)
	}

	err := harness.Tx.Within(ctx, func(ctx context.Context) error {
		if err := harness.Ledger.AppendSession(ctx, session); err != nil {
			return err
		}
		if _, err := harness.Daily.AddFocusSeconds(ctx, user.ID, session.Day, session.DurationSeconds); err != nil {
			return err
		}
		return harness.Activity.SaveStreak(ctx, user.ID, 2, 2, session.Day, 0, session.CompletedAt)
	})
	if !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	sessions, err := harness.Ledger.ListRecentSessions(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("ListRecentSessions failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no ledger rows after rollback, got %d", len(sessions))
	}
	stats, err := harness.Daily.ListDailyStats(ctx, user.ID, "", "")
	if err != nil {
		t.Fatalf("ListDailyStats failed: %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("expected no aggregate rows after rollback, got %+v", stats)
	}
}

func TestRepositories_UnknownUserIsReferenceError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	now := testfixtures.ReferenceTime()

	session := testfixtures.NewFocusSessionFixture("ghost").Persistence()
	if err := harness.Ledger.AppendSession(ctx, session); !errors.Is(err, persistence.ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound from ledger, got %v", err)
	}
	if _, err := harness.Browse.RecordVisit(ctx, "ghost", "go.dev", now); !errors.Is(err, persistence.ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound from browse, got %v", err)
	}
	code := persistence.LoginCode{ID: "code", UserID: "ghost", SecretHash: "h", ExpiresAt: now.Add(time.Minute)}
	if err := harness.Codes.CreateLoginCode(ctx, code); !errors.Is(err, persistence.ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound from login codes, got %v", err)
	}
}

func TestRepositories_CanceledContextIsUnavailable(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := harness.Users.ListUsers(ctx)
	if !errors.Is(err, persistence.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRepositories_AdminSeesNewUsers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := testfixtures.NewSQLiteHarness(t)
	early := harness.SeedUser(t, testfixtures.NewUserFixture(testfixtures.WithUserCreatedAt(testfixtures.ReferenceTime().AddDate(0, -2, 0))))
	late := harness.SeedUser(t, testfixtures.NewUserFixture(testfixtures.WithUserCreatedAt(testfixtures.ReferenceTime())))

	since := testfixtures.ReferenceTime().AddDate(0, 0, -7)
	count, err := harness.Admin.CountUsersCreatedSince(ctx, since)
	if err != nil {
		t.Fatalf("CountUsersCreatedSince failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 new user, got %d", count)
	}

	users, err := harness.Storage.ListUsersCreatedSince(ctx, since)
	if err != nil {
		t.Fatalf("ListUsersCreatedSince failed: %v", err)
	}
	if len(users) != 1 || users[0].ID != late.ID {
		t.Fatalf("expected only %s, got %+v", late.ID, users)
	}

	summary, err := harness.Admin.UserSummary(ctx, early.ID)
	if err != nil {
		t.Fatalf("UserSummary failed: %v", err)
	}
	if summary.Sessions != 0 || summary.LastSessionAt != nil {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}
