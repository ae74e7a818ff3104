package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/focus-ledger/internal/persistence"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	storage, err := Open(filepath.Join(t.TempDir(), "focus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	require.NoError(t, storage.Migrate(context.Background()))
	return storage
}

func seedUser(t *testing.T, storage *Storage, id, email string, createdAt time.Time) persistence.User {
	t.Helper()

	user := persistence.User{
		ID:         id,
		ProviderID: "google-" + id,
		Email:      email,
		Name:       "User " + id,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	require.NoError(t, storage.CreateUser(context.Background(), user))
	return user
}

func TestStorage_MigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	require.NoError(t, storage.Migrate(ctx))

	status, err := storage.MigrationStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "001", status.CurrentVersion)
	assert.Empty(t, status.Pending)
}

func TestUserRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	created := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	user := seedUser(t, storage, "user-1", "Alice@Example.com", created)

	fetched, err := storage.GetUserByEmail(ctx, "alice@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", fetched.Email)
	assert.True(t, fetched.CreatedAt.Equal(created))

	byProvider, err := storage.GetUserByProviderID(ctx, user.ProviderID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byProvider.ID)

	dup := user
	dup.ID = "user-2"
	dup.ProviderID = "google-other"
	assert.ErrorIs(t, storage.CreateUser(ctx, dup), persistence.ErrAlreadyExists)

	user.Name = "Alice Updated"
	require.NoError(t, storage.UpdateUser(ctx, user))
	fetched, err = storage.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Updated", fetched.Name)

	missing := user
	missing.ID = "ghost"
	assert.ErrorIs(t, storage.UpdateUser(ctx, missing), persistence.ErrNotFound)

	_, err = storage.GetUser(ctx, "ghost")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestDailyStatRepository_ConcurrentIncrements(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "user-1", "a@example.com", time.Now())

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := storage.AddFocusSeconds(ctx, "user-1", "2026-10-17", 25)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	total, err := storage.AddFocusSeconds(ctx, "user-1", "2026-10-18", 60)
	require.NoError(t, err)
	assert.EqualValues(t, 60, total)

	stats, err := storage.ListDailyStats(ctx, "user-1", "", "")
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "2026-10-17", stats[0].Day)
	assert.EqualValues(t, workers*25, stats[0].FocusSeconds)

	ranged, err := storage.ListDailyStats(ctx, "user-1", "2026-10-18", "2026-10-31")
	require.NoError(t, err)
	require.Len(t, ranged, 1)

	_, err = storage.AddFocusSeconds(ctx, "ghost", "2026-10-17", 5)
	assert.ErrorIs(t, err, persistence.ErrReferenceNotFound)
}

func TestStorage_WithinRollsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "user-1", "a@example.com", time.Now())
	completed := time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	err := storage.Within(ctx, func(ctx context.Context) error {
		require.NoError(t, storage.AppendSession(ctx, persistence.FocusSession{
			ID: "s-1", UserID: "user-1", Kind: "focus", DurationSeconds: 1500,
			CompletedAt: completed, Day: "2026-10-17", Hour: 11, Weekday: 6,
		}))
		_, err := storage.AddFocusSeconds(ctx, "user-1", "2026-10-17", 1500)
		require.NoError(t, err)

		// nested calls join the outer transaction
		return storage.Within(ctx, func(context.Context) error { return boom })
	})
	require.ErrorIs(t, err, boom)

	sessions, err := storage.ListRecentSessions(ctx, "user-1", 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	stats, err := storage.ListDailyStats(ctx, "user-1", "", "")
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestFocusSessionRepository_Constraints(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "user-1", "a@example.com", time.Now())

	base := persistence.FocusSession{
		ID: "s-1", UserID: "user-1", Kind: "focus", DurationSeconds: 43200,
		CompletedAt: time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC), Day: "2026-10-17", Hour: 11, Weekday: 6,
	}
	require.NoError(t, storage.AppendSession(ctx, base))

	tooLong := base
	tooLong.ID = "s-2"
	tooLong.DurationSeconds = 43201
	assert.ErrorIs(t, storage.AppendSession(ctx, tooLong), persistence.ErrConstraintViolation)

	badKind := base
	badKind.ID = "s-3"
	badKind.Kind = "nap"
	assert.ErrorIs(t, storage.AppendSession(ctx, badKind), persistence.ErrConstraintViolation)

	assert.ErrorIs(t, storage.AppendSession(ctx, base), persistence.ErrAlreadyExists)

	later := base
	later.ID = "s-4"
	later.Kind = "break"
	later.DurationSeconds = 300
	later.CompletedAt = base.CompletedAt.Add(time.Hour)
	require.NoError(t, storage.AppendSession(ctx, later))

	sessions, err := storage.ListRecentSessions(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s-4", sessions[0].ID)
	assert.True(t, sessions[1].CompletedAt.Equal(base.CompletedAt))
}

func TestActivityRepository_StreakVersionAndPresence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "user-1", "a@example.com", time.Now())
	at := time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC)

	activity, err := storage.GetActivity(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, activity.Version)
	assert.Nil(t, activity.LastPingAt)

	require.NoError(t, storage.SaveStreak(ctx, "user-1", 1, 1, "2026-10-17", 0, at))
	assert.ErrorIs(t, storage.SaveStreak(ctx, "user-1", 2, 2, "2026-10-18", 0, at), persistence.ErrConflict)
	assert.ErrorIs(t, storage.SaveStreak(ctx, "ghost", 1, 1, "2026-10-17", 0, at), persistence.ErrNotFound)

	activity, err = storage.RecordPresence(ctx, "user-1", persistence.PresenceStart, at, "2026-10-17")
	require.NoError(t, err)
	assert.True(t, activity.Running)
	require.NotNil(t, activity.StartedAt)
	assert.Equal(t, "2026-10-17", activity.StreakDay)
	assert.EqualValues(t, 1, activity.Version)

	activity, err = storage.RecordPresence(ctx, "user-1", persistence.PresenceStop, at.Add(time.Minute), "2026-10-17")
	require.NoError(t, err)
	assert.False(t, activity.Running)
	assert.Nil(t, activity.StartedAt)
	require.NotNil(t, activity.LastPingAt)
	assert.True(t, activity.LastPingAt.Equal(at.Add(time.Minute)))

	_, err = storage.RecordPresence(ctx, "ghost", persistence.PresenceHeartbeat, at, "2026-10-17")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestAuthRepositories(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "user-1", "a@example.com", time.Now())
	now := time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC)

	code := persistence.LoginCode{ID: "code-1", UserID: "user-1", SecretHash: "hash", ExpiresAt: now.Add(10 * time.Minute), CreatedAt: now}
	require.NoError(t, storage.CreateLoginCode(ctx, code))
	require.NoError(t, storage.MarkLoginCodeUsed(ctx, "code-1", now))
	assert.ErrorIs(t, storage.MarkLoginCodeUsed(ctx, "code-1", now), persistence.ErrConflict)
	assert.ErrorIs(t, storage.MarkLoginCodeUsed(ctx, "code-x", now), persistence.ErrNotFound)

	fetched, err := storage.GetLoginCode(ctx, "code-1")
	require.NoError(t, err)
	require.NotNil(t, fetched.UsedAt)

	session, err := storage.CreateSession(ctx, persistence.Session{
		ID: "sess-1", UserID: "user-1", Token: "tok", ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	})
	require.NoError(t, err)
	assert.Nil(t, session.RevokedAt)

	revoked, err := storage.RevokeSession(ctx, "tok", now.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, revoked.RevokedAt)
	again, err := storage.RevokeSession(ctx, "tok", now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, again.RevokedAt.Equal(*revoked.RevokedAt))

	require.NoError(t, storage.DeleteExpiredSessions(ctx, now.Add(time.Hour)))
	_, err = storage.GetSession(ctx, "tok")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestBrowseStatRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "user-1", "a@example.com", time.Now())
	base := time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC)

	for i, domain := range []string{"github.com", "go.dev", "github.com", "github.com", "go.dev", "news.ycombinator.com"} {
		_, err := storage.RecordVisit(ctx, "user-1", domain, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	stat, err := storage.RecordVisit(ctx, "user-1", "go.dev", base.Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 3, stat.VisitCount)
	assert.True(t, stat.LastVisitedAt.Equal(base.Add(4*time.Minute)), "late ping must not rewind last visit")
	assert.True(t, stat.FirstSeenAt.Equal(base.Add(time.Minute)))

	top, err := storage.TopDomains(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "go.dev", top[0].Domain)
	assert.Equal(t, "github.com", top[1].Domain)

	last, err := storage.LastDomain(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "news.ycombinator.com", last.Domain)

	_, err = storage.LastDomain(ctx, "nobody")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestAdminRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "user-1", "b@example.com", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	seedUser(t, storage, "user-2", "a@example.com", time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC))

	sessions := []persistence.FocusSession{
		{UserID: "user-1", Kind: "focus", DurationSeconds: 1500, Day: "2026-10-16", Hour: 9, Weekday: 5},
		{UserID: "user-1", Kind: "focus", DurationSeconds: 900, Day: "2026-10-17", Hour: 9, Weekday: 6},
		{UserID: "user-1", Kind: "break", DurationSeconds: 300, Day: "2026-10-17", Hour: 10, Weekday: 6},
	}
	for i, s := range sessions {
		s.ID = fmt.Sprintf("s-%d", i)
		s.CompletedAt = time.Date(2026, 10, 16+i/2, 4, i, 0, 0, time.UTC)
		require.NoError(t, storage.AppendSession(ctx, s))
		if s.Kind == "focus" {
			_, err := storage.AddFocusSeconds(ctx, s.UserID, s.Day, s.DurationSeconds)
			require.NoError(t, err)
		}
	}
	_, err := storage.RecordPresence(ctx, "user-1", persistence.PresenceStop, time.Now(), "2026-10-17")
	require.NoError(t, err)

	count, err := storage.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	active, err := storage.CountUsersActiveSince(ctx, "2026-10-10")
	require.NoError(t, err)
	assert.EqualValues(t, 1, active)

	recent, err := storage.CountUsersCreatedSince(ctx, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.EqualValues(t, 1, recent)

	totals, err := storage.SessionTotals(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, totals.Sessions)
	assert.EqualValues(t, 2400, totals.FocusSeconds)
	assert.EqualValues(t, 300, totals.BreakSeconds)
	assert.InDelta(t, 1200.0, totals.AvgFocusSeconds, 0.001)

	byHour, err := storage.SessionsByHour(ctx)
	require.NoError(t, err)
	assert.Equal(t, []persistence.HourCount{{Hour: 9, Count: 2}, {Hour: 10, Count: 1}}, byHour)

	kinds, err := storage.KindDistribution(ctx)
	require.NoError(t, err)
	require.Len(t, kinds, 2)
	assert.Equal(t, "break", kinds[0].Kind)

	perDay, err := storage.SessionsPerDay(ctx, "2026-10-17")
	require.NoError(t, err)
	assert.Equal(t, []persistence.DayCount{{Day: "2026-10-17", Count: 2, TotalSeconds: 1200}}, perDay)

	summaries, err := storage.UserSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "a@example.com", summaries[0].User.Email)
	assert.Zero(t, summaries[0].Sessions)
	assert.Nil(t, summaries[0].FirstSessionAt)

	one, err := storage.UserSummary(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, one.Sessions)
	assert.EqualValues(t, 2, one.ActiveDays)
	assert.Equal(t, "2026-10-17", one.Activity.LastActiveDay)
	require.NotNil(t, one.LastSessionAt)

	_, err = storage.UserSummary(ctx, "ghost")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}
