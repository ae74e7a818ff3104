package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/focus-ledger/internal/persistence"
	"github.com/example/focus-ledger/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary, migrated
// SQLite database for integration-style persistence tests.
type SQLiteHarness struct {
	Tx        persistence.Transactor
	Users     persistence.UserRepository
	Activity  persistence.ActivityRepository
	Ledger    persistence.FocusSessionRepository
	Daily     persistence.DailyStatRepository
	Sessions  persistence.SessionRepository
	Codes     persistence.LoginCodeRepository
	Browse    persistence.BrowseStatRepository
	Admin     persistence.AdminQueries
	Storage   *sqlite.Storage
	cleanup   func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// SeedUser inserts the fixture and fails the test on error.
func (h *SQLiteHarness) SeedUser(tb testing.TB, fixture UserFixture) persistence.User {
	tb.Helper()
	user := fixture.Persistence()
	if err := h.Users.CreateUser(context.Background(), user); err != nil {
		tb.Fatalf("failed to seed user %s: %v", user.ID, err)
	}
	return user
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	storage, err := sqlite.Open(filepath.Join(tb.TempDir(), "focus.db"))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Tx:       storage,
		Users:    storage,
		Activity: storage,
		Ledger:   storage,
		Daily:    storage,
		Sessions: storage,
		Codes:    storage,
		Browse:   storage,
		Admin:    storage,
		Storage:  storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
