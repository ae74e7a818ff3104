package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/focus-ledger/internal/application"
	"github.com/example/focus-ledger/internal/calendar"
	"github.com/example/focus-ledger/internal/config"
	httptransport "github.com/example/focus-ledger/internal/http"
	"github.com/example/focus-ledger/internal/persistence/sqlite"
	"github.com/example/focus-ledger/internal/persistence/sqlite/migration"
)

// app holds the storage and the services shared by every subcommand.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	storage *sqlite.Storage

	sessions  *application.SessionService
	dashboard *application.DashboardService
	presence  *application.PresenceService
	users     *application.UserService
	auth      *application.AuthService
	streaks   *application.StreakService
	browse    *application.BrowseService
	admin     *application.AdminService
}

// newApp opens and migrates the database and wires the services.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	storage, err := sqlite.OpenWithConfig(migration.DefaultSQLiteConfig(cfg.DatabasePath), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return mustRandomHex(rand.Reader, 32) }
	now := time.Now
	bucketer := calendar.NewBucketer(cfg.TZOffsetMinutes)
	windows := application.PresenceWindows{Recent: cfg.PresenceRecentWindow, Inactive: cfg.PresenceInactiveWindow}
	policy := application.NewAdminPolicy(cfg.AdminEmails, nil)

	tx := transactorAdapter{tx: storage}
	users := newUserRepositoryAdapter(storage)
	ledger := ledgerAdapter{repo: storage}
	totals := dailyTotalAdapter{repo: storage}
	activity := activityAdapter{repo: storage}

	a := &app{cfg: cfg, logger: logger, storage: storage}
	a.sessions = application.NewSessionServiceWithLogger(tx, ledger, totals, activity, bucketer, idGenerator, now, logger)
	a.dashboard = application.NewDashboardServiceWithLogger(totals, bucketer, now, logger)
	a.presence = application.NewPresenceServiceWithLogger(activity, bucketer, windows, now, logger)
	a.users = application.NewUserServiceWithLogger(tx, users, activity, windows, idGenerator, now, logger)
	a.auth = application.NewAuthServiceWithLogger(tx, users, authSessionAdapter{repo: storage}, loginCodeAdapter{repo: storage}, policy, tokenGenerator, now, application.AuthSettings{
		SessionTTL:   cfg.SessionTTL,
		LoginCodeTTL: cfg.LoginCodeTTL,
	}, logger)
	a.streaks = application.NewStreakServiceWithLogger(tx, totals, activity, now, logger)
	a.browse = application.NewBrowseService(browseAdapter{repo: storage}, now, logger)
	a.admin = application.NewAdminService(adminStoreAdapter{queries: storage, ledger: storage, browse: storage}, totals, a.streaks, bucketer, windows, now, logger)

	logger.Debug("application wired", "admins", policy.Size(), "tz_offset_minutes", bucketer.OffsetMinutes())
	return a, nil
}

func (a *app) Close() error {
	if a == nil || a.storage == nil {
		return nil
	}
	return a.storage.Close()
}

// handler builds the HTTP API over the wired services.
func (a *app) handler() http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:      httptransport.NewAuthHandler(a.auth, a.logger),
		Users:     httptransport.NewUserHandler(a.users, a.browse, a.logger),
		Sessions:  httptransport.NewSessionHandler(a.sessions, a.logger),
		Dashboard: httptransport.NewDashboardHandler(a.dashboard, a.logger),
		Activity:  httptransport.NewActivityHandler(a.presence, a.streaks, a.logger),
		Admin:     httptransport.NewAdminHandler(a.admin, a.logger),
		Validator: a.auth,
		Logger:    a.logger,
		Timeout:   a.cfg.RequestTimeout,
	})
}

// randomHex reads n bytes from r and hex encodes them. A short read is an
// error; callers must never fall back to a guessable value.
func randomHex(r io.Reader, n int) (string, error) {
	if n <= 0 {
		n = 16
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// mustRandomHex backs the bearer token generator. A broken entropy source
// aborts the request instead of minting a predictable token.
func mustRandomHex(r io.Reader, n int) string {
	token, err := randomHex(r, n)
	if err != nil {
		panic(err)
	}
	return token
}
