package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/focus-ledger/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Storage bundles every SQLite repository behind one connection pool. It
// satisfies each repository interface of the persistence package as well as
// persistence.Transactor.
type Storage struct {
	*ConnectionPool
	*UserRepository
	*ActivityRepository
	*FocusSessionRepository
	*DailyStatRepository
	*SessionRepository
	*LoginCodeRepository
	*BrowseStatRepository
	*AdminRepository

	logger *slog.Logger
}

// Open opens a file database at path with the default configuration.
func Open(path string) (*Storage, error) {
	return OpenWithConfig(migration.DefaultSQLiteConfig(path), nil)
}

// OpenWithConfig opens the database described by config. Migrate must be
// called before the repositories are used.
func OpenWithConfig(config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}

	return &Storage{
		ConnectionPool:         pool,
		UserRepository:         NewUserRepository(pool),
		ActivityRepository:     NewActivityRepository(pool),
		FocusSessionRepository: NewFocusSessionRepository(pool),
		DailyStatRepository:    NewDailyStatRepository(pool),
		SessionRepository:      NewSessionRepository(pool),
		LoginCodeRepository:    NewLoginCodeRepository(pool),
		BrowseStatRepository:   NewBrowseStatRepository(pool),
		AdminRepository:        NewAdminRepository(pool),
		logger:                 logger.With("component", "sqlite"),
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	if err := s.migrator().Run(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// MigrationStatus reports applied and pending embedded migrations.
func (s *Storage) MigrationStatus(ctx context.Context) (migration.Status, error) {
	return s.migrator().Status(ctx)
}

func (s *Storage) migrator() *migration.Manager {
	return migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewSQLiteExecutor(s.DB()),
		s.logger,
	)
}
