package migration

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Manager orchestrates scanning, validation and execution of migrations.
type Manager struct {
	scanner  *Scanner
	executor Executor
	logger   *slog.Logger
}

// NewManager creates a Manager. A nil logger falls back to slog.Default.
func NewManager(scanner *Scanner, executor Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{scanner: scanner, executor: executor, logger: logger.With("component", "migration")}
}

// Run applies all pending migrations in ascending order. It stops at the first
// failure; migrations applied before it stay applied.
func (m *Manager) Run(ctx context.Context) error {
	start := time.Now()

	status, err := m.Status(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to resolve migration status", "error", err)
		return err
	}

	m.logger.InfoContext(ctx, "schema version resolved",
		"current_version", status.CurrentVersion,
		"applied", len(status.Applied),
		"pending", len(status.Pending),
	)
	if len(status.Pending) == 0 {
		return nil
	}

	for i, migration := range status.Pending {
		logger := m.logger.With("version", migration.Version, "file", migration.FilePath)
		logger.InfoContext(ctx, "applying migration",
			"description", migration.Description,
			"position", fmt.Sprintf("%d/%d", i+1, len(status.Pending)),
		)

		elapsed, err := m.executor.ApplyMigration(ctx, migration)
		if err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return err
		}
		logger.InfoContext(ctx, "migration applied", "duration", elapsed)
	}

	m.logger.InfoContext(ctx, "all migrations applied", "count", len(status.Pending), "duration", time.Since(start))
	return nil
}

// Status compares the migration files with the schema_migrations table. It
// fails when the file sequence has a gap, when an applied version has no file,
// or when an applied file was edited.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}

	available, err := m.scanner.Scan()
	if err != nil {
		return Status{}, err
	}
	if err := validateSequence(available); err != nil {
		return Status{}, err
	}

	applied, err := m.executor.AppliedMigrations(ctx)
	if err != nil {
		return Status{}, err
	}

	byVersion := make(map[int]Migration, len(available))
	for _, migration := range available {
		n, _ := strconv.Atoi(migration.Version)
		byVersion[n] = migration
	}

	status := Status{Applied: applied}
	appliedSet := make(map[int]struct{}, len(applied))
	for _, a := range applied {
		n, err := strconv.Atoi(a.Version)
		if err != nil {
			return Status{}, NewMigrationError(a.Version, "", "validate applied version",
				fmt.Errorf("%w: applied version is not numeric", ErrVersionConflict))
		}
		file, ok := byVersion[n]
		if !ok {
			return Status{}, NewMigrationError(a.Version, "", "validate applied version",
				fmt.Errorf("%w: no migration file for applied version", ErrVersionConflict))
		}
		if a.Checksum != "" && a.Checksum != file.Checksum {
			return Status{}, NewMigrationError(a.Version, file.FilePath, "verify checksum", ErrChecksumMismatch)
		}
		appliedSet[n] = struct{}{}
		status.CurrentVersion = a.Version
	}

	for _, migration := range available {
		n, _ := strconv.Atoi(migration.Version)
		if _, ok := appliedSet[n]; !ok {
			status.Pending = append(status.Pending, migration)
		}
	}
	return status, nil
}

// validateSequence requires sorted versions without gaps.
func validateSequence(migrations []Migration) error {
	for i := 1; i < len(migrations); i++ {
		prev, _ := strconv.Atoi(migrations[i-1].Version)
		cur, _ := strconv.Atoi(migrations[i].Version)
		if cur != prev+1 {
			return NewMigrationError(migrations[i].Version, migrations[i].FilePath, "validate sequence",
				fmt.Errorf("%w: missing migration version %03d", ErrVersionConflict, prev+1))
		}
	}
	return nil
}
