package migration

import (
	"context"
	"time"
)

// Migration represents a versioned schema change and its SQL content.
type Migration struct {
	Version     string // Version identifier (e.g., "001", "002")
	Description string // Human-readable description of the migration
	SQL         string // SQL statements to execute
	FilePath    string // Path of the file inside the migration filesystem
	Checksum    string // SHA-256 of SQL
}

// AppliedMigration represents a migration recorded in schema_migrations.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status summarizes the schema state of a database.
type Status struct {
	CurrentVersion string
	Applied        []AppliedMigration
	Pending        []Migration
}

// Executor applies migrations and tracks which versions have run.
type Executor interface {
	// InitializeVersionTable creates the schema_migrations table if it doesn't exist.
	InitializeVersionTable(ctx context.Context) error
	// ApplyMigration runs the statements and records the version in one transaction.
	ApplyMigration(ctx context.Context, migration Migration) (time.Duration, error)
	// AppliedMigrations returns recorded versions in ascending order.
	AppliedMigrations(ctx context.Context) ([]AppliedMigration, error)
}
