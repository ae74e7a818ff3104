// Package migration applies versioned schema changes to SQLite databases.
//
// Migration files live in an fs.FS, usually an embed.FS compiled into the
// binary, and follow the naming convention {version}_{description}.sql
// (e.g., "001_initial_schema.sql"). Versions must form a gapless sequence.
//
// Applied versions and the checksum of their file are tracked in the
// schema_migrations table. Each migration runs in its own transaction together
// with its bookkeeping row, so a failing file leaves no partial schema.
//
// Example usage:
//
//	manager := NewManager(NewScanner(files, "migrations"), NewSQLiteExecutor(db), logger)
//	if err := manager.Run(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
