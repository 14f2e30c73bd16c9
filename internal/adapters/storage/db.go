package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	sql     string
}

// migrations lists every schema step in order. Never edit a released step;
// append a new one instead.
var migrations = []migration{
	{
		version: 1,
		name:    "events, patrons and attendance history",
		sql: `
	CREATE TABLE IF NOT EXISTS event (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		event_date TEXT NOT NULL DEFAULT '',
		event_time TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'publish'
	);

	CREATE INDEX IF NOT EXISTS idx_event_status_title ON event(status, title);

	CREATE TABLE IF NOT EXISTS patron (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'publish'
	);

	CREATE INDEX IF NOT EXISTS idx_patron_status_title ON patron(status, title);
	CREATE INDEX IF NOT EXISTS idx_patron_email ON patron(email);

	CREATE TABLE IF NOT EXISTS event_history (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		patron_id TEXT NOT NULL,
		checked_in_at TEXT NOT NULL,
		UNIQUE (event_id, patron_id),
		FOREIGN KEY (event_id) REFERENCES event(id),
		FOREIGN KEY (patron_id) REFERENCES patron(id)
	);
	`,
	},
	{
		version: 2,
		name:    "host content pages",
		sql: `
	CREATE TABLE IF NOT EXISTS page (
		slug TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT ''
	);
	`,
	},
}

// LatestSchemaVersion returns the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the version recorded in the database (0 when fresh).
// PRE: db is a valid database connection
// POST: Returns the highest applied migration version
func SchemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)"); err != nil {
		return 0, fmt.Errorf("failed to create schema_version: %w", err)
	}
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies every pending migration, each in its own transaction.
// PRE: db is a valid database connection
// POST: All tables exist and schema_version equals LatestSchemaVersion
// INVARIANT: Running MigrateDB twice is a no-op the second time
func MigrateDB(db *sql.DB) error {
	// Enable foreign key enforcement for this connection
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: record version: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", m.version, err)
		}
		slog.Info("schema_migrated", "version", m.version, "name", m.name)
	}
	return nil
}
