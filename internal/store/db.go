// Package store persists parsed family trees in SQLite so a converted tree can be
// re-rendered without re-parsing GEDCOM.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS imports (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	individuals INTEGER NOT NULL,
	families INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS individuals (
	position INTEGER PRIMARY KEY,
	id TEXT NOT NULL,
	forename TEXT NOT NULL DEFAULT '',
	surname TEXT NOT NULL DEFAULT '',
	sex TEXT NOT NULL DEFAULT '',
	famc TEXT NOT NULL DEFAULT '',
	note TEXT NOT NULL DEFAULT '',
	birth TEXT NOT NULL DEFAULT '',
	death TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS individual_fams (
	position INTEGER NOT NULL REFERENCES individuals(position) ON DELETE CASCADE,
	ord INTEGER NOT NULL,
	family_id TEXT NOT NULL,
	PRIMARY KEY (position, ord)
);
CREATE TABLE IF NOT EXISTS families (
	position INTEGER PRIMARY KEY,
	id TEXT NOT NULL,
	wife TEXT NOT NULL DEFAULT '',
	husb TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS family_children (
	position INTEGER NOT NULL REFERENCES families(position) ON DELETE CASCADE,
	ord INTEGER NOT NULL,
	child_id TEXT NOT NULL,
	PRIMARY KEY (position, ord)
);
`

// DB wraps a SQLite database connection
type DB struct {
	conn *sql.DB
	Path string
}

// OpenDB opens a SQLite database with WAL mode and foreign keys enabled, creating the
// tables on first use
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{conn: conn, Path: path}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries
func (d *DB) Conn() *sql.DB {
	return d.conn
}
