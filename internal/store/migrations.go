package store

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS definitions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL CHECK (kind IN ('predefined', 'user')),
    adapter_kind TEXT NOT NULL,
    name TEXT NOT NULL,
    fname TEXT,
    owner TEXT,
    parameters TEXT,
    default_roles TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_definitions_fname
    ON definitions(fname) WHERE fname IS NOT NULL;

CREATE TABLE IF NOT EXISTS news_sets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now')),
    UNIQUE (user_id, name)
);

CREATE TABLE IF NOT EXISTS configurations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    set_id INTEGER NOT NULL REFERENCES news_sets(id),
    definition_id INTEGER NOT NULL REFERENCES definitions(id),
    kind TEXT NOT NULL CHECK (kind IN ('predefined', 'user')),
    displayed INTEGER NOT NULL DEFAULT 1,
    position INTEGER NOT NULL DEFAULT 0,
    owner TEXT,
    UNIQUE (set_id, definition_id)
);

CREATE INDEX IF NOT EXISTS idx_configurations_set
    ON configurations(set_id);
`)
			return err
		},
	},
}
