package sqlite

import (
	"database/sql"
)

// applyMigrations creates the schema if missing. Times are stored as Unix nanoseconds.
func applyMigrations(db *sql.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS links (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  code       TEXT    NOT NULL UNIQUE,
  owner      TEXT    NOT NULL REFERENCES users(id),
  original   TEXT    NOT NULL,
  used       INTEGER NOT NULL DEFAULT 0,
  max_uses   INTEGER NOT NULL CHECK (max_uses > 0),
  expires_at INTEGER NULL,
  created_at INTEGER NOT NULL,
  CHECK (used <= max_uses)
);

CREATE INDEX IF NOT EXISTS idx_links_owner ON links(owner, id);
CREATE INDEX IF NOT EXISTS idx_links_expires_at ON links(expires_at);
`
