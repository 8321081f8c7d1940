package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DBFile is the database file name inside the metadata directory.
const DBFile = "dragonfly.db"

const schema = `
CREATE TABLE IF NOT EXISTS translations (
    lang        TEXT NOT NULL,
    source      TEXT NOT NULL,
    translation TEXT NOT NULL,
    type        TEXT NOT NULL DEFAULT '',
    updated_at  INTEGER NOT NULL,
    PRIMARY KEY (lang, source)
);

CREATE TABLE IF NOT EXISTS markers (
    doc         TEXT NOT NULL,
    sentence    INTEGER NOT NULL,
    created_at  INTEGER NOT NULL,
    PRIMARY KEY (doc, sentence)
);

CREATE INDEX IF NOT EXISTS idx_markers_doc ON markers(doc, created_at);
`

// Store holds the user-maintained translation dictionaries and sentence
// markers.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
