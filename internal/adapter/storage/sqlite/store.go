// Package sqlite persists listening statistics in a local SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tonearm-player/tonearm/internal/domain"
	"github.com/tonearm-player/tonearm/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS plays (
	track_id    TEXT PRIMARY KEY,
	play_count  INTEGER NOT NULL DEFAULT 0,
	last_played TIMESTAMP
);

CREATE TABLE IF NOT EXISTS play_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	track_id   TEXT NOT NULL,
	counted_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_play_events_track ON play_events(track_id);
`

// Store implements the PlayCountStore interface over a local SQLite file.
//
// Thread-safety: database/sql handles concurrent access; WAL mode keeps
// readers from blocking the write path.
type Store struct {
	logger *slog.Logger
	db     *sql.DB
}

// Open opens (or creates) the database at dbPath and applies the schema.
func Open(logger *slog.Logger, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, domain.NewStoreError("open", "create db directory", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, domain.NewStoreError("open", "open sqlite", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, domain.NewStoreError("open", fmt.Sprintf("apply pragma %q", pragma), err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, domain.NewStoreError("open", "ping sqlite", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, domain.NewStoreError("open", "apply schema", err)
	}

	return &Store{logger: logger, db: db}, nil
}

// IncrementPlayCount records one qualified listen: the aggregate counter is
// bumped and an immutable play event is appended, both in one transaction.
func (s *Store) IncrementPlayCount(trackID string, at time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return domain.NewStoreError("increment", "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO plays (track_id, play_count) VALUES (?, 1)
		ON CONFLICT(track_id) DO UPDATE SET play_count = play_count + 1`,
		trackID)
	if err != nil {
		return domain.NewStoreError("increment", "upsert play count", err)
	}

	_, err = tx.Exec(`INSERT INTO play_events (track_id, counted_at) VALUES (?, ?)`,
		trackID, at.UTC())
	if err != nil {
		return domain.NewStoreError("increment", "insert play event", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.NewStoreError("increment", "commit", err)
	}
	return nil
}

// SetLastPlayed records when the track last became current.
func (s *Store) SetLastPlayed(trackID string, at time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO plays (track_id, play_count, last_played) VALUES (?, 0, ?)
		ON CONFLICT(track_id) DO UPDATE SET last_played = excluded.last_played`,
		trackID, at.UTC())
	if err != nil {
		return domain.NewStoreError("last_played", "upsert last played", err)
	}
	return nil
}

// PlayCounts returns the persisted play count per track ID.
func (s *Store) PlayCounts() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT track_id, play_count FROM plays WHERE play_count > 0`)
	if err != nil {
		return nil, domain.NewStoreError("load", "query play counts", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, domain.NewStoreError("load", "scan play count row", err)
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("load", "iterate play counts", err)
	}
	return counts, nil
}

// LastPlayed returns the stored last-played time for a track, if any.
func (s *Store) LastPlayed(trackID string) (time.Time, bool, error) {
	var at sql.NullTime
	err := s.db.QueryRow(`SELECT last_played FROM plays WHERE track_id = ?`, trackID).Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, domain.NewStoreError("load", "query last played", err)
	}
	return at.Time, at.Valid, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return domain.NewStoreError("close", "close sqlite", err)
	}
	return nil
}

// Verify that Store implements the PlayCountStore interface
var _ ports.PlayCountStore = (*Store)(nil)
