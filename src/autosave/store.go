package autosave

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no content is stored under a key.
var ErrNotFound = errors.New("autosave entry not found")

// Entry is one stored document snapshot.
type Entry struct {
	Key      string
	Revision string
	Digest   string
	Markup   string
	SavedAt  time.Time
}

// Store keeps the latest markup per key.
type Store interface {
	Get(ctx context.Context, key string) (Entry, error)
	// Put stores markup under key. The bool is false when the stored content was
	// already identical and nothing was written.
	Put(ctx context.Context, key, markup string) (Entry, bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS autosave (
	key      TEXT PRIMARY KEY,
	revision TEXT NOT NULL,
	digest   TEXT NOT NULL,
	markup   TEXT NOT NULL,
	saved_at INTEGER NOT NULL
)`

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates the database at path. ":memory:" keeps everything in memory.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create autosave directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open autosave database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create autosave schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Get returns the entry stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (Entry, error) {
	var (
		entry   = Entry{Key: key}
		savedAt int64
	)
	row := s.db.QueryRowContext(ctx, `SELECT revision, digest, markup, saved_at FROM autosave WHERE key = ?`, key)
	if err := row.Scan(&entry.Revision, &entry.Digest, &entry.Markup, &savedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("read autosave %s: %w", key, err)
	}
	entry.SavedAt = time.Unix(0, savedAt)
	return entry, nil
}

// Put stores markup under key unless the stored digest already matches.
func (s *SQLiteStore) Put(ctx context.Context, key, markup string) (Entry, bool, error) {
	digest := Digest(markup)
	current, err := s.Get(ctx, key)
	switch {
	case err == nil && current.Digest == digest:
		return current, false, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return Entry{}, false, err
	}
	entry := Entry{
		Key:      key,
		Revision: uuid.NewString(),
		Digest:   digest,
		Markup:   markup,
		SavedAt:  s.now(),
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO autosave (key, revision, digest, markup, saved_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	revision = excluded.revision,
	digest = excluded.digest,
	markup = excluded.markup,
	saved_at = excluded.saved_at`,
		entry.Key, entry.Revision, entry.Digest, entry.Markup, entry.SavedAt.UnixNano())
	if err != nil {
		return Entry{}, false, fmt.Errorf("write autosave %s: %w", key, err)
	}
	return entry, true, nil
}

// Delete removes the entry for key. Deleting a missing key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM autosave WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete autosave %s: %w", key, err)
	}
	return nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Digest returns the hex BLAKE3 hash of markup.
func Digest(markup string) string {
	sum := blake3.Sum256([]byte(markup))
	return hex.EncodeToString(sum[:])
}
