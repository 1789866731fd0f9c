package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS photo_cache (
	key       TEXT PRIMARY KEY,
	url       TEXT NOT NULL,
	thumb_url TEXT NOT NULL DEFAULT '',
	reference TEXT NOT NULL DEFAULT '',
	source    TEXT NOT NULL DEFAULT '',
	cached_at TIMESTAMP NOT NULL
);`

// Store is the sqlite-backed on-disk cache tier.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the cache database under dataDir.
// If dataDir is empty, defaults to ~/.go-trip-itinerary/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".go-trip-itinerary", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "enrichment.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating photo_cache table: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(ctx context.Context, key string) (Entry, bool, error) {
	var entry Entry
	row := s.db.QueryRowContext(ctx,
		`SELECT url, thumb_url, reference, source, cached_at FROM photo_cache WHERE key = ?`, key)
	err := row.Scan(&entry.URL, &entry.ThumbURL, &entry.Reference, &entry.Source, &entry.CachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading cache entry: %w", err)
	}
	return entry, true, nil
}

func (s *Store) Put(ctx context.Context, key string, entry Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO photo_cache (key, url, thumb_url, reference, source, cached_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   url = excluded.url,
		   thumb_url = excluded.thumb_url,
		   reference = excluded.reference,
		   source = excluded.source,
		   cached_at = excluded.cached_at`,
		key, entry.URL, entry.ThumbURL, entry.Reference, entry.Source, entry.CachedAt)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}
