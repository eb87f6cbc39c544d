// Package sqliteblob is a blob.Store backed by a single SQLite database
// file, for deployments where a directory of small files is impractical.
package sqliteblob

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/loredb/pkg/lore/blob"
	"github.com/cognicore/loredb/pkg/lore/internalerr"
)

// Store keeps every blob in one blobs table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite-backed store with WAL mode
// enabled.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", internalerr.ErrStorage, path, err)
	}

	// WAL for concurrent readers alongside the writer
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStorage, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS blobs (
	path TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	modified_at INTEGER NOT NULL
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: init schema: %v", internalerr.ErrStorage, err)
	}
	return nil
}

// Exists implements blob.Store.
func (s *Store) Exists(ctx context.Context, path blob.Path) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM blobs WHERE path = ?", string(path)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: exists %s: %v", internalerr.ErrStorage, path, err)
	}
	return true, nil
}

// LastModified implements blob.Store.
func (s *Store) LastModified(ctx context.Context, path blob.Path) (time.Time, bool, error) {
	var unixNano int64
	err := s.db.QueryRowContext(ctx,
		"SELECT modified_at FROM blobs WHERE path = ?", string(path)).Scan(&unixNano)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: last modified %s: %v", internalerr.ErrStorage, path, err)
	}
	return time.Unix(0, unixNano), true, nil
}

// Load implements blob.Store.
func (s *Store) Load(ctx context.Context, path blob.Path) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM blobs WHERE path = ?", string(path)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: load %s: %v", internalerr.ErrStorage, path, err)
	}
	return data, true, nil
}

// Save implements blob.Store.
func (s *Store) Save(ctx context.Context, path blob.Path, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO blobs (path, data, modified_at) VALUES (?, ?, ?)
ON CONFLICT(path) DO UPDATE SET data = excluded.data, modified_at = excluded.modified_at`,
		string(path), data, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("%w: save %s: %v", internalerr.ErrStorage, path, err)
	}
	return nil
}

// Delete implements blob.Store. Deleting an absent path is a no-op.
func (s *Store) Delete(ctx context.Context, path blob.Path) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM blobs WHERE path = ?", string(path))
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", internalerr.ErrStorage, path, err)
	}
	return nil
}

// List implements blob.Store.
func (s *Store) List(ctx context.Context, prefix blob.Path) ([]blob.Path, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT path FROM blobs WHERE path = ? OR path LIKE ? ESCAPE '\\'",
		string(prefix), likePattern(string(prefix))+"/%")
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", internalerr.ErrStorage, prefix, err)
	}
	defer rows.Close()

	var out []blob.Path
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("%w: list %s: %v", internalerr.ErrStorage, prefix, err)
		}
		out = append(out, blob.Path(p))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", internalerr.ErrStorage, prefix, err)
	}
	return out, nil
}

// likePattern escapes LIKE metacharacters in a literal prefix.
func likePattern(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
