package store

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"places-enricher/internal/common/errors"
)

// SQLiteStore persists records in a single kv table in a local SQLite file.
// This is the default backend: the cache is device-local and survives
// restarts, which is all the subsystem asks of it.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.ConfigError("sqlite store path is required")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.StorageError("failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.StorageError("failed to ping database", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_kv_updated_at ON kv(updated_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return errors.StorageError("failed to execute migration query", err)
		}
	}

	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.StorageError("failed to read record", err).WithContext("key", key)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return errors.StorageError("failed to write record", err).WithContext("key", key)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return errors.StorageError("failed to delete record", err).WithContext("key", key)
	}
	return nil
}

func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key FROM kv WHERE key LIKE ? ESCAPE '\\' ORDER BY key",
		escapeLike(prefix)+"%")
	if err != nil {
		return nil, errors.StorageError("failed to list keys", err).WithContext("prefix", prefix)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.StorageError("failed to scan key", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("failed to list keys", err)
	}
	return keys, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv"); err != nil {
		return errors.StorageError("failed to clear store", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Health() error {
	return s.db.Ping()
}

// escapeLike escapes LIKE metacharacters so prefixes containing % or _ match
// literally.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

var _ Store = (*SQLiteStore)(nil)
