package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend is the durable local tier. Entries survive process restarts
// and primary-tier outages.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens or creates the cache database at the given path.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0,
		stored_at  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Get returns the entry when present and unexpired. Expired rows are deleted
// on the way out.
func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt int64
	err := b.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key).
		Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if expiresAt > 0 && time.Now().Unix() >= expiresAt {
		_, _ = b.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores the entry, replacing any previous value atomically.
func (b *SQLiteBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).Unix()
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, expires_at, stored_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			stored_at = excluded.stored_at`,
		key, value, expiresAt, now.Unix())
	return err
}

func (b *SQLiteBackend) Clear(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	return err
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// Stats describes the durable tier contents.
type Stats struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
	Expired int    `json:"expired"`
	Bytes   int64  `json:"db_size_bytes"`
}

// Stats reports entry counts and the database file size.
func (b *SQLiteBackend) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{Path: dbPath}
	if info, err := os.Stat(dbPath); err == nil {
		st.Bytes = info.Size()
	}
	if err := b.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cache_entries`).Scan(&st.Entries); err != nil {
		return nil, err
	}
	err := b.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cache_entries WHERE expires_at > 0 AND expires_at <= ?`,
		time.Now().Unix()).Scan(&st.Expired)
	return st, err
}
