package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/wadjakorntonsri/linkvault/pkg/core/domain"
	"github.com/wadjakorntonsri/linkvault/pkg/ports"
)

const cacheSchema = `
	CREATE TABLE IF NOT EXISTS cache_buckets (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS cache_entries (
		bucket TEXT NOT NULL,
		key TEXT NOT NULL,
		status INTEGER NOT NULL,
		header JSON,
		body BLOB,
		stored_at DATETIME NOT NULL,
		PRIMARY KEY (bucket, key),
		FOREIGN KEY(bucket) REFERENCES cache_buckets(name) ON DELETE CASCADE
	);
`

// CacheStorage keeps the proxy's buckets in SQLite so they survive restarts
// and can be shared with other processes opening the same file.
type CacheStorage struct {
	db *sql.DB
}

func NewCacheStorage(dbURL string) (*CacheStorage, error) {
	db, err := Open(dbURL, cacheSchema)
	if err != nil {
		return nil, err
	}
	return &CacheStorage{db: db}, nil
}

func (c *CacheStorage) Close() error {
	return c.db.Close()
}

func (c *CacheStorage) OpenBucket(ctx context.Context, bucket string) error {
	_, err := c.db.ExecContext(ctx, `INSERT INTO cache_buckets (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, bucket)
	return err
}

func (c *CacheStorage) Put(ctx context.Context, bucket, key string, resp *domain.CachedResponse) error {
	headerJSON, err := json.Marshal(resp.Header)
	if err != nil {
		return err
	}
	storedAt := resp.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO cache_buckets (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, bucket); err != nil {
		return err
	}

	query := `INSERT INTO cache_entries (bucket, key, status, header, body, stored_at) VALUES (?, ?, ?, ?, ?, ?)
			  ON CONFLICT(bucket, key) DO UPDATE SET status = excluded.status, header = excluded.header,
			  body = excluded.body, stored_at = excluded.stored_at`
	if _, err := tx.ExecContext(ctx, query, bucket, key, resp.StatusCode, headerJSON, resp.Body, storedAt.UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func (c *CacheStorage) Match(ctx context.Context, bucket, key string) (*domain.CachedResponse, error) {
	query := `SELECT e.status, e.header, e.body, e.stored_at FROM cache_entries e
			  JOIN cache_buckets b ON b.name = e.bucket
			  WHERE e.key = ?`
	args := []any{key}
	if bucket != "" {
		query += " AND e.bucket = ?"
		args = append(args, bucket)
	}
	query += " ORDER BY b.seq ASC LIMIT 1"

	var resp domain.CachedResponse
	var headerJSON []byte
	err := c.db.QueryRowContext(ctx, query, args...).Scan(&resp.StatusCode, &headerJSON, &resp.Body, &resp.StoredAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(headerJSON) > 0 {
		if err := json.Unmarshal(headerJSON, &resp.Header); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

func (c *CacheStorage) Buckets(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name FROM cache_buckets ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (c *CacheStorage) DeleteBucket(ctx context.Context, bucket string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE bucket = ?`, bucket); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_buckets WHERE name = ?`, bucket); err != nil {
		return err
	}
	return tx.Commit()
}

// Ensure interface compliance
var _ ports.CacheStorage = (*CacheStorage)(nil)
