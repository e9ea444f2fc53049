// Package httpcache implements a content-addressed HTTP response cache:
// an optional, non-authoritative layer that fetchers may consult before
// making a request, keyed on request identity with a configurable TTL.
package httpcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/priceintel/pricingintel/internal/errs"
)

// Cache is a content-addressed store for fetched HTTP response bodies,
// keyed by a hash of (method, url). Entries older than TTL are treated as
// stale and a miss is reported so the caller re-fetches; Put always
// last-write-wins on conflict.
type Cache struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

var (
	poolOnce sync.Once
	pool     *pgxpool.Pool
	poolErr  error
)

// InitPool lazily creates the shared pgxpool.Pool from dsn. Safe to call
// from multiple goroutines; only the first call dials.
func InitPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolOnce.Do(func() {
		cfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			poolErr = &errs.ConfigError{Reason: "malformed cache database DSN", Err: err}
			return
		}
		pool, poolErr = pgxpool.NewWithConfig(ctx, cfg)
	})
	return pool, poolErr
}

// New builds a Cache over an already-initialized pool. ttlHours<=0 disables
// staleness checking (entries never expire).
func New(pool *pgxpool.Pool, ttlHours int) *Cache {
	ttl := time.Duration(ttlHours) * time.Hour
	return &Cache{pool: pool, ttl: ttl}
}

// Key fingerprints a request for the cache lookup.
func Key(method, url string) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte("\x00"))
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS http_cache (
	key TEXT PRIMARY KEY,
	body BYTEA NOT NULL,
	status_code INT NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL
)`

// EnsureSchema creates the backing table if it does not already exist.
func (c *Cache) EnsureSchema(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, createTableSQL)
	return err
}

// Get returns the cached body and status for key, or ok=false on a miss
// (not found, or past TTL).
func (c *Cache) Get(ctx context.Context, key string) (body []byte, statusCode int, ok bool, err error) {
	row := c.pool.QueryRow(ctx, `SELECT body, status_code, fetched_at FROM http_cache WHERE key = $1`, key)
	var fetchedAt time.Time
	if scanErr := row.Scan(&body, &statusCode, &fetchedAt); scanErr != nil {
		return nil, 0, false, nil
	}
	if c.ttl > 0 && time.Since(fetchedAt) > c.ttl {
		return nil, 0, false, nil
	}
	return body, statusCode, true, nil
}

// Put stores (or overwrites, last-write-wins) the response for key.
func (c *Cache) Put(ctx context.Context, key string, body []byte, statusCode int, fetchedAt time.Time) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO http_cache (key, body, status_code, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			body = EXCLUDED.body,
			status_code = EXCLUDED.status_code,
			fetched_at = EXCLUDED.fetched_at
	`, key, body, statusCode, fetchedAt)
	return err
}
