package fetch

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Statuses worth keeping around. Retryable server errors are never
// cached so a flaky page gets a fresh attempt on the next run.
var cacheableStatuses = map[int]bool{200: true, 301: true, 302: true, 404: true}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS http_cache (
	id           TEXT PRIMARY KEY,
	url          TEXT NOT NULL UNIQUE,
	status_code  INTEGER NOT NULL,
	content_type TEXT NOT NULL DEFAULT '',
	body         BLOB,
	fetched_at   TIMESTAMP NOT NULL,
	expires_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_http_cache_expires ON http_cache (expires_at);
`

// Cache is a sqlite-backed HTTP response cache with TTL expiry.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

type cachedResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrap(err, "fetch: create cache directory")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: open cache database")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "fetch: apply %s", pragma)
		}
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "fetch: create cache schema")
	}
	return &Cache{db: db, ttl: ttl}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached response for a URL, or ok=false when absent
// or expired. Expired rows are deleted on the way out.
func (c *Cache) Get(ctx context.Context, url string) (cachedResponse, bool) {
	var (
		resp      cachedResponse
		expiresAt time.Time
	)
	row := c.db.QueryRowContext(ctx,
		`SELECT status_code, content_type, body, expires_at FROM http_cache WHERE url = ?`, url)
	if err := row.Scan(&resp.StatusCode, &resp.ContentType, &resp.Body, &expiresAt); err != nil {
		if err != sql.ErrNoRows {
			zap.L().Warn("cache read failed", zap.String("url", url), zap.Error(err))
		}
		return cachedResponse{}, false
	}
	if time.Now().After(expiresAt) {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM http_cache WHERE url = ?`, url); err != nil {
			zap.L().Warn("cache eviction failed", zap.String("url", url), zap.Error(err))
		}
		return cachedResponse{}, false
	}
	return resp, true
}

// Put stores a response when its status is cacheable; everything else
// is a no-op.
func (c *Cache) Put(ctx context.Context, url string, resp cachedResponse) {
	if !cacheableStatuses[resp.StatusCode] {
		return
	}
	now := time.Now().UTC()
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO http_cache (id, url, status_code, content_type, body, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			status_code  = excluded.status_code,
			content_type = excluded.content_type,
			body         = excluded.body,
			fetched_at   = excluded.fetched_at,
			expires_at   = excluded.expires_at`,
		uuid.NewString(), url, resp.StatusCode, resp.ContentType, resp.Body, now, now.Add(c.ttl))
	if err != nil {
		zap.L().Warn("cache write failed", zap.String("url", url), zap.Error(err))
	}
}
