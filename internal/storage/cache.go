package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss is returned when a key is absent or its entry has expired.
var ErrCacheMiss = errors.New("cache miss")

// Get loads the cached JSON value for key into dest. Entries older than the
// configured TTL count as misses; the stale row is left for the cleanup job.
func (db *DB) Get(ctx context.Context, key string, dest any) error {
	query := `SELECT value, cached_at FROM query_cache WHERE key = ?`

	var value string
	var cachedAt int64
	err := db.conn.QueryRowContext(ctx, query, key).Scan(&value, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("failed to read cache entry %q: %w", key, err)
	}

	if time.Since(time.Unix(cachedAt, 0)) > db.cacheTTL {
		return ErrCacheMiss
	}

	if err := json.Unmarshal([]byte(value), dest); err != nil {
		return fmt.Errorf("failed to decode cache entry %q: %w", key, err)
	}
	return nil
}

// Set stores value for key as JSON, overwriting any existing entry.
func (db *DB) Set(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %q: %w", key, err)
	}

	query := `
	INSERT INTO query_cache (key, value, cached_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, cached_at = excluded.cached_at
	`
	if _, err := db.conn.ExecContext(ctx, query, key, string(encoded), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to write cache entry %q: %w", key, err)
	}
	return nil
}

// DeleteExpired removes entries older than the configured TTL.
// Returns the number of deleted entries.
func (db *DB) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM query_cache WHERE cached_at < ?`
	expiryTime := time.Now().Add(-db.cacheTTL).Unix()

	result, err := db.conn.ExecContext(ctx, query, expiryTime)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// Count returns the number of non-expired cache entries.
func (db *DB) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM query_cache WHERE cached_at > ?`
	expiryTime := time.Now().Add(-db.cacheTTL).Unix()

	var count int
	if err := db.conn.QueryRowContext(ctx, query, expiryTime).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}

// Ready verifies the database connection is usable.
func (db *DB) Ready(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
