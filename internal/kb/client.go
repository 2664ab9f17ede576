// Package kb is the gateway to the expert knowledge graph. It runs
// Cypher queries against Neo4j and maps records to Go types. Whole-label
// reads (interest listings, statistics) go through a SQLite read-through
// cache with single-flight deduplication so concurrent sessions do not
// stampede the graph.
package kb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/sync/singleflight"

	domerrors "github.com/yumeleng/scholar-qa-go/internal/errors"
	"github.com/yumeleng/scholar-qa-go/internal/logger"
	"github.com/yumeleng/scholar-qa-go/internal/metrics"
	"github.com/yumeleng/scholar-qa-go/internal/storage"
)

// Config configures a knowledge graph client.
type Config struct {
	URI      string // bolt:// or neo4j:// address
	User     string
	Password string
	Database string // empty means the server default
}

// Client wraps the Neo4j driver with logging, metrics, and caching.
type Client struct {
	driver  neo4j.DriverWithContext
	db      string
	log     *logger.Logger
	metrics *metrics.Metrics
	cache   *storage.DB
	sf      singleflight.Group
}

// Option customizes a Client.
type Option func(*Client)

// WithMetrics attaches query instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithCache attaches a read-through cache for whole-label queries.
// Without it every statistics request hits the graph.
func WithCache(db *storage.DB) Option {
	return func(c *Client) { c.cache = db }
}

// NewClient connects to the graph database and verifies connectivity.
func NewClient(ctx context.Context, cfg Config, log *logger.Logger, opts ...Option) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create graph driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to graph database at %s: %w", cfg.URI, err)
	}

	c := &Client{
		driver: driver,
		db:     cfg.Database,
		log:    log.WithModule("kb"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.log.Infof("connected to graph database at %s", cfg.URI)
	return c, nil
}

// Close releases the driver's connection pool.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// Ready reports whether the graph database is reachable.
func (c *Client) Ready(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// run executes a Cypher query and returns the eager result, recording
// per-operation metrics.
func (c *Client) run(ctx context.Context, operation, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	start := time.Now()
	result, err := neo4j.ExecuteQuery(ctx, c.driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.db),
		neo4j.ExecuteQueryWithReadersRouting(),
	)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordStoreQuery(operation, status, elapsed.Seconds())

	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			err = fmt.Errorf("%w: %v", domerrors.ErrTimeout, err)
		case errors.Is(err, context.Canceled):
			err = fmt.Errorf("%w: %v", domerrors.ErrContextCanceled, err)
		}
		c.log.WithError(err).WithField("operation", operation).Errorf("graph query failed")
		return nil, domerrors.NewStoreError(operation, err)
	}

	c.log.WithFields(map[string]any{
		"operation":   operation,
		"records":     len(result.Records),
		"duration_ms": elapsed.Milliseconds(),
	}).Debugf("graph query completed")
	return result.Records, nil
}

// cached runs fetch through the cache and single-flight group under key.
// Results are decoded into a fresh T; cache failures degrade to a direct
// fetch.
func cached[T any](ctx context.Context, c *Client, key string, fetch func(context.Context) (T, error)) (T, error) {
	if c.cache == nil {
		return fetch(ctx)
	}

	var zero T
	v, err, _ := c.sf.Do(key, func() (any, error) {
		var out T
		if err := c.cache.Get(ctx, key, &out); err == nil {
			c.metrics.RecordCacheHit(key)
			return out, nil
		}
		c.metrics.RecordCacheMiss(key)

		out, err := fetch(ctx)
		if err != nil {
			return zero, err
		}
		if err := c.cache.Set(ctx, key, out); err != nil {
			c.log.WithError(err).Warnf("failed to cache %s", key)
		}
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// stringValue reads a string field from a record, tolerating nulls.
func stringValue(record *neo4j.Record, key string) string {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// intValue reads an integer field from a record, nil when absent.
func intValue(record *neo4j.Record, key string) *int64 {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return nil
	}
	n, ok := v.(int64)
	if !ok {
		return nil
	}
	return &n
}

// yearValue reads a year field, which some imports store as a string.
func yearValue(record *neo4j.Record, key string) int64 {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case string:
		var year int64
		if _, err := fmt.Sscanf(n, "%d", &year); err == nil {
			return year
		}
	}
	return 0
}

// stringsValue reads a list of strings from a record.
func stringsValue(record *neo4j.Record, key string) []string {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// authorsValue reads a list of {name, name_zh} maps from a record.
func authorsValue(record *neo4j.Record, key string) []Author {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Author, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		a := Author{}
		if s, ok := m["name"].(string); ok {
			a.Name = s
		}
		if s, ok := m["name_zh"].(string); ok {
			a.NameZh = s
		}
		if a.Name != "" || a.NameZh != "" {
			out = append(out, a)
		}
	}
	return out
}
