package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestDB(t *testing.T, ttl time.Duration) *DB {
	t.Helper()
	db, err := New(":memory:", ttl)
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCacheRoundTrip(t *testing.T) {
	db := newTestDB(t, time.Hour)
	ctx := context.Background()

	names := []string{"Natural Language Generation", "Machine Learning"}
	if err := db.Set(ctx, "interest_names", names); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got []string
	if err := db.Get(ctx, "interest_names", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != 2 || got[0] != "Natural Language Generation" {
		t.Errorf("Get returned %v, want %v", got, names)
	}
}

func TestCacheMissOnAbsentKey(t *testing.T) {
	db := newTestDB(t, time.Hour)

	var got []string
	err := db.Get(context.Background(), "nope", &got)
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get on absent key = %v, want ErrCacheMiss", err)
	}
}

func TestCacheMissOnExpiredEntry(t *testing.T) {
	// Zero TTL: every stored entry is immediately expired.
	db := newTestDB(t, 0)
	ctx := context.Background()

	if err := db.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got string
	if err := db.Get(ctx, "k", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get on expired entry = %v, want ErrCacheMiss", err)
	}
}

func TestSetOverwrites(t *testing.T) {
	db := newTestDB(t, time.Hour)
	ctx := context.Background()

	if err := db.Set(ctx, "k", "old"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := db.Set(ctx, "k", "new"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	var got string
	if err := db.Get(ctx, "k", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "new" {
		t.Errorf("Get = %q, want %q", got, "new")
	}
}

func TestDeleteExpired(t *testing.T) {
	db := newTestDB(t, 0)
	ctx := context.Background()

	_ = db.Set(ctx, "a", 1)
	_ = db.Set(ctx, "b", 2)

	// cached_at < now - 0 excludes rows written this second; wait past it
	time.Sleep(1100 * time.Millisecond)

	deleted, err := db.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("DeleteExpired removed %d rows, want 2", deleted)
	}
}

func TestCountAndReady(t *testing.T) {
	db := newTestDB(t, time.Hour)
	ctx := context.Background()

	_ = db.Set(ctx, "a", 1)
	_ = db.Set(ctx, "b", 2)

	count, err := db.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Count = %d, want 2", count)
	}

	if err := db.Ready(ctx); err != nil {
		t.Errorf("Ready failed: %v", err)
	}
}
