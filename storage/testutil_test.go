package storage

import (
	"sync"
	"testing"
	"time"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	dataDir := t.TempDir()
	store, _, err := Open(dataDir, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close test store: %v", err)
		}
	})

	return store, clock
}

func int64p(v int64) *int64 {
	return &v
}

func countMessages(t *testing.T, store *Store) int64 {
	t.Helper()

	var count int64
	if err := store.db.QueryRow(`SELECT COUNT(1) FROM messages`).Scan(&count); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	return count
}
