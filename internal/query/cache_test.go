package query

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/orvull/omnisia-admin-console/internal/models"
)

type manualNow struct {
	mu sync.Mutex
	t  time.Time
}

func (m *manualNow) now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t
}

func (m *manualNow) add(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = m.t.Add(d)
}

func countingFetcher(calls *atomic.Int32, delay time.Duration) Fetcher[string] {
	return func(ctx context.Context, k Key) (models.Page[string], error) {
		calls.Add(1)
		time.Sleep(delay)
		return models.Page[string]{Data: []string{k.String()}, Meta: models.Meta{Page: k.Page}}, nil
	}
}

func TestCacheFreshAndStale(t *testing.T) {
	clock := &manualNow{t: time.Unix(1_700_000_000, 0)}
	c := NewCache[string](30*time.Second, 5*time.Minute)
	c.now = clock.now

	var calls atomic.Int32
	fetch := countingFetcher(&calls, 0)
	key := Key{Resource: "roles", Page: 1, Limit: 10}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(ctx, key, fetch); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d", calls.Load())
	}

	clock.add(31 * time.Second)
	if _, err := c.Fetch(ctx, key, fetch); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Fatal("stale entry not refetched")
	}

	c.Invalidate("users")
	if _, err := c.Fetch(ctx, key, fetch); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Fatal("invalidating another resource refetched roles")
	}

	c.Invalidate("roles")
	if _, ok := c.Peek(key); !ok {
		t.Fatal("invalidated entry no longer peekable")
	}
	if _, err := c.Fetch(ctx, key, fetch); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 3 {
		t.Fatal("invalidated entry not refetched")
	}
}

func TestCacheEviction(t *testing.T) {
	clock := &manualNow{t: time.Unix(1_700_000_000, 0)}
	c := NewCache[string](time.Second, time.Minute)
	c.now = clock.now

	var calls atomic.Int32
	ctx := context.Background()
	a := Key{Resource: "roles", Page: 1}
	b := Key{Resource: "roles", Page: 2}
	if _, err := c.Fetch(ctx, a, countingFetcher(&calls, 0)); err != nil {
		t.Fatal(err)
	}
	clock.add(2 * time.Minute)
	if _, err := c.Fetch(ctx, b, countingFetcher(&calls, 0)); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Peek(a); ok {
		t.Fatal("unused entry was not evicted")
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d", c.Len())
	}
}

func TestCacheSharesInflightLoads(t *testing.T) {
	c := NewCache[string](0, 0)
	var calls atomic.Int32
	fetch := countingFetcher(&calls, 50*time.Millisecond)
	key := Key{Resource: "roles", Page: 1}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Fetch(context.Background(), key, fetch); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestCacheInvalidateDuringLoad(t *testing.T) {
	c := NewCache[string](0, 0)
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context, k Key) (models.Page[string], error) {
		if calls.Add(1) == 1 {
			<-release
		}
		return models.Page[string]{Data: []string{"x"}}, nil
	}
	key := Key{Resource: "roles", Page: 1}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Fetch(context.Background(), key, fetch)
	}()
	for calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	c.Invalidate("roles")
	close(release)
	<-done

	if _, err := c.Fetch(context.Background(), key, fetch); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Fatal("page loaded before invalidation was served as fresh")
	}
}
