package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"ContentPipeline/internal/domain"
)

type memoryKV struct {
	data    map[string]string
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func (m *memoryKV) Get(_ context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryKV) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if m.setErr != nil {
		return redis.NewStatusResult("", m.setErr)
	}
	m.data[key] = string(value.([]byte))
	m.lastTTL = ttl
	return redis.NewStatusResult("OK", nil)
}

type countingExtractor struct {
	calls int
	err   error
}

func (c *countingExtractor) Scrape(context.Context, string) (domain.ContactBundle, error) {
	c.calls++
	return domain.ContactBundle{Domain: "example.com", Emails: []string{"a@example.com"}}, c.err
}

func TestContactCacheMemoizes(t *testing.T) {
	t.Parallel()

	store := &memoryKV{data: map[string]string{}}
	next := &countingExtractor{}
	c := &ContactCache{store: store, next: next, ttl: time.Hour}

	for i := 0; i < 3; i++ {
		bundle, err := c.Scrape(context.Background(), "https://example.com/")
		if err != nil {
			t.Fatalf("Scrape returned error: %v", err)
		}
		if bundle.Domain != "example.com" || len(bundle.Emails) != 1 {
			t.Fatalf("unexpected bundle %+v", bundle)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", next.calls)
	}
	if store.lastTTL != time.Hour {
		t.Fatalf("ttl not applied: %s", store.lastTTL)
	}
}

func TestContactCacheFallsThroughOnRedisErrors(t *testing.T) {
	t.Parallel()

	store := &memoryKV{data: map[string]string{}, getErr: errors.New("connection refused"), setErr: errors.New("connection refused")}
	next := &countingExtractor{}
	c := &ContactCache{store: store, next: next}

	if _, err := c.Scrape(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("redis failures must not fail the lookup: %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected upstream call, got %d", next.calls)
	}
}

func TestContactCacheDoesNotStoreFailures(t *testing.T) {
	t.Parallel()

	store := &memoryKV{data: map[string]string{}}
	c := &ContactCache{store: store, next: &countingExtractor{err: errors.New("blocked")}}

	if _, err := c.Scrape(context.Background(), "https://example.com"); err == nil {
		t.Fatalf("expected upstream error")
	}
	if len(store.data) != 0 {
		t.Fatalf("failures must not be cached")
	}
}

func TestContactCacheWithoutRedis(t *testing.T) {
	t.Parallel()

	next := &countingExtractor{}
	c := NewContactCache(nil, next, time.Hour, nil)
	c.Scrape(context.Background(), "https://example.com")
	c.Scrape(context.Background(), "https://example.com")
	if next.calls != 2 {
		t.Fatalf("expected passthrough without redis, got %d calls", next.calls)
	}
}

func TestContactKey(t *testing.T) {
	t.Parallel()

	a := ContactKey("https://Example.com/")
	b := ContactKey("https://example.com")
	if a != b {
		t.Fatalf("keys differ for equivalent urls: %s vs %s", a, b)
	}
	if ContactKey("https://other.com") == a {
		t.Fatalf("keys collide for different sites")
	}
	if len(a) != len("contacts:")+16 {
		t.Fatalf("unexpected key %s", a)
	}
}
