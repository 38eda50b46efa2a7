package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ContentPipeline/internal/domain"
	"ContentPipeline/internal/ports"
)

type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// ContactCache memoizes contact bundles in Redis across runs. Redis errors
// never fail a lookup; they fall through to the wrapped extractor.
type ContactCache struct {
	store  kv
	next   ports.ContactExtractor
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.ContactExtractor = (*ContactCache)(nil)

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func NewContactCache(client *redis.Client, next ports.ContactExtractor, ttl time.Duration, log *slog.Logger) *ContactCache {
	c := &ContactCache{next: next, ttl: ttl, logger: log}
	if client != nil {
		c.store = client
	}
	return c
}

func (c *ContactCache) Scrape(ctx context.Context, siteURL string) (domain.ContactBundle, error) {
	if c.next == nil {
		return domain.ContactBundle{}, fmt.Errorf("contact extractor not configured: %w", domain.ErrCapabilityUnavailable)
	}
	if c.store == nil {
		return c.next.Scrape(ctx, siteURL)
	}

	key := ContactKey(siteURL)
	if bundle, ok := c.lookup(ctx, key); ok {
		c.debug("contacts cache hit", "site", siteURL)
		return bundle, nil
	}

	bundle, err := c.next.Scrape(ctx, siteURL)
	if err != nil {
		return domain.ContactBundle{}, err
	}

	raw, err := json.Marshal(bundle)
	if err == nil {
		err = c.store.Set(ctx, key, raw, c.ttl).Err()
	}
	if err != nil {
		c.warn("store contacts in cache", "site", siteURL, "error", err)
	}
	return bundle, nil
}

func (c *ContactCache) lookup(ctx context.Context, key string) (domain.ContactBundle, bool) {
	raw, err := c.store.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ContactBundle{}, false
	}
	if err != nil {
		c.warn("read contacts from cache", "key", key, "error", err)
		return domain.ContactBundle{}, false
	}

	var bundle domain.ContactBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		c.warn("decode cached contacts", "key", key, "error", err)
		return domain.ContactBundle{}, false
	}
	return bundle, true
}

// ContactKey derives a stable cache key for a site URL.
func ContactKey(siteURL string) string {
	normalized := strings.TrimRight(strings.ToLower(strings.TrimSpace(siteURL)), "/")
	hash := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("contacts:%x", hash[:8])
}

func (c *ContactCache) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *ContactCache) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
