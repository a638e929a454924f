package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultCacheTTL bounds how long a provider page is reused.
const DefaultCacheTTL = 6 * time.Hour

// CachedProvider serves repeated (query, start) pairs from Redis.
type CachedProvider struct {
	next   Provider
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// CachedProviderConfig holds configuration for the cached provider.
type CachedProviderConfig struct {
	TTL time.Duration
	// Prefix namespaces keys, typically per destination.
	Prefix string
}

// NewCachedProvider wraps next with a Redis page cache. Cache errors are
// logged and fall through to next.
func NewCachedProvider(next Provider, rdb redis.Cmdable, cfg CachedProviderConfig, logger *zap.Logger) *CachedProvider {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "sourcer:page"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{next: next, rdb: rdb, ttl: cfg.TTL, prefix: cfg.Prefix, logger: logger}
}

// Search returns a cached page or fetches and stores it. Empty pages are not cached.
func (c *CachedProvider) Search(ctx context.Context, query string, start int64) (*Page, error) {
	key := c.key(query, start)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var page Page
		if err := json.Unmarshal(data, &page); err == nil {
			return &page, nil
		}
		c.logger.Warn("discarding corrupt cached page", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("page cache read failed", zap.Error(err))
	}

	page, err := c.next.Search(ctx, query, start)
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return page, nil
	}

	encoded, err := json.Marshal(page)
	if err != nil {
		return nil, fmt.Errorf("failed to encode page: %w", err)
	}
	if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		c.logger.Warn("page cache write failed", zap.Error(err))
	}
	return page, nil
}

func (c *CachedProvider) key(query string, start int64) string {
	sum := sha256.Sum256([]byte(query + "\x00" + strconv.FormatInt(start, 10)))
	return c.prefix + ":" + hex.EncodeToString(sum[:])
}
