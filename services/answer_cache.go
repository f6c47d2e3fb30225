package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dsarkar123/ReguluS-MAS/internal/logger"
)

// AnswerCache caches synthesized answers keyed by a hash of the normalized
// query. All methods are nil-receiver safe, so callers can hold a nil
// cache when Redis is not configured.
type AnswerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAnswerCache(rdb *redis.Client, ttl time.Duration) *AnswerCache {
	return &AnswerCache{rdb: rdb, ttl: ttl}
}

// Get returns a cached answer and whether one was found.
func (c *AnswerCache) Get(ctx context.Context, query string) (string, bool) {
	if c == nil || c.rdb == nil {
		return "", false
	}

	answer, err := c.rdb.Get(ctx, cacheKey(query)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		logger.Warn("Answer cache read failed", "error", err)
		return "", false
	}
	return answer, true
}

// Set stores an answer; cache write failures are logged, never fatal.
func (c *AnswerCache) Set(ctx context.Context, query, answer string) {
	if c == nil || c.rdb == nil {
		return
	}

	if err := c.rdb.Set(ctx, cacheKey(query), answer, c.ttl).Err(); err != nil {
		logger.Warn("Answer cache write failed", "error", err)
	}
}

func cacheKey(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(normalized))
	return "answer:" + hex.EncodeToString(sum[:])
}
