package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter implements a Redis fixed-window counter. GPS ingestion is the
// chattiest endpoint and the one worth protecting from runaway clients.
type RateLimiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, perMinute int) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  int64(perMinute),
		window: time.Minute,
	}
}

// Allow reports whether one more request fits in the caller's current
// window. On Redis failure it fails open; rate limiting is protection,
// not a dependency.
func (r *RateLimiter) Allow(ctx context.Context, key string) bool {
	windowKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := r.redis.Incr(ctx, windowKey).Result()
	if err != nil {
		return true
	}
	if count == 1 {
		r.redis.Expire(ctx, windowKey, r.window)
	}
	return count <= r.limit
}

// IsSuspiciousUserAgent flags obvious scraper user agents.
func IsSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
