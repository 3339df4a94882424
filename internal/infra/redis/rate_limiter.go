package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter counts events per key in fixed windows. The first event of a
// window starts the window's expiry.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow records one event under key and reports whether it is within limit
// for the current window.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	n, err := r.hit(ctx, key, window)
	if err != nil {
		return false, err
	}
	return n <= int64(limit), nil
}

func (r *RateLimiter) hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := r.client.Incr(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("rate limit incr %s: %w", key, err)
	}
	if n > 1 {
		return n, nil
	}
	if err := r.client.Expire(ctx, key, window); err != nil {
		// every counter must carry an expiry
		_ = r.client.Del(ctx, key)
		return 0, fmt.Errorf("rate limit expire %s: %w", key, err)
	}
	return n, nil
}

func ConversationEventKey(conversationID int64) string {
	return fmt.Sprintf("rate_limit:conversation:%d", conversationID)
}
