package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a sliding-window limiter shared by every process that talks to the same Redis.
// ⭐ SSOT: 외부 API 호출 제한은 여기서만 (프로세스 로컬 제한은 httputil)
type RateLimiter struct {
	client *Client
	prefix string
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // 제공자 식별자 (e.g., "fx_provider")
	Limit  int           // Window 당 최대 요청 수
	Window time.Duration // 슬라이딩 윈도우 크기
}

// maxBackoff caps how long Wait sleeps between attempts
const maxBackoff = 2 * time.Second

// slidingWindow trims the window, then admits the request if there is room.
// Returns {allowed, remaining, retry_after_ms}.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local limit = tonumber(ARGV[2])
	local window_ms = tonumber(ARGV[3])
	local member = ARGV[4]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1, 0}
	end

	-- 가장 오래된 요청이 윈도우를 벗어날 때까지
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local retry = window_ms
	if oldest[2] then
		retry = tonumber(oldest[2]) + window_ms - now
	end
	return {0, 0, retry}
`)

// NewRateLimiter creates a new rate limiter; keys are namespaced under prefix
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
	}
}

func (r *RateLimiter) key(name string) string {
	return fmt.Sprintf("%s:ratelimit:%s", r.prefix, name)
}

// Allow checks if a request is allowed under the rate limit
// Returns (allowed, remaining, error)
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	allowed, remaining, _, err := r.try(ctx, cfg)
	return allowed, remaining, err
}

// try runs the window script once and also reports how long until a slot frees up
func (r *RateLimiter) try(ctx context.Context, cfg RateLimitConfig) (bool, int, time.Duration, error) {
	if !r.client.Enabled() {
		// Redis 비활성화 시 전부 허용
		return true, cfg.Limit, 0, nil
	}

	// member 는 요청마다 고유해야 같은 ms 에 들어온 요청이 합쳐지지 않음
	now := time.Now().UnixMilli()
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	res, err := slidingWindow.Run(ctx, r.client.Redis(), []string{r.key(cfg.Key)},
		now,
		cfg.Limit,
		cfg.Window.Milliseconds(),
		member,
	).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(res) != 3 {
		return false, 0, 0, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	return res[0] == 1, int(res[1]), time.Duration(res[2]) * time.Millisecond, nil
}

// Wait blocks until a request is allowed or context is cancelled
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, retryAfter, err := r.try(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(retryAfter)):
		}
	}
}

// Reset drops the window for key (e.g. after a provider changes its quota)
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	if !r.client.Enabled() {
		return nil
	}
	return r.client.Redis().Del(ctx, r.key(key)).Err()
}

func backoff(retryAfter time.Duration) time.Duration {
	switch {
	case retryAfter <= 0:
		return 10 * time.Millisecond
	case retryAfter > maxBackoff:
		return maxBackoff
	default:
		return retryAfter
	}
}

// FXProviderRateLimit: free tier 기준 분당 30회 (보수적)
var FXProviderRateLimit = RateLimitConfig{
	Key:    "fx_provider",
	Limit:  30,
	Window: time.Minute,
}
