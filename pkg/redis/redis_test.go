package redis

import (
	"context"
	"testing"
	"time"

	"github.com/wonny/fundtrace/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	limiter := NewRateLimiter(client, "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), FXProviderRateLimit)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != FXProviderRateLimit.Limit {
		t.Errorf("Expected remaining = %d, got %d", FXProviderRateLimit.Limit, remaining)
	}
}

func TestRateLimiter_DisabledWaitAndReset(t *testing.T) {
	client, _ := New(&config.Config{})
	limiter := NewRateLimiter(client, "test")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < FXProviderRateLimit.Limit+5; i++ {
		if err := limiter.Wait(ctx, FXProviderRateLimit); err != nil {
			t.Fatalf("Wait() #%d error = %v", i, err)
		}
	}
	if err := limiter.Reset(ctx, FXProviderRateLimit.Key); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if err := client.Ping(ctx); err != nil {
		t.Fatalf("Ping() on disabled client error = %v", err)
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, 10 * time.Millisecond},
		{-time.Second, 10 * time.Millisecond},
		{250 * time.Millisecond, 250 * time.Millisecond},
		{time.Minute, maxBackoff},
	}

	for _, tt := range tests {
		if got := backoff(tt.in); got != tt.want {
			t.Errorf("backoff(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRateLimiterKey(t *testing.T) {
	limiter := NewRateLimiter(&Client{}, "fundtrace")
	if got := limiter.key("fx_provider"); got != "fundtrace:ratelimit:fx_provider" {
		t.Errorf("key() = %q", got)
	}
}

func TestCache_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	cache := NewCache(client, "test")

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(context.Background(), "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
}

func TestCache_DisabledWritesAreNoops(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	cache := NewCache(client, "test")
	ctx := context.Background()

	if err := cache.Set(ctx, DashboardKey(), map[string]int{"a": 1}, TTLLong); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cache.Delete(ctx, DashboardKey()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	n, err := cache.DeletePrefix(ctx, MartPrefix)
	if err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 deleted keys, got %d", n)
	}
}

func TestCache_GetOrSetDisabledCallsLoader(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, _ := New(cfg)
	cache := NewCache(client, "test")

	calls := 0
	var got []string
	err := cache.GetOrSet(context.Background(), AllocationKey("sector", 10), &got, TTLLong, func() (interface{}, error) {
		calls++
		return []string{"Technology", "Financials"}, nil
	})
	if err != nil {
		t.Fatalf("GetOrSet() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected loader to be called once, got %d", calls)
	}
	if len(got) != 2 || got[0] != "Technology" {
		t.Errorf("Unexpected value %v", got)
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "DashboardKey",
			fn:       DashboardKey,
			expected: "mart:dashboard",
		},
		{
			name:     "AllocationKey",
			fn:       func() string { return AllocationKey("country", 10) },
			expected: "mart:alloc:country:10",
		},
		{
			name:     "FundExposureKey",
			fn:       func() string { return FundExposureKey("K-GLOBAL") },
			expected: "mart:fund:K-GLOBAL",
		},
		{
			name:     "AssetExposureKey",
			fn:       func() string { return AssetExposureKey("AAPL") },
			expected: "mart:asset:AAPL",
		},
		{
			name:     "LatestRunKey",
			fn:       LatestRunKey,
			expected: "mart:run:latest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}
