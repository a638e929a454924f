package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/profile-sourcer/internal/config"
)

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("acct-1", "/api/history", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("acct-1", "/api/history", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
	assert.True(t, info.ResetTime.After(time.Now()))

	other, _ := limiter.Allow("acct-2", "/api/history", "GET")
	assert.True(t, other, "buckets are per client")
}

func TestLimiter_Lists(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"trusted": true},
		Blacklist:     map[string]bool{"banned": true},
	})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		allowed, info := limiter.Allow("trusted", "/api/history", "GET")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}

	allowed, _ := limiter.Allow("banned", "/api/history", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(FromSettings(config.RateLimitConfig{Enabled: false}))
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("acct", "/api/search", "POST")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}
}

func TestLimiter_SearchEndpoints(t *testing.T) {
	limiter := NewLimiter(FromSettings(config.RateLimitConfig{
		Enabled:      true,
		SearchLimit:  5,
		SearchWindow: time.Hour,
		SearchBurst:  2,
		DefaultLimit: 1000,
	}))
	defer limiter.Stop()

	for i := 0; i < 2; i++ {
		allowed, info := limiter.Allow("acct", "/api/search", "POST")
		require.True(t, allowed, "burst request %d", i+1)
		assert.Equal(t, 5, info.Limit)
	}
	allowed, info := limiter.Allow("acct", "/api/search", "POST")
	assert.False(t, allowed, "burst exhausted")
	assert.Greater(t, info.RetryAfter, time.Minute)

	allowed, _ = limiter.Allow("acct", "/api/search/stream", "POST")
	assert.True(t, allowed, "stream endpoint has its own bucket")

	allowed, info = limiter.Allow("acct", "/api/compile", "POST")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 20; i++ {
		ok1, _ := limiter.Allow("ip", "/health", "GET")
		ok2, _ := limiter.Allow("ip", "/metrics", "GET")
		require.True(t, ok1 && ok2)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Hour,
	})
	defer limiter.Stop()

	var wg sync.WaitGroup
	var allowedCount atomic.Int32
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("acct", "/api/history", "GET"); allowed {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(100), allowedCount.Load())
}

func TestLimiter_CleanupBuckets(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("acct-%d", i), "/api/history", "GET")
	}
	require.Len(t, limiter.buckets, 10)

	limiter.cleanupBuckets(time.Now().Add(-time.Hour))
	assert.Len(t, limiter.buckets, 10, "recent buckets survive")

	limiter.cleanupBuckets(time.Now().Add(time.Second))
	assert.Empty(t, limiter.buckets)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()
	limiter.Stop()

	allowed, info := limiter.Allow("acct", "/api/history", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/api/search", Method: "POST", Limit: 5},
		{Path: "/api/history/", Method: "GET", Limit: 7},
		{Path: "/api/history/export/", Method: "GET", Limit: 2},
		{Path: "/api/history/pinned", Method: "GET", Limit: 9},
	}

	tests := []struct {
		name, path, method string
		want               int
		wantNil            bool
	}{
		{name: "exact", path: "/api/search", method: "POST", want: 5},
		{name: "method is case-insensitive", path: "/api/search", method: "post", want: 5},
		{name: "wrong method", path: "/api/search", method: "GET", wantNil: true},
		{name: "prefix", path: "/api/history/abc", method: "GET", want: 7},
		{name: "longest prefix wins", path: "/api/history/export/csv", method: "GET", want: 2},
		{name: "exact beats prefix", path: "/api/history/pinned", method: "GET", want: 9},
		{name: "prefix needs its method", path: "/api/history/abc", method: "DELETE", wantNil: true},
		{name: "unconfigured", path: "/api/compile", method: "POST", wantNil: true},
		{name: "health exempt", path: "/health", method: "GET", want: 0},
		{name: "metrics exempt", path: "/metrics", method: "GET", want: 0},
		{name: "exemption is GET only", path: "/health", method: "POST", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Limit)
		})
	}
}

func TestLimiter_LongestPrefixGetsItsOwnBucket(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/api/history/", Method: "GET", Limit: 5, Window: time.Minute},
			{Path: "/api/history/export/", Method: "GET", Limit: 1, Window: time.Minute},
		},
	})
	defer limiter.Stop()

	allowed, info := limiter.Allow("acct", "/api/history/export/csv", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1, info.Limit)
	allowed, _ = limiter.Allow("acct", "/api/history/export/csv", "GET")
	assert.False(t, allowed)

	allowed, info = limiter.Allow("acct", "/api/history/abc", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 5, info.Limit)
}
