package ratelimit

import (
	"net/http"
	"time"

	"github.com/jonathan/profile-sourcer/internal/config"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// FromSettings builds the limiter configuration from the ratelimit section.
func FromSettings(s config.RateLimitConfig) *Config {
	if !s.Enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    s.DefaultLimit,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		EndpointConfigs: SearchEndpointConfigs(s.SearchLimit, s.SearchWindow, s.SearchBurst),
	}
}

// SearchEndpointConfigs limits the endpoints that spend provider quota.
func SearchEndpointConfigs(limit int, window time.Duration, burst int) []EndpointConfig {
	return []EndpointConfig{
		{Path: "/api/search", Method: http.MethodPost, Limit: limit, Window: window, Burst: burst},
		{Path: "/api/search/stream", Method: http.MethodPost, Limit: limit, Window: window, Burst: burst},
	}
}
