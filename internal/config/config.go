// Package config loads service configuration from an optional YAML file and
// SOURCER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonathan/profile-sourcer/internal/sources"
)

// EnvPrefix is prepended to every environment override, e.g. SOURCER_SERVER_PORT.
const EnvPrefix = "SOURCER"

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Search    SearchConfig    `mapstructure:"search"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds the Postgres connection string.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig configures the provider page cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// EngineConfig maps destinations to Programmable Search Engine IDs.
type EngineConfig struct {
	ProfessionalNetwork  string `mapstructure:"professional_network"`
	FreelanceMarketplace string `mapstructure:"freelance_marketplace"`
	CodeHosting          string `mapstructure:"code_hosting"`
}

// SearchConfig holds search provider settings.
type SearchConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Engines     EngineConfig  `mapstructure:"engines"`
	PageTimeout time.Duration `mapstructure:"page_timeout"`
	QPS         float64       `mapstructure:"qps"`
	Burst       int           `mapstructure:"burst"`
	MaxPages    int           `mapstructure:"max_pages"`
}

// EngineID returns the engine configured for d, or "".
func (s SearchConfig) EngineID(d sources.Destination) string {
	switch d {
	case sources.ProfessionalNetwork:
		return s.Engines.ProfessionalNetwork
	case sources.FreelanceMarketplace:
		return s.Engines.FreelanceMarketplace
	case sources.CodeHosting:
		return s.Engines.CodeHosting
	}
	return ""
}

// OracleConfig configures the generative query oracle.
type OracleConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
	CacheSize int           `mapstructure:"cache_size"`
}

// AuthConfig holds JWT settings.
type AuthConfig struct {
	JWTSecret       string `mapstructure:"jwt_secret"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
}

// RateLimitConfig configures per-account API limits.
type RateLimitConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	SearchLimit  int           `mapstructure:"search_limit"`
	SearchWindow time.Duration `mapstructure:"search_window"`
	SearchBurst  int           `mapstructure:"search_burst"`
	DefaultLimit int           `mapstructure:"default_limit"`
}

// LogConfig selects the logger encoding and level.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// Load reads configuration from path (optional) and the environment.
// Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers every key so environment overrides are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 20*time.Second)

	v.SetDefault("database.url", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", 6*time.Hour)

	v.SetDefault("search.api_key", "")
	v.SetDefault("search.engines.professional_network", "")
	v.SetDefault("search.engines.freelance_marketplace", "")
	v.SetDefault("search.engines.code_hosting", "")
	v.SetDefault("search.page_timeout", 8*time.Second)
	v.SetDefault("search.qps", 5.0)
	v.SetDefault("search.burst", 1)
	v.SetDefault("search.max_pages", 10)

	v.SetDefault("oracle.enabled", false)
	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.model", "")
	v.SetDefault("oracle.timeout", 6*time.Second)
	v.SetDefault("oracle.cache_size", 512)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.expiration_hours", 24)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.search_limit", 30)
	v.SetDefault("ratelimit.search_window", time.Hour)
	v.SetDefault("ratelimit.search_burst", 5)
	v.SetDefault("ratelimit.default_limit", 600)

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// Validate checks ranges. It does not require secrets, so offline commands
// can load a partial configuration; see ValidateServe.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Search.MaxPages < 1 || c.Search.MaxPages > 10 {
		errs = append(errs, fmt.Errorf("search.max_pages must be between 1 and 10, got %d", c.Search.MaxPages))
	}
	if c.Search.QPS < 0 {
		errs = append(errs, fmt.Errorf("search.qps cannot be negative"))
	}
	if c.Search.PageTimeout <= 0 {
		errs = append(errs, fmt.Errorf("search.page_timeout must be positive"))
	}
	if c.Oracle.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("oracle.timeout must be positive"))
	}
	if c.Oracle.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("oracle.cache_size cannot be negative"))
	}
	if c.Auth.ExpirationHours < 1 {
		errs = append(errs, fmt.Errorf("auth.expiration_hours must be at least 1, got %d", c.Auth.ExpirationHours))
	}
	if c.RateLimit.Enabled && (c.RateLimit.SearchLimit < 1 || c.RateLimit.SearchWindow <= 0) {
		errs = append(errs, fmt.Errorf("ratelimit.search_limit and ratelimit.search_window must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ValidateServe checks the settings the HTTP service cannot start without.
func (c *Config) ValidateServe() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, fmt.Errorf("database.url is required"))
	}
	if c.Search.APIKey == "" {
		errs = append(errs, fmt.Errorf("search.api_key is required"))
	}
	if c.Search.EngineID(sources.ProfessionalNetwork) == "" &&
		c.Search.EngineID(sources.FreelanceMarketplace) == "" &&
		c.Search.EngineID(sources.CodeHosting) == "" {
		errs = append(errs, fmt.Errorf("at least one search engine ID is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("auth.jwt_secret is required"))
	}
	if c.Oracle.Enabled && c.Oracle.APIKey == "" {
		errs = append(errs, fmt.Errorf("oracle.api_key is required when the oracle is enabled"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
