// Package config provides centralized configuration management for the
// application. It loads configuration from environment variables with sensible
// defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Shopify  ShopifyConfig
	Sync     SyncConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 5m,
	// sync runs of large CSV files can be slow against the remote API)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"5m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`
}

// ShopifyConfig holds credentials for the Shopify Admin GraphQL API.
type ShopifyConfig struct {
	// ShopDomain is the myshopify domain, e.g. "acme.myshopify.com" (required)
	// Supports both SHOPIFY_SHOP_DOMAIN and SHOPIFY_SHOP for compatibility
	ShopDomain string `env:"SHOPIFY_SHOP_DOMAIN" envAlt:"SHOPIFY_SHOP" required:"true"`

	// AccessToken is the Admin API access token (required)
	AccessToken string `env:"SHOPIFY_ACCESS_TOKEN" required:"true"`

	// APIVersion selects the Admin API version (default: 2024-07)
	APIVersion string `env:"SHOPIFY_API_VERSION" default:"2024-07"`

	// Timeout is the per-call HTTP timeout against the Admin API (default: 30s)
	Timeout time.Duration `env:"SHOPIFY_TIMEOUT" default:"30s"`
}

// SyncConfig holds CSV bulk-sync settings.
type SyncConfig struct {
	// MaxFileSize is the maximum allowed upload size in bytes (default: 10MB)
	MaxFileSize int64 `env:"SYNC_MAX_FILE_SIZE" default:"10485760"`

	// OrderSearchLimit is how many order matches to request per lookup (default: 5)
	OrderSearchLimit int `env:"SYNC_ORDER_SEARCH_LIMIT" default:"5"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + strconv.Itoa(c.Port)
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Validate checks configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Shopify.ShopDomain == "" {
		return fmt.Errorf("shopify shop domain is required")
	}
	if strings.Contains(c.Shopify.ShopDomain, "/") {
		return fmt.Errorf("shopify shop domain must be a bare host, got %q", c.Shopify.ShopDomain)
	}
	if c.Shopify.AccessToken == "" {
		return fmt.Errorf("shopify access token is required")
	}
	if c.Shopify.APIVersion == "" {
		return fmt.Errorf("shopify API version is required")
	}
	if c.Sync.MaxFileSize <= 0 {
		return fmt.Errorf("sync max file size must be positive, got %d", c.Sync.MaxFileSize)
	}
	if c.Sync.OrderSearchLimit < 1 {
		return fmt.Errorf("order search limit must be at least 1, got %d", c.Sync.OrderSearchLimit)
	}
	if c.Rate.Enabled && c.Rate.RequestsPerMinute < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per minute, got %d", c.Rate.RequestsPerMinute)
	}
	return nil
}
