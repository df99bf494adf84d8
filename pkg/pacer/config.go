package pacer

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the parameters of a single token bucket.
// It is validated once at construction and never mutated afterward.
type Config struct {
	// Capacity is the maximum number of tokens the bucket can hold (burst size).
	// Must be greater than zero.
	Capacity int64

	// RefillTokens is the number of tokens credited per refill period.
	// Zero disables refill, producing a static bucket that only Reset replenishes.
	RefillTokens int64

	// RefillPeriod is the interval after which RefillTokens are credited.
	// Zero disables refill, same as RefillTokens == 0.
	RefillPeriod time.Duration
}

// Validate checks if the bucket configuration is valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCapacity, c.Capacity)
	}
	if c.RefillTokens < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidRefillTokens, c.RefillTokens)
	}
	if c.RefillPeriod < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidRefillPeriod, c.RefillPeriod)
	}
	return nil
}

// refillDisabled reports whether this configuration never replenishes tokens.
func (c Config) refillDisabled() bool {
	return c.RefillTokens == 0 || c.RefillPeriod == 0
}

// LimiterConfig holds the configuration for a keyed rate limiter.
// It supports both global defaults and per-route policy overrides.
type LimiterConfig struct {
	// Defaults are applied to all routes unless overridden
	Defaults PolicyConfig `yaml:"defaults"`

	// Policies is a map of route paths to their specific rate limit policies
	// Example: "/api/login" -> strict policy, "/api/search" -> lenient policy
	Policies map[string]PolicyConfig `yaml:"policies,omitempty"`

	// KeyExtractor specifies how to identify clients
	// Examples: "ip", "header:X-API-Key", "bearer"
	KeyExtractor string `yaml:"key_extractor,omitempty"`

	// CleanupAge specifies how long idle buckets are kept before cleanup
	// Format: "1h", "30m", "0" to disable
	CleanupAge string `yaml:"cleanup_age,omitempty"`
}

// PolicyConfig defines rate limiting parameters for a route or default.
type PolicyConfig struct {
	// Capacity is the maximum number of tokens (burst size)
	Capacity int64 `yaml:"capacity"`

	// RefillTokens is the number of tokens added per refill period
	RefillTokens int64 `yaml:"refill_tokens"`

	// RefillPeriod is the refill interval as a duration string
	// Example: "1s", "100ms", "1m"
	RefillPeriod string `yaml:"refill_period"`

	// Enabled allows disabling rate limiting for specific routes
	Enabled bool `yaml:"enabled"`
}

// NewLimiterConfig creates a LimiterConfig with sensible defaults.
func NewLimiterConfig() *LimiterConfig {
	return &LimiterConfig{
		Defaults: PolicyConfig{
			Capacity:     100,
			RefillTokens: 10,
			RefillPeriod: "1s", // 10 tokens/sec = 600 req/min sustained
			Enabled:      true,
		},
		Policies:     make(map[string]PolicyConfig),
		KeyExtractor: "ip", // Default to IP-based rate limiting
		CleanupAge:   "1h", // Clean up buckets idle for > 1 hour
	}
}

// LoadLimiterConfig loads a limiter configuration from a YAML file.
func LoadLimiterConfig(path string) (*LimiterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrInvalidConfig, err)
	}

	var config LimiterConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalidConfig, err)
	}

	// Apply defaults if not set
	if config.KeyExtractor == "" {
		config.KeyExtractor = "ip"
	}
	if config.CleanupAge == "" {
		config.CleanupAge = "1h"
	}
	if config.Policies == nil {
		config.Policies = make(map[string]PolicyConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the limiter configuration is valid.
func (c *LimiterConfig) Validate() error {
	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("%w: invalid defaults: %v", ErrInvalidConfig, err)
	}

	for route, policy := range c.Policies {
		if err := policy.Validate(); err != nil {
			return fmt.Errorf("%w: invalid policy for route %s: %v", ErrInvalidConfig, route, err)
		}
	}

	if c.CleanupAge != "" && c.CleanupAge != "0" {
		if _, err := time.ParseDuration(c.CleanupAge); err != nil {
			return fmt.Errorf("%w: invalid cleanup_age %q: %v", ErrInvalidConfig, c.CleanupAge, err)
		}
	}

	return nil
}

// Validate checks if a PolicyConfig is valid.
func (p *PolicyConfig) Validate() error {
	cfg, err := p.ToBucketConfig()
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// ToBucketConfig converts a PolicyConfig to a bucket Config.
func (p *PolicyConfig) ToBucketConfig() (Config, error) {
	var period time.Duration
	if p.RefillPeriod != "" && p.RefillPeriod != "0" {
		parsed, err := time.ParseDuration(p.RefillPeriod)
		if err != nil {
			return Config{}, fmt.Errorf("%w: invalid refill_period %q: %v", ErrInvalidConfig, p.RefillPeriod, err)
		}
		period = parsed
	}

	return Config{
		Capacity:     p.Capacity,
		RefillTokens: p.RefillTokens,
		RefillPeriod: period,
	}, nil
}

// GetPolicy returns the rate limit policy for a given route.
// If no specific policy exists for the route, returns the default policy.
func (c *LimiterConfig) GetPolicy(route string) PolicyConfig {
	if policy, exists := c.Policies[route]; exists {
		return policy
	}
	return c.Defaults
}

// SetPolicy sets a rate limit policy for a specific route.
func (c *LimiterConfig) SetPolicy(route string, policy PolicyConfig) error {
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Policies == nil {
		c.Policies = make(map[string]PolicyConfig)
	}
	c.Policies[route] = policy
	return nil
}
