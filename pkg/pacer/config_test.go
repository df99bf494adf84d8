package pacer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectedErr error
	}{
		{
			name:   "valid",
			config: Config{Capacity: 10, RefillTokens: 5, RefillPeriod: time.Second},
		},
		{
			name:   "static bucket is valid",
			config: Config{Capacity: 10},
		},
		{
			name:        "zero capacity",
			config:      Config{RefillTokens: 5, RefillPeriod: time.Second},
			expectedErr: ErrInvalidCapacity,
		},
		{
			name:        "negative refill tokens",
			config:      Config{Capacity: 10, RefillTokens: -5},
			expectedErr: ErrInvalidRefillTokens,
		},
		{
			name:        "negative refill period",
			config:      Config{Capacity: 10, RefillPeriod: -time.Second},
			expectedErr: ErrInvalidRefillPeriod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectedErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.expectedErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.expectedErr)
			}
		})
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadLimiterConfig(t *testing.T) {
	path := writeConfigFile(t, `
defaults:
  capacity: 50
  refill_tokens: 5
  refill_period: 500ms
  enabled: true

policies:
  "/api/login":
    capacity: 5
    refill_tokens: 5
    refill_period: 1m
    enabled: true

key_extractor: "header:X-API-Key"
cleanup_age: "30m"
`)

	config, err := LoadLimiterConfig(path)
	if err != nil {
		t.Fatalf("LoadLimiterConfig() failed: %v", err)
	}

	if config.Defaults.Capacity != 50 {
		t.Errorf("Defaults.Capacity = %d, want 50", config.Defaults.Capacity)
	}
	if config.KeyExtractor != "header:X-API-Key" {
		t.Errorf("KeyExtractor = %q, want header:X-API-Key", config.KeyExtractor)
	}
	if config.CleanupAge != "30m" {
		t.Errorf("CleanupAge = %q, want 30m", config.CleanupAge)
	}

	policy := config.GetPolicy("/api/login")
	if policy.Capacity != 5 {
		t.Errorf("login policy capacity = %d, want 5", policy.Capacity)
	}

	cfg, err := policy.ToBucketConfig()
	if err != nil {
		t.Fatalf("ToBucketConfig() failed: %v", err)
	}
	if cfg.RefillPeriod != time.Minute {
		t.Errorf("RefillPeriod = %v, want 1m", cfg.RefillPeriod)
	}

	// Unknown routes fall back to the defaults
	fallback := config.GetPolicy("/api/unknown")
	if fallback.Capacity != 50 {
		t.Errorf("fallback policy capacity = %d, want 50", fallback.Capacity)
	}
}

func TestLoadLimiterConfig_AppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
defaults:
  capacity: 10
  refill_tokens: 1
  refill_period: 1s
  enabled: true
`)

	config, err := LoadLimiterConfig(path)
	if err != nil {
		t.Fatalf("LoadLimiterConfig() failed: %v", err)
	}
	if config.KeyExtractor != "ip" {
		t.Errorf("KeyExtractor = %q, want default ip", config.KeyExtractor)
	}
	if config.CleanupAge != "1h" {
		t.Errorf("CleanupAge = %q, want default 1h", config.CleanupAge)
	}
	if config.Policies == nil {
		t.Error("Policies map should be initialized")
	}
}

func TestLoadLimiterConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "invalid YAML",
			content: "defaults: [not a map",
		},
		{
			name: "invalid capacity",
			content: `
defaults:
  capacity: 0
  refill_tokens: 1
  refill_period: 1s
  enabled: true
`,
		},
		{
			name: "invalid refill period",
			content: `
defaults:
  capacity: 10
  refill_tokens: 1
  refill_period: later
  enabled: true
`,
		},
		{
			name: "invalid cleanup age",
			content: `
defaults:
  capacity: 10
  refill_tokens: 1
  refill_period: 1s
  enabled: true
cleanup_age: "sometime"
`,
		},
		{
			name: "invalid route policy",
			content: `
defaults:
  capacity: 10
  refill_tokens: 1
  refill_period: 1s
  enabled: true
policies:
  "/bad":
    capacity: -1
    refill_tokens: 1
    refill_period: 1s
    enabled: true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := LoadLimiterConfig(path)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("LoadLimiterConfig() error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadLimiterConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("LoadLimiterConfig() error = %v, want ErrInvalidConfig", err)
		}
	})
}

func TestLimiterConfig_SetPolicy(t *testing.T) {
	config := NewLimiterConfig()

	err := config.SetPolicy("/api/otp", PolicyConfig{
		Capacity:     3,
		RefillTokens: 3,
		RefillPeriod: "1h",
		Enabled:      true,
	})
	if err != nil {
		t.Fatalf("SetPolicy() failed: %v", err)
	}
	if got := config.GetPolicy("/api/otp").Capacity; got != 3 {
		t.Errorf("policy capacity = %d, want 3", got)
	}

	err = config.SetPolicy("/api/bad", PolicyConfig{Capacity: -1})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("SetPolicy() error = %v, want ErrInvalidConfig", err)
	}
}

func TestPolicyConfig_ToBucketConfig_StaticPolicy(t *testing.T) {
	policy := PolicyConfig{Capacity: 10, Enabled: true}

	cfg, err := policy.ToBucketConfig()
	if err != nil {
		t.Fatalf("ToBucketConfig() failed: %v", err)
	}
	if !cfg.refillDisabled() {
		t.Error("policy without refill settings should produce a static bucket")
	}
}
