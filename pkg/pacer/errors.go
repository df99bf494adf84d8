package pacer

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidCapacity is returned when bucket capacity is zero or negative
	ErrInvalidCapacity = errors.New("bucket capacity must be positive")

	// ErrInvalidRefillTokens is returned when the refill token count is negative
	ErrInvalidRefillTokens = errors.New("refill tokens must be non-negative")

	// ErrInvalidRefillPeriod is returned when the refill period is negative
	ErrInvalidRefillPeriod = errors.New("refill period must be non-negative")

	// ErrInvalidTokenCount is returned when an acquisition requests zero or
	// negative tokens. This is an argument error, not a rate-limit rejection.
	ErrInvalidTokenCount = errors.New("requested tokens must be positive")

	// ErrInvalidKey is returned when the rate limit key is invalid or empty
	ErrInvalidKey = errors.New("rate limit key cannot be empty")

	// ErrStoreFailed is returned when store operations fail
	ErrStoreFailed = errors.New("store operation failed")

	// ErrKeyExtractionFailed is returned when key extraction from request fails
	ErrKeyExtractionFailed = errors.New("failed to extract key from request")
)
