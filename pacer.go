package pacer

import (
	"github.com/yourusername/pacer/pkg/pacer"
)

// Re-export main types for convenience
type (
	Config      = pacer.Config
	TokenBucket = pacer.TokenBucket
	Result      = pacer.Result
	Listener    = pacer.Listener
	RateLimiter = pacer.RateLimiter
	Decision    = pacer.Decision
)

// NewTokenBucket creates a single token bucket
var NewTokenBucket = pacer.NewTokenBucket

// NewRateLimiter creates a keyed rate limiter
var NewRateLimiter = pacer.NewRateLimiter
