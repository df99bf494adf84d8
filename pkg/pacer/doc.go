// Package pacer provides lock-free token bucket rate limiting for Go applications.
//
// Pacer implements the token bucket algorithm on two atomic registers (the
// token count and the last-refill timestamp), so every check is a handful of
// atomic operations with no mutex, no allocation, and no blocking. It works
// both as a single shared bucket and as a keyed limiter with per-client
// buckets and HTTP middleware.
//
// # Quick Start
//
// A single bucket shared by all callers:
//
//	bucket, err := pacer.NewTokenBucket(pacer.Config{
//	    Capacity:     100,           // burst size
//	    RefillTokens: 10,            // tokens credited per period
//	    RefillPeriod: time.Second,   // sustained rate: 10/sec
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if bucket.Allow() {
//	    // proceed
//	} else {
//	    // rejected, fail fast
//	}
//
// Weighted acquisitions consume several tokens at once:
//
//	ok, err := bucket.AllowN(5)
//
// # Waiting for tokens
//
// AllowNWithin polls cooperatively until tokens free up or the timeout
// elapses, honoring context cancellation:
//
//	ok, err := bucket.AllowNWithin(ctx, 1, 500*time.Millisecond)
//	if errors.Is(err, context.Canceled) {
//	    // caller gave up, no tokens were consumed
//	}
//
// # Diagnostics
//
// AllowNInfo returns a full result instead of a boolean:
//
//	res, _ := bucket.AllowNInfo(3)
//	if !res.Allowed {
//	    fmt.Printf("rejected: %s, retry in %v\n", res.Reason, res.RetryAfter)
//	}
//
// # Presets
//
// Common endpoint profiles ship as constructors:
//
//	login := pacer.ForLogin()     // 5 attempts/minute
//	otp := pacer.ForOTP()         // 3 requests/hour
//	api := pacer.ForAPI()         // 100 requests/second
//
// # Keyed limiting and HTTP middleware
//
// The RateLimiter keeps one bucket per client key and plugs into net/http:
//
//	limiter, _ := pacer.NewRateLimiter(
//	    pacer.WithDefaults(100, 10, time.Second),
//	    pacer.WithKeyExtractor(pacer.ExtractIPWithProxy()),
//	)
//
//	http.Handle("/api/", limiter.Middleware(yourHandler))
//
// The middleware sets the standard rate limit headers:
//   - X-RateLimit-Limit: Maximum requests allowed
//   - X-RateLimit-Remaining: Remaining requests in current window
//   - X-RateLimit-Reset: Unix timestamp when limit resets
//   - Retry-After: Seconds to wait before retrying (when rate limited)
//
// # Configuration
//
// The keyed limiter loads YAML configuration:
//
//	limiter, err := pacer.NewRateLimiter(
//	    pacer.WithConfigFile("config.yaml"),
//	)
//
// Example YAML configuration:
//
//	defaults:
//	  capacity: 100
//	  refill_tokens: 10
//	  refill_period: 1s
//	  enabled: true
//
//	policies:
//	  "/api/login":
//	    capacity: 5
//	    refill_tokens: 5
//	    refill_period: 1m
//	    enabled: true
//
//	key_extractor: "ip"
//	cleanup_age: "1h"
//
// # Observability
//
// Buckets accept a Listener whose hooks fire synchronously on acquire,
// reject, refill, and reset. The metrics package implements the Listener
// interface on top of Prometheus counters; ListenerFuncs adapts ad-hoc
// functions.
//
// # Concurrency model
//
// All bucket operations except AllowNWithin are non-blocking and lock-free:
// both shared registers are mutated only through atomic compare-and-swap, so
// no deadlock is possible and a stalled goroutine can never wedge the bucket.
// There is deliberately no fairness guarantee: concurrent acquirers are
// served in whatever order their CAS attempts land, which favors throughput
// over FIFO ordering. Callers that need ordering should serialize above the
// bucket.
package pacer
