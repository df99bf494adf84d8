package pacer

import "time"

// Preset constructors for common endpoint protection profiles. Each returns
// an independent bucket; share one instance across the callers that should
// share the budget.

// ForLogin returns a bucket tuned for login endpoints: 5 attempts per minute.
func ForLogin() *TokenBucket {
	return mustBucket(Config{Capacity: 5, RefillTokens: 5, RefillPeriod: time.Minute})
}

// ForOTP returns a bucket tuned for OTP/SMS verification: 3 requests per hour.
func ForOTP() *TokenBucket {
	return mustBucket(Config{Capacity: 3, RefillTokens: 3, RefillPeriod: time.Hour})
}

// ForAPI returns a bucket tuned for standard API endpoints: 100 requests per second.
func ForAPI() *TokenBucket {
	return mustBucket(Config{Capacity: 100, RefillTokens: 100, RefillPeriod: time.Second})
}

// ForDownload returns a bucket tuned for file downloads: 10 per hour.
func ForDownload() *TokenBucket {
	return mustBucket(Config{Capacity: 10, RefillTokens: 10, RefillPeriod: time.Hour})
}

// ForSearch returns a bucket tuned for search and heavy queries: 30 per minute.
func ForSearch() *TokenBucket {
	return mustBucket(Config{Capacity: 30, RefillTokens: 30, RefillPeriod: time.Minute})
}

// mustBucket builds a bucket from a preset config known to be valid.
func mustBucket(cfg Config) *TokenBucket {
	b, err := NewTokenBucket(cfg)
	if err != nil {
		panic(err)
	}
	return b
}
