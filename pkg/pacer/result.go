package pacer

import (
	"fmt"
	"math"
	"time"
)

// RetryUnbounded is the retry estimate reported for a rejection when refill
// is disabled: no amount of waiting will free up tokens, only Reset will.
const RetryUnbounded = time.Duration(math.MaxInt64)

// Result describes a single acquisition attempt in detail.
// Use it for debugging, logging, or returning retry information to clients.
type Result struct {
	// Allowed indicates whether the tokens were acquired
	Allowed bool

	// Requested is the number of tokens that were asked for
	Requested int64

	// Available is the token count at decision time: the tokens remaining
	// after the deduction on success, or the insufficient balance on rejection
	Available int64

	// RetryAfter is the estimated wait until the request could succeed.
	// Zero on success, RetryUnbounded when the bucket never refills.
	RetryAfter time.Duration

	// Reason is a human-readable rejection explanation, empty on success
	Reason string
}

// allowed builds the result for a successful acquisition.
func allowed(consumed, remaining int64) *Result {
	return &Result{
		Allowed:   true,
		Requested: consumed,
		Available: remaining,
	}
}

// rejected builds the result for an insufficient-tokens rejection.
func rejected(requested, available int64, retryAfter time.Duration) *Result {
	return &Result{
		Allowed:    false,
		Requested:  requested,
		Available:  available,
		RetryAfter: retryAfter,
		Reason:     fmt.Sprintf("insufficient tokens: requested %d, available %d", requested, available),
	}
}

// String renders the result for logs.
func (r *Result) String() string {
	if r.Allowed {
		return fmt.Sprintf("Result{ALLOWED, consumed=%d, remaining=%d}", r.Requested, r.Available)
	}
	return fmt.Sprintf("Result{REJECTED, %s, retryAfter=%v}", r.Reason, r.RetryAfter)
}
