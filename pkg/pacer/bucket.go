package pacer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// minPollInterval is the floor for the timed-wait polling interval.
const minPollInterval = time.Millisecond

// pollDivisor splits a timed-wait timeout into polling slices.
const pollDivisor = 20

// TokenBucket is a lock-free token bucket. A bucket starts full, each
// acquisition consumes one or more tokens, and tokens are credited back
// lazily based on elapsed time and the configured refill rate.
//
// All state lives in two atomic registers (the token count and the
// last-refill timestamp), so every operation except the timed wait is
// non-blocking. There is no fairness guarantee among concurrent callers:
// acquisitions are served in whatever order the CAS races resolve, which
// favors throughput over FIFO ordering.
type TokenBucket struct {
	capacity     int64
	refillTokens int64
	refillPeriod int64 // nanoseconds; 0 disables refill

	// epoch anchors the refill clock to Go's monotonic reading so that
	// wall-clock adjustments cannot skew elapsed-time arithmetic.
	epoch time.Time

	tokens     atomic.Int64 // always in [0, capacity]
	lastRefill atomic.Int64 // nanoseconds since epoch, advanced only by refill winners

	listener Listener
}

// BucketOption configures a TokenBucket at construction.
type BucketOption func(*TokenBucket)

// WithBucketListener attaches a listener for bucket events.
// The listener is invoked synchronously on the calling goroutine, so a slow
// listener adds latency to every acquisition it observes.
func WithBucketListener(l Listener) BucketOption {
	return func(b *TokenBucket) {
		b.listener = l
	}
}

// NewTokenBucket creates a full bucket from the given configuration.
//
// Example: NewTokenBucket(Config{Capacity: 100, RefillTokens: 10, RefillPeriod: time.Second})
// creates a bucket that allows bursts up to 100 tokens and sustains
// 10 tokens/second. A zero RefillTokens or RefillPeriod yields a static
// bucket that never replenishes on its own.
func NewTokenBucket(cfg Config, opts ...BucketOption) (*TokenBucket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &TokenBucket{
		capacity:     cfg.Capacity,
		refillTokens: cfg.RefillTokens,
		refillPeriod: int64(cfg.RefillPeriod),
		epoch:        time.Now(),
	}
	b.tokens.Store(cfg.Capacity) // Start with full bucket

	for _, opt := range opts {
		opt(b)
	}

	return b, nil
}

// now returns the bucket-relative monotonic clock reading in nanoseconds.
func (b *TokenBucket) now() int64 {
	return int64(time.Since(b.epoch))
}

// Allow attempts to consume one token from the bucket.
// Returns true if a token was available, false otherwise. It never blocks.
func (b *TokenBucket) Allow() bool {
	return b.acquire(1)
}

// AllowN attempts to consume n tokens from the bucket at once (a weighted
// acquisition). Returns true if all n tokens were available and consumed.
// A non-positive n is an argument error, not a rejection.
func (b *TokenBucket) AllowN(n int64) (bool, error) {
	if n <= 0 {
		return false, fmt.Errorf("%w: got %d", ErrInvalidTokenCount, n)
	}
	return b.acquire(n), nil
}

// AllowNWithin attempts to consume n tokens, polling until the acquisition
// succeeds or timeout elapses. The wait is cooperative: the goroutine sleeps
// in slices of roughly timeout/20 (floored at 1ms) between attempts, and one
// final attempt is made after the deadline so a token that became available
// exactly at the deadline is not missed.
//
// Cancelling ctx aborts the wait and returns ctx.Err() without consuming
// any tokens.
func (b *TokenBucket) AllowNWithin(ctx context.Context, n int64, timeout time.Duration) (bool, error) {
	if n <= 0 {
		return false, fmt.Errorf("%w: got %d", ErrInvalidTokenCount, n)
	}

	deadline := time.Now().Add(timeout)
	poll := timeout / pollDivisor
	if poll < minPollInterval {
		poll = minPollInterval
	}

	for {
		if b.acquire(n) {
			return true, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		if remaining < poll {
			poll = remaining
		}

		timer := time.NewTimer(poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	// Deadline reached: one last non-blocking attempt.
	return b.acquire(n), nil
}

// AllowNInfo attempts a weighted acquisition and returns a full Result on
// both paths instead of a boolean. On rejection the result carries the
// shortfall reason and an estimated retry delay.
func (b *TokenBucket) AllowNInfo(n int64) (*Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTokenCount, n)
	}

	b.refill()

	for {
		current := b.tokens.Load()

		if current < n {
			if b.listener != nil {
				b.listener.OnReject(n, current)
			}
			return rejected(n, current, b.retryAfter(n-current)), nil
		}

		if b.tokens.CompareAndSwap(current, current-n) {
			if b.listener != nil {
				b.listener.OnAcquire(n)
			}
			return allowed(n, current-n), nil
		}
	}
}

// Remaining returns the number of tokens currently available, after bringing
// the bucket up to date with elapsed time. The value is a snapshot and may
// change immediately under concurrent access.
func (b *TokenBucket) Remaining() int64 {
	b.refill()
	return b.tokens.Load()
}

// Capacity returns the maximum capacity of the bucket.
func (b *TokenBucket) Capacity() int64 {
	return b.capacity
}

// RetryAfter estimates how long a caller requesting n tokens would have to
// wait before the request could succeed. Returns 0 if it would succeed now,
// and RetryUnbounded if refill is disabled.
func (b *TokenBucket) RetryAfter(n int64) time.Duration {
	b.refill()

	current := b.tokens.Load()
	if current >= n {
		return 0
	}
	return b.retryAfter(n - current)
}

// Reset unconditionally returns the bucket to full capacity and restarts the
// refill clock. Reset is not ordered with respect to in-flight acquisitions
// beyond the atomicity of each register write: a reset racing an acquire may
// land before or after it, and either outcome is valid.
func (b *TokenBucket) Reset() {
	b.tokens.Store(b.capacity)
	b.lastRefill.Store(b.now())
	if b.listener != nil {
		b.listener.OnReset()
	}
}

// acquire runs the refill pass and then the compare-and-swap loop that
// atomically deducts n tokens. The loop has no retry bound: a failed CAS
// means another goroutine made progress, so contention resolves eventually.
func (b *TokenBucket) acquire(n int64) bool {
	b.refill()

	for {
		current := b.tokens.Load()

		if current < n {
			if b.listener != nil {
				b.listener.OnReject(n, current)
			}
			return false
		}

		if b.tokens.CompareAndSwap(current, current-n) {
			if b.listener != nil {
				b.listener.OnAcquire(n)
			}
			return true
		}
	}
}

// refill credits tokens for the whole periods elapsed since the last refill.
// Concurrent callers race on the timestamp CAS; exactly one wins and commits
// the credit, losers observe the winner's update and move on.
func (b *TokenBucket) refill() {
	if b.refillPeriod == 0 || b.refillTokens == 0 {
		return
	}

	now := b.now()
	last := b.lastRefill.Load()
	elapsed := now - last

	if elapsed < b.refillPeriod {
		return
	}

	periods := elapsed / b.refillPeriod

	// Guard the multiplication with a division check. For large elapsed
	// times periods*refillTokens can wrap past the int64 range and come out
	// small or negative, silently starving the refill, so the product must
	// never be formed once it is known to exceed capacity.
	var tokensToAdd int64
	if periods > b.capacity/b.refillTokens {
		tokensToAdd = b.capacity
	} else {
		tokensToAdd = periods * b.refillTokens
		if tokensToAdd > b.capacity {
			tokensToAdd = b.capacity
		}
	}

	if tokensToAdd <= 0 {
		return
	}

	// Advance the timestamp by an exact multiple of the period rather than
	// to now, so leftover fractional time keeps accruing toward the next
	// refill. periods*refillPeriod <= elapsed, so this cannot overflow.
	newRefillTime := last + periods*b.refillPeriod

	if !b.lastRefill.CompareAndSwap(last, newRefillTime) {
		// Another goroutine already performed this refill.
		return
	}

	var newTotal int64
	for {
		current := b.tokens.Load()
		// tokensToAdd is bounded by capacity, so current+tokensToAdd is at
		// most 2*capacity and cannot wrap before the clamp.
		newTotal = current + tokensToAdd
		if newTotal > b.capacity {
			newTotal = b.capacity
		}
		if b.tokens.CompareAndSwap(current, newTotal) {
			break
		}
	}

	if b.listener != nil {
		b.listener.OnRefill(tokensToAdd, newTotal)
	}
}

// retryAfter estimates the wait for a given token shortfall.
func (b *TokenBucket) retryAfter(shortfall int64) time.Duration {
	if b.refillPeriod == 0 || b.refillTokens == 0 {
		return RetryUnbounded
	}
	periodsNeeded := (shortfall + b.refillTokens - 1) / b.refillTokens
	return time.Duration(periodsNeeded * b.refillPeriod)
}
