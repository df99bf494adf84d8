package pacer

// Listener receives bucket events. Implement it to add monitoring, metrics,
// or logging; the metrics package ships a Prometheus-backed implementation.
//
// All callbacks run synchronously on the goroutine performing the operation,
// so a blocking listener blocks the caller.
type Listener interface {
	// OnAcquire is called when tokens are successfully acquired.
	OnAcquire(tokensConsumed int64)

	// OnReject is called when a request is rejected due to insufficient tokens.
	OnReject(tokensRequested, tokensAvailable int64)

	// OnReset is called when the bucket is reset to full capacity.
	OnReset()

	// OnRefill is called by the goroutine that wins a refill, with the
	// number of tokens credited and the resulting total.
	OnRefill(tokensAdded, newTotal int64)
}

// ListenerFuncs adapts plain functions to the Listener interface.
// Nil fields are no-ops, so partial listeners only implement the events
// they care about:
//
//	bucket, _ := pacer.NewTokenBucket(cfg, pacer.WithBucketListener(pacer.ListenerFuncs{
//	    Reject: func(requested, available int64) {
//	        log.Printf("rate limited: wanted %d, had %d", requested, available)
//	    },
//	}))
type ListenerFuncs struct {
	Acquire func(tokensConsumed int64)
	Reject  func(tokensRequested, tokensAvailable int64)
	Reset   func()
	Refill  func(tokensAdded, newTotal int64)
}

// OnAcquire implements Listener.
func (l ListenerFuncs) OnAcquire(tokensConsumed int64) {
	if l.Acquire != nil {
		l.Acquire(tokensConsumed)
	}
}

// OnReject implements Listener.
func (l ListenerFuncs) OnReject(tokensRequested, tokensAvailable int64) {
	if l.Reject != nil {
		l.Reject(tokensRequested, tokensAvailable)
	}
}

// OnReset implements Listener.
func (l ListenerFuncs) OnReset() {
	if l.Reset != nil {
		l.Reset()
	}
}

// OnRefill implements Listener.
func (l ListenerFuncs) OnRefill(tokensAdded, newTotal int64) {
	if l.Refill != nil {
		l.Refill(tokensAdded, newTotal)
	}
}
