package pacer

import (
	"fmt"
	"sync"
	"time"
)

// Store defines the interface for bucket storage implementations.
// A store owns one bucket per client key and creates missing buckets on
// demand from its default configuration.
type Store interface {
	// GetBucket retrieves the bucket for the given key, creating it with the
	// store's default config if it doesn't exist yet.
	GetBucket(key string) (*TokenBucket, error)

	// Cleanup removes idle buckets to prevent memory leaks.
	// Returns the number of buckets removed.
	Cleanup() (int, error)

	// Count returns the total number of buckets in the store.
	Count() int
}

// InMemoryStore implements Store using an in-memory map.
// It's thread-safe and suitable for single-instance deployments.
type InMemoryStore struct {
	buckets     map[string]*bucketEntry
	config      Config
	listener    Listener // attached to every bucket the store creates
	mu          sync.RWMutex
	cleanupAge  time.Duration // Buckets idle longer than this are cleaned up
	lastCleanup time.Time
}

// bucketEntry wraps a bucket with metadata for cleanup.
type bucketEntry struct {
	bucket       *TokenBucket
	lastAccessed time.Time
	mu           sync.Mutex // Protects lastAccessed
}

// NewInMemoryStore creates a new in-memory store with the given default
// bucket configuration. cleanupAge determines how long idle buckets are kept
// before cleanup (0 = no cleanup). An optional listener is attached to every
// bucket the store creates.
func NewInMemoryStore(config Config, cleanupAge time.Duration, listener Listener) (*InMemoryStore, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &InMemoryStore{
		buckets:     make(map[string]*bucketEntry),
		config:      config,
		listener:    listener,
		cleanupAge:  cleanupAge,
		lastCleanup: time.Now(),
	}, nil
}

// GetBucket retrieves or creates a bucket for the given key.
// This method is thread-safe.
func (s *InMemoryStore) GetBucket(key string) (*TokenBucket, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	// Try read lock first (fast path - bucket exists)
	s.mu.RLock()
	entry, exists := s.buckets[key]
	s.mu.RUnlock()

	if exists {
		entry.touch()
		return entry.bucket, nil
	}

	// Bucket doesn't exist, acquire write lock to create it
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check: another goroutine might have created it
	if entry, exists = s.buckets[key]; exists {
		entry.touch()
		return entry.bucket, nil
	}

	var opts []BucketOption
	if s.listener != nil {
		opts = append(opts, WithBucketListener(s.listener))
	}

	bucket, err := NewTokenBucket(s.config, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create bucket: %v", ErrStoreFailed, err)
	}

	s.buckets[key] = &bucketEntry{
		bucket:       bucket,
		lastAccessed: time.Now(),
	}

	return bucket, nil
}

func (e *bucketEntry) touch() {
	e.mu.Lock()
	e.lastAccessed = time.Now()
	e.mu.Unlock()
}

// Cleanup removes buckets that haven't been accessed recently.
// Returns the number of buckets removed.
func (s *InMemoryStore) Cleanup() (int, error) {
	if s.cleanupAge == 0 {
		return 0, nil // Cleanup disabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-s.cleanupAge)
	removed := 0

	for key, entry := range s.buckets {
		entry.mu.Lock()
		lastAccessed := entry.lastAccessed
		entry.mu.Unlock()

		if lastAccessed.Before(cutoff) {
			delete(s.buckets, key)
			removed++
		}
	}

	s.lastCleanup = now
	return removed, nil
}

// Count returns the total number of buckets in the store.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}

// StartBackgroundCleanup starts a goroutine that periodically cleans up idle
// buckets. Call the returned function to stop the cleanup goroutine.
func (s *InMemoryStore) StartBackgroundCleanup(interval time.Duration) func() {
	if s.cleanupAge == 0 || interval == 0 {
		// Return no-op function if cleanup is disabled
		return func() {}
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				s.Cleanup()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		close(done)
	}
}
