package pacer

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestInMemoryStore_GetBucket(t *testing.T) {
	store, err := NewInMemoryStore(Config{Capacity: 10}, time.Hour, nil)
	if err != nil {
		t.Fatalf("NewInMemoryStore() failed: %v", err)
	}

	bucket1, err := store.GetBucket("client-a")
	if err != nil {
		t.Fatalf("GetBucket() failed: %v", err)
	}

	// Same key returns the same bucket
	bucket2, err := store.GetBucket("client-a")
	if err != nil {
		t.Fatalf("GetBucket() failed: %v", err)
	}
	if bucket1 != bucket2 {
		t.Error("GetBucket() should return the same bucket for the same key")
	}

	// Different key gets an independent bucket
	bucket3, err := store.GetBucket("client-b")
	if err != nil {
		t.Fatalf("GetBucket() failed: %v", err)
	}
	if bucket1 == bucket3 {
		t.Error("GetBucket() should return distinct buckets for distinct keys")
	}

	bucket1.Allow()
	if remaining := bucket3.Remaining(); remaining != 10 {
		t.Errorf("unrelated bucket Remaining() = %d, want 10", remaining)
	}

	if count := store.Count(); count != 2 {
		t.Errorf("store.Count() = %d, want 2", count)
	}
}

func TestInMemoryStore_EmptyKey(t *testing.T) {
	store, err := NewInMemoryStore(Config{Capacity: 10}, 0, nil)
	if err != nil {
		t.Fatalf("NewInMemoryStore() failed: %v", err)
	}

	if _, err := store.GetBucket(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("GetBucket(\"\") error = %v, want ErrInvalidKey", err)
	}
}

func TestInMemoryStore_InvalidConfig(t *testing.T) {
	if _, err := NewInMemoryStore(Config{Capacity: 0}, 0, nil); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("NewInMemoryStore() error = %v, want ErrInvalidCapacity", err)
	}
}

func TestInMemoryStore_AttachesListener(t *testing.T) {
	listener := &recordingListener{}
	store, err := NewInMemoryStore(Config{Capacity: 1}, 0, listener)
	if err != nil {
		t.Fatalf("NewInMemoryStore() failed: %v", err)
	}

	bucket, err := store.GetBucket("client-a")
	if err != nil {
		t.Fatalf("GetBucket() failed: %v", err)
	}
	bucket.Allow()
	bucket.Allow()

	listener.mu.Lock()
	defer listener.mu.Unlock()
	if len(listener.acquired) != 1 || len(listener.rejected) != 1 {
		t.Errorf("listener saw %d acquisitions and %d rejections, want 1 and 1",
			len(listener.acquired), len(listener.rejected))
	}
}

func TestInMemoryStore_ConcurrentGetBucket(t *testing.T) {
	store, err := NewInMemoryStore(Config{Capacity: 100}, time.Hour, nil)
	if err != nil {
		t.Fatalf("NewInMemoryStore() failed: %v", err)
	}

	var wg sync.WaitGroup
	buckets := make([]*TokenBucket, 50)

	for i := range buckets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bucket, err := store.GetBucket("shared-key")
			if err != nil {
				t.Errorf("GetBucket() failed: %v", err)
				return
			}
			buckets[i] = bucket
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(buckets); i++ {
		if buckets[i] != buckets[0] {
			t.Fatal("concurrent GetBucket() calls must converge on one bucket")
		}
	}
	if count := store.Count(); count != 1 {
		t.Errorf("store.Count() = %d, want 1", count)
	}
}

func TestInMemoryStore_Cleanup(t *testing.T) {
	store, err := NewInMemoryStore(Config{Capacity: 10}, 10*time.Minute, nil)
	if err != nil {
		t.Fatalf("NewInMemoryStore() failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := store.GetBucket(fmt.Sprintf("client-%d", i)); err != nil {
			t.Fatalf("GetBucket() failed: %v", err)
		}
	}

	// Age three entries past the cutoff
	store.mu.Lock()
	aged := 0
	for _, entry := range store.buckets {
		if aged == 3 {
			break
		}
		entry.lastAccessed = time.Now().Add(-time.Hour)
		aged++
	}
	store.mu.Unlock()

	removed, err := store.Cleanup()
	if err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("Cleanup() removed %d buckets, want 3", removed)
	}
	if count := store.Count(); count != 2 {
		t.Errorf("store.Count() = %d, want 2", count)
	}
}

func TestInMemoryStore_CleanupDisabled(t *testing.T) {
	store, err := NewInMemoryStore(Config{Capacity: 10}, 0, nil)
	if err != nil {
		t.Fatalf("NewInMemoryStore() failed: %v", err)
	}
	store.GetBucket("client-a")

	removed, err := store.Cleanup()
	if err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Cleanup() removed %d buckets, want 0 when disabled", removed)
	}
}

func TestInMemoryStore_BackgroundCleanupStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	store, err := NewInMemoryStore(Config{Capacity: 10}, time.Minute, nil)
	if err != nil {
		t.Fatalf("NewInMemoryStore() failed: %v", err)
	}

	stop := store.StartBackgroundCleanup(10 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	stop()
}
