package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, found, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !found || string(got) != "v" {
		t.Errorf("expected hit with v, got found=%v payload=%s", found, got)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", store.Len())
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), 5*time.Millisecond); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, found, _ := store.Get(ctx, "k"); found {
		t.Error("expected expired entry to be absent")
	}
	// The expired read evicts the entry.
	if store.Len() != 0 {
		t.Errorf("expected eviction on read, %d entries remain", store.Len())
	}
}

func TestMemoryStore_Validation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "", []byte("v"), time.Hour); err != ErrEmptyKey {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := store.Set(ctx, "k", []byte("v"), -time.Second); err != ErrInvalidTTL {
		t.Errorf("expected ErrInvalidTTL, got %v", err)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d-%d", id, j)
				if err := store.Set(ctx, key, []byte("v"), time.Hour); err != nil {
					t.Errorf("set %s failed: %v", key, err)
				}
				if _, found, _ := store.Get(ctx, key); !found {
					t.Errorf("expected %s to be present", key)
				}
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 1000 {
		t.Errorf("expected 1000 entries, got %d", store.Len())
	}
}
