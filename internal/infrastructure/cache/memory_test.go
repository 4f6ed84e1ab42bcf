package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/proposalagent/backend/internal/domain"
)

func sampleResult(id string) *domain.AnalysisResult {
	return &domain.AnalysisResult{
		Requirements: []string{"Container unit"},
		MatchedProducts: []domain.ProductMatch{
			{ProductID: id, ProductName: "20ft New Container", Quantity: 1, UnitPrice: 350000, Confidence: 0.8},
		},
		Source: domain.SourceDeterministic,
	}
}

func TestMemoryCache_PutAndGet(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		ttl       time.Duration
		wait      time.Duration
		wantMiss  bool
		wantSameP bool
	}{
		{
			name:      "process lifetime entry returns stored pointer",
			ttl:       0,
			wantSameP: true,
		},
		{
			name:      "entry within ttl",
			ttl:       time.Minute,
			wantSameP: true,
		},
		{
			name:     "entry after ttl",
			ttl:      time.Millisecond,
			wait:     10 * time.Millisecond,
			wantMiss: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewMemoryCache(tt.ttl)
			defer cache.Close()

			stored := sampleResult("p-1")
			if err := cache.Put(ctx, "key", stored); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			if tt.wait > 0 {
				time.Sleep(tt.wait)
			}

			got, err := cache.Get(ctx, "key")
			if tt.wantMiss {
				if err != domain.ErrCacheMiss {
					t.Errorf("Get() error = %v, want %v", err, domain.ErrCacheMiss)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if tt.wantSameP && got != stored {
				t.Errorf("Get() returned a different object than was stored")
			}
		})
	}
}

func TestMemoryCache_PutNil(t *testing.T) {
	cache := NewMemoryCache(0)

	if err := cache.Put(context.Background(), "key", nil); err != domain.ErrInvalidRequest {
		t.Errorf("Put(nil) error = %v, want %v", err, domain.ErrInvalidRequest)
	}
	if cache.Size() != 0 {
		t.Errorf("Size() = %d, want 0", cache.Size())
	}
}

func TestMemoryCache_Get_CacheMiss(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()

	_, err := cache.Get(ctx, "non-existent-key")
	if err != domain.ErrCacheMiss {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrCacheMiss)
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()

	key := "delete-test"
	if err := cache.Put(ctx, key, sampleResult("p-1")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, err := cache.Get(ctx, key); err != nil {
		t.Fatalf("Get() before delete error = %v", err)
	}

	if err := cache.Delete(ctx, key); err != nil {
		t.Errorf("Delete() error = %v", err)
	}

	if _, err := cache.Get(ctx, key); err != domain.ErrCacheMiss {
		t.Errorf("Get() after delete error = %v, want %v", err, domain.ErrCacheMiss)
	}
}

func TestMemoryCache_RemoveExpired(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cache.Put(ctx, fmt.Sprintf("k%d", i), sampleResult("p")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	cache.removeExpired(time.Now())
	if size := cache.Size(); size != 3 {
		t.Errorf("Size() = %d, want 3 before expiry", size)
	}

	cache.removeExpired(time.Now().Add(2 * time.Minute))
	if size := cache.Size(); size != 0 {
		t.Errorf("Size() = %d, want 0 after expiry", size)
	}
}

func TestMemoryCache_SizeAndClear(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()

	if size := cache.Size(); size != 0 {
		t.Errorf("Size() = %d, want 0 for empty cache", size)
	}

	for i := 0; i < 5; i++ {
		key := string(rune('a' + i))
		if err := cache.Put(ctx, key, sampleResult(key)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	if size := cache.Size(); size != 5 {
		t.Errorf("Size() = %d, want 5", size)
	}

	cache.Clear()

	if size := cache.Size(); size != 0 {
		t.Errorf("Size() = %d, want 0 after clear", size)
	}
	for i := 0; i < 5; i++ {
		key := string(rune('a' + i))
		if _, err := cache.Get(ctx, key); err != domain.ErrCacheMiss {
			t.Errorf("Get(%s) after clear error = %v, want %v", key, err, domain.ErrCacheMiss)
		}
	}
}

func TestMemoryCache_ConcurrentSameKey(t *testing.T) {
	cache := NewMemoryCache(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := cache.Put(ctx, "shared", sampleResult("p-1")); err != nil {
				t.Errorf("Concurrent Put() error = %v", err)
			}
			if _, err := cache.Get(ctx, "shared"); err != nil {
				t.Errorf("Concurrent Get() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if size := cache.Size(); size != 1 {
		t.Errorf("Size() = %d, want 1", size)
	}
}

func TestMemoryCache_CloseTwice(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	if err := cache.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}
