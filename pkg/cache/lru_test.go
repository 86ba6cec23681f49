package cache

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"
)

func TestLRU(t *testing.T) {
	c := NewLRU[string, int](2, nil)

	c.Add("a", 1)
	c.Add("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be present")
	}
	// b is now least recently used.
	if evicted := c.Add("c", 3); !evicted {
		t.Error("adding past capacity should evict")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if got := c.Keys(); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("Keys() = %v, want oldest first", got)
	}
	if v, _ := c.Peek("a"); v != 1 {
		t.Errorf("Peek(a) = %d", v)
	}
}

func TestLRUDefaultCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
	}{
		{"zero", 0},
		{"negative", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewLRU[int, int](tt.capacity, nil)
			for i := 0; i < DefaultCapacity+2; i++ {
				c.Add(i, i)
			}
			if c.Len() != DefaultCapacity {
				t.Errorf("Len() = %d, want %d", c.Len(), DefaultCapacity)
			}
		})
	}
}

func TestLRUOnEvict(t *testing.T) {
	var evicted []string
	c := NewLRU(1, func(k string, v int) { evicted = append(evicted, k) })
	c.Add("a", 1)
	c.Add("b", 2)
	c.Remove("b")
	if !slices.Equal(evicted, []string{"a", "b"}) {
		t.Errorf("evicted = %v", evicted)
	}
}

func TestLRUConcurrent(t *testing.T) {
	c := NewLRU[int, int](8, nil)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.Add(g*1000+i, i)
				c.Get(i)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() != 8 {
		t.Errorf("Len() = %d, want 8", c.Len())
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)
	defer c.Close()

	data := []byte("ordered")
	if err := c.Set(ctx, "k1", data, 0); err != nil {
		t.Fatal(err)
	}
	data[0] = 'X'
	got, hit, err := c.Get(ctx, "k1")
	if err != nil || !hit || string(got) != "ordered" {
		t.Errorf("Get = %q, %v, %v", got, hit, err)
	}
	got[0] = 'Y'
	if again, _, _ := c.Get(ctx, "k1"); string(again) != "ordered" {
		t.Error("MemoryCache should not share byte slices with callers")
	}

	_ = c.Set(ctx, "k2", []byte("2"), 0)
	_ = c.Set(ctx, "k3", []byte("3"), 0)
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if _, hit, _ := c.Get(ctx, "k1"); hit {
		t.Error("k1 should have been evicted")
	}

	_ = c.Delete(ctx, "k2")
	if _, hit, _ := c.Get(ctx, "k2"); hit {
		t.Error("k2 should be deleted")
	}
	_ = c.Clear(ctx)
	if c.Len() != 0 {
		t.Error("Clear should drop everything")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(4)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", []byte("v"), time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("fresh entry should hit")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if c.Len() != 0 {
		t.Error("expired entry should be removed")
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not-a-url", "guji:"); err == nil {
		t.Error("expected error for invalid redis URL")
	}
}
