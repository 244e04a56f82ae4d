package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func byteLen(b []byte) int64 { return int64(len(b)) }

func TestLRU_BasicOperations(t *testing.T) {
	cache := New[string, []byte](0, byteLen)

	cache.Put("a", []byte("1"))
	cache.Put("b", []byte("22"))

	if v, ok := cache.Get("a"); !ok || string(v) != "1" {
		t.Errorf("Get(a) = %q, %v; want 1, true", v, ok)
	}
	if _, ok := cache.Get("c"); ok {
		t.Error("Get(c) should return false")
	}
	if n := cache.Len(); n != 2 {
		t.Errorf("Len() = %d; want 2", n)
	}

	cache.Put("a", []byte("333"))
	if s := cache.Stats(); s.TotalBytes != 5 || s.Size != 2 {
		t.Errorf("Stats() after replace = %+v", s)
	}

	cache.Remove("a")
	if _, ok := cache.Get("a"); ok {
		t.Error("Get(a) should return false after Remove")
	}
	if s := cache.Stats(); s.TotalBytes != 2 || s.Hits != 1 || s.Misses != 2 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestLRU_Eviction(t *testing.T) {
	cache := New[string, []byte](10, byteLen)

	cache.Put("a", make([]byte, 4))
	cache.Put("b", make([]byte, 4))
	cache.Get("a") // b is now least recently used
	cache.Put("c", make([]byte, 4))

	if _, ok := cache.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := cache.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if s := cache.Stats(); s.Evictions != 1 || s.TotalBytes != 8 {
		t.Errorf("Stats() = %+v", s)
	}

	cache.Put("huge", make([]byte, 11))
	if _, ok := cache.Get("huge"); ok {
		t.Error("values larger than the cache should not be kept")
	}
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, oversized put should not evict", cache.Len())
	}
}

func TestLRU_Concurrent(t *testing.T) {
	cache := New[string, []byte](64, byteLen)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (i+j)%16)
				cache.Put(key, make([]byte, 8))
				cache.Get(key)
			}
		}(i)
	}
	wg.Wait()
	if s := cache.Stats(); s.TotalBytes > 64 || s.Size > 8 {
		t.Errorf("Stats() = %+v exceeds bound", s)
	}
}

func TestLoader(t *testing.T) {
	calls := map[string]int{}
	cause := errors.New("offline")
	load := Loader(func(url string) ([]byte, error) {
		calls[url]++
		if url == "bad.png" {
			return nil, cause
		}
		return []byte(url), nil
	}, 1<<20)

	for i := 0; i < 3; i++ {
		data, err := load("logo.png")
		if err != nil || string(data) != "logo.png" {
			t.Fatalf("load() = %q, %v", data, err)
		}
	}
	if calls["logo.png"] != 1 {
		t.Errorf("logo.png loaded %d times, want 1", calls["logo.png"])
	}

	for i := 0; i < 2; i++ {
		if _, err := load("bad.png"); !errors.Is(err, cause) {
			t.Errorf("load(bad.png) error = %v", err)
		}
	}
	if calls["bad.png"] != 2 {
		t.Errorf("failed loads should not be cached, got %d calls", calls["bad.png"])
	}
}
