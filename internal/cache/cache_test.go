// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCacheBasicOperations(t *testing.T) {
	c := New(1*time.Minute, time.Minute)

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	_, exists = c.Get("key2")
	if exists {
		t.Error("Expected key2 to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := New(100*time.Millisecond, time.Minute)

	c.Set("key1", "value1")

	_, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist immediately after set")
	}

	time.Sleep(150 * time.Millisecond)

	// Expiry must be enforced on read, well before the sweeper runs
	_, exists = c.Get("key1")
	if exists {
		t.Error("Expected key1 to be expired")
	}
}

func TestCacheOverwriteResetsTTL(t *testing.T) {
	c := New(200*time.Millisecond, time.Minute)

	c.Set("key1", "old")
	time.Sleep(120 * time.Millisecond)
	c.Set("key1", "new")
	time.Sleep(120 * time.Millisecond)

	// 240ms after the first Set but only 120ms after the overwrite
	value, exists := c.Get("key1")
	if !exists {
		t.Fatal("Expected key1 to survive, overwrite should reset TTL")
	}
	if value != "new" {
		t.Errorf("Expected new, got %v", value)
	}
}

func TestCacheDelete(t *testing.T) {
	c := New(1*time.Minute, time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, exists := c.Get("key1")
	if exists {
		t.Error("Expected key1 to be deleted")
	}
}

func TestCacheClear(t *testing.T) {
	c := New(1*time.Minute, time.Minute)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	c.Clear()

	for _, key := range []string{"key1", "key2", "key3"} {
		_, exists := c.Get(key)
		if exists {
			t.Errorf("Expected %s to be cleared", key)
		}
	}
}

func TestCacheStats(t *testing.T) {
	c := New(1*time.Minute, time.Minute)

	c.Set("key1", "value1")
	c.Get("key1") // hit
	c.Get("key2") // miss
	c.Get("key1") // hit

	stats := c.GetStats()

	if stats.Hits != 2 {
		t.Errorf("Expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}

	hitRate := c.HitRate()
	expectedHitRate := 66.66666666666667 // 2/3 * 100
	if hitRate < expectedHitRate-0.01 || hitRate > expectedHitRate+0.01 {
		t.Errorf("Expected hit rate around %.2f%%, got %.2f%%", expectedHitRate, hitRate)
	}
}

func TestCacheSweepRemovesExpired(t *testing.T) {
	c := New(50*time.Millisecond, 60*time.Millisecond)

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("key%d", i), i)
	}

	time.Sleep(200 * time.Millisecond)

	stats := c.GetStats()
	if stats.TotalKeys != 0 {
		t.Errorf("Expected sweep to remove all expired entries, %d remain", stats.TotalKeys)
	}
}

func TestFingerprint(t *testing.T) {
	cases := []struct {
		kind string
		url  string
		want string
	}{
		{"metadata", "https://youtube.com/watch?v=abc", "metadata:https://youtube.com/watch?v=abc"},
		{"audio", "https://youtube.com/watch?v=abc", "audio:https://youtube.com/watch?v=abc"},
		// Exact-match semantics: parameter order matters
		{"audio", "https://youtube.com/watch?v=abc&t=1", "audio:https://youtube.com/watch?v=abc&t=1"},
	}

	for _, tc := range cases {
		if got := Fingerprint(tc.kind, tc.url); got != tc.want {
			t.Errorf("Fingerprint(%q, %q) = %q, want %q", tc.kind, tc.url, got, tc.want)
		}
	}

	if Fingerprint("audio", "https://a?x=1&y=2") == Fingerprint("audio", "https://a?y=2&x=1") {
		t.Error("query parameter order must produce distinct fingerprints")
	}
	if Fingerprint("audio", "https://a") == Fingerprint("video", "https://a") {
		t.Error("operation kinds must produce distinct fingerprints")
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New(1*time.Minute, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", n, j)
				c.Set(key, j)
				if v, ok := c.Get(key); !ok || v != j {
					t.Errorf("Get(%s) = %v, %v; want %d, true", key, v, ok, j)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestGetDoesNotEvictRefreshedEntry(t *testing.T) {
	c := New(time.Minute, time.Hour)
	const key = "audio:https://youtu.be/refresh"

	// A reader observing an expired entry races a writer refreshing the
	// same key. The refreshed entry must survive the reader's eviction.
	for i := 0; i < 200; i++ {
		c.SetWithTTL(key, "stale", -time.Millisecond)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Get(key)
		}()
		c.Set(key, "fresh")
		wg.Wait()

		value, exists := c.Get(key)
		if !exists {
			t.Fatalf("iteration %d: refreshed entry was evicted", i)
		}
		if value != "fresh" {
			t.Fatalf("iteration %d: got %v, want fresh", i, value)
		}
		c.Delete(key)
	}
}

func TestGetServesEntryRefreshedBehindExpiredRead(t *testing.T) {
	c := New(time.Minute, time.Hour)

	c.SetWithTTL("k", "stale", -time.Millisecond)
	c.Set("k", "fresh")

	value, exists := c.Get("k")
	if !exists || value != "fresh" {
		t.Errorf("Get = (%v, %v), want (fresh, true)", value, exists)
	}
}
