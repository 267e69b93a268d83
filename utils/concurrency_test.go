package utils

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	added := s.Add("https://example.com/1")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("https://example.com/1")
	if added {
		t.Error("second Add of same URL should return false")
	}

	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64

	pool := NewWorkerPool(10, 0)
	for i := 0; i < 100; i++ {
		url := "https://example.com/same"
		pool.Submit(func() {
			if s.Add(url) {
				atomic.AddInt64(&added, 1)
			}
		})
	}
	pool.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestWorkerPoolRateLimit(t *testing.T) {
	rateLimitMs := 100
	pool := NewWorkerPool(1, rateLimitMs)

	start := time.Now()
	for i := 0; i < 3; i++ {
		pool.Submit(func() {})
	}
	pool.Wait()

	// Three jobs through a 100ms token bucket: the first is immediate, the
	// next two wait a full interval each. Allow scheduler slack.
	elapsed := time.Since(start)
	if min := 180 * time.Millisecond; elapsed < min {
		t.Errorf("3 jobs finished in %v; expected at least %v with rate limiting", elapsed, min)
	}
}

func TestWorkerPoolUnlimitedRate(t *testing.T) {
	pool := NewWorkerPool(4, 0)

	start := time.Now()
	for i := 0; i < 20; i++ {
		pool.Submit(func() {})
	}
	pool.Wait()

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("unpaced pool took %v for 20 no-op jobs", elapsed)
	}
}
