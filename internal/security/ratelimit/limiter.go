package ratelimit

import (
	"sync"
	"time"
)

// Limiter applies a per-tenant sliding window over mutation events so one
// noisy tenant cannot starve the gateway for everyone else.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	maxReqs int
	window  time.Duration
	cleanup *time.Ticker
	done    chan struct{}
}

type bucket struct {
	requests []time.Time
	lastSeen time.Time
}

func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	limiter := &Limiter{
		buckets: make(map[string]*bucket),
		maxReqs: maxRequests,
		window:  window,
		cleanup: time.NewTicker(5 * time.Minute),
		done:    make(chan struct{}),
	}
	go limiter.cleanupOldBuckets()
	return limiter
}

// Allow records a request for the tenant and reports whether it fits the
// window. An empty tenant id is never limited; those requests are rejected
// earlier by authorization.
func (l *Limiter) Allow(companyID string) bool {
	if companyID == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, exists := l.buckets[companyID]
	if !exists {
		b = &bucket{}
		l.buckets[companyID] = b
	}

	cutoff := now.Add(-l.window)
	kept := b.requests[:0]
	for _, t := range b.requests {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.requests = kept
	b.lastSeen = now

	if len(b.requests) >= l.maxReqs {
		return false
	}
	b.requests = append(b.requests, now)
	return true
}

func (l *Limiter) cleanupOldBuckets() {
	for {
		select {
		case <-l.done:
			return
		case <-l.cleanup.C:
			l.mu.Lock()
			stale := time.Now().Add(-15 * time.Minute)
			for id, b := range l.buckets {
				if b.lastSeen.Before(stale) {
					delete(l.buckets, id)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Stop halts the background cleanup goroutine.
func (l *Limiter) Stop() {
	l.cleanup.Stop()
	close(l.done)
}
