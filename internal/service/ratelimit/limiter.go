package ratelimit

import (
    "sync"
    "time"
)

type bucket struct {
    tokens float64
    last   time.Time
}

// Limiter is a keyed token bucket. Every key shares the same capacity and refill rate.
type Limiter struct {
    mu         sync.Mutex
    m          map[string]*bucket
    capacity   float64
    refillRate float64 // tokens per second
    now        func() time.Time
}

// New creates a limiter holding up to capacity tokens per key, refilled at perMinute.
// A non-positive capacity disables limiting.
func New(capacity, perMinute float64) *Limiter {
    return &Limiter{
        m:          make(map[string]*bucket),
        capacity:   capacity,
        refillRate: perMinute / 60,
        now:        time.Now,
    }
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
    if l == nil || l.capacity <= 0 {
        return true
    }
    now := l.now()
    l.mu.Lock()
    defer l.mu.Unlock()

    b, ok := l.m[key]
    if !ok {
        b = &bucket{tokens: l.capacity, last: now}
        l.m[key] = b
    }
    // refill
    elapsed := now.Sub(b.last).Seconds()
    if elapsed > 0 {
        b.tokens += elapsed * l.refillRate
        if b.tokens > l.capacity {
            b.tokens = l.capacity
        }
        b.last = now
    }
    if b.tokens >= 1 {
        b.tokens -= 1
        return true
    }
    return false
}

// Reset refills key to capacity.
func (l *Limiter) Reset(key string) {
    l.mu.Lock()
    delete(l.m, key)
    l.mu.Unlock()
}
