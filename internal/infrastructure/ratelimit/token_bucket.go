package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket limita las requests entrantes de un cliente
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64 // tokens por segundo
	lastRefill time.Time
	lastSeen   time.Time
	now        func() time.Time
}

// NewTokenBucket creates a full bucket; refillRate is in tokens per second
func NewTokenBucket(capacity, refillRate int) *TokenBucket {
	return newTokenBucketWithClock(capacity, refillRate, time.Now)
}

func newTokenBucketWithClock(capacity, refillRate int, now func() time.Time) *TokenBucket {
	t := now()
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: float64(refillRate),
		lastRefill: t,
		lastSeen:   t,
		now:        now,
	}
}

// Allow consume un token si hay disponible
func (tb *TokenBucket) Allow() bool {
	return tb.AllowN(1)
}

// AllowN consume n tokens sólo si están todos disponibles
func (tb *TokenBucket) AllowN(n int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	tb.lastSeen = tb.lastRefill
	if tb.tokens >= float64(n) {
		tb.tokens -= float64(n)
		return true
	}
	return false
}

// Tokens returns the whole tokens currently available
func (tb *TokenBucket) Tokens() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	return int(tb.tokens)
}

// refill must be called with the lock held
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

func (tb *TokenBucket) idleSince(cutoff time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastSeen.Before(cutoff)
}

// RateLimiterCollection mantiene un bucket por cliente
type RateLimiterCollection struct {
	mu              sync.RWMutex
	buckets         map[string]*TokenBucket
	capacity        int
	refillRate      int
	lastCleanup     time.Time
	cleanupInterval time.Duration
	idleTimeout     time.Duration
	now             func() time.Time
}

// NewRateLimiterCollection creates a new collection of rate limiters
func NewRateLimiterCollection(capacity, refillRate int) *RateLimiterCollection {
	return &RateLimiterCollection{
		buckets:         make(map[string]*TokenBucket),
		capacity:        capacity,
		refillRate:      refillRate,
		lastCleanup:     time.Now(),
		cleanupInterval: 10 * time.Minute,
		idleTimeout:     30 * time.Minute,
		now:             time.Now,
	}
}

// Allow checks if a request from the given client is allowed
func (rlc *RateLimiterCollection) Allow(clientID string) bool {
	return rlc.getBucket(clientID).Allow()
}

// Tokens returns available tokens for the given client
func (rlc *RateLimiterCollection) Tokens(clientID string) int {
	return rlc.getBucket(clientID).Tokens()
}

func (rlc *RateLimiterCollection) getBucket(clientID string) *TokenBucket {
	rlc.mu.RLock()
	bucket, exists := rlc.buckets[clientID]
	rlc.mu.RUnlock()
	if exists {
		return bucket
	}

	rlc.mu.Lock()
	defer rlc.mu.Unlock()

	if bucket, exists := rlc.buckets[clientID]; exists {
		return bucket
	}

	bucket = newTokenBucketWithClock(rlc.capacity, rlc.refillRate, rlc.now)
	rlc.buckets[clientID] = bucket
	rlc.maybeCleanup()

	return bucket
}

// maybeCleanup drops buckets idle longer than idleTimeout; write lock held
func (rlc *RateLimiterCollection) maybeCleanup() {
	now := rlc.now()
	if now.Sub(rlc.lastCleanup) < rlc.cleanupInterval {
		return
	}

	cutoff := now.Add(-rlc.idleTimeout)
	for clientID, bucket := range rlc.buckets {
		if bucket.idleSince(cutoff) {
			delete(rlc.buckets, clientID)
		}
	}
	rlc.lastCleanup = now
}

// Stats returns statistics about the rate limiter collection
func (rlc *RateLimiterCollection) Stats() map[string]interface{} {
	rlc.mu.RLock()
	defer rlc.mu.RUnlock()

	return map[string]interface{}{
		"total_clients": len(rlc.buckets),
		"capacity":      rlc.capacity,
		"refill_rate":   rlc.refillRate,
	}
}
