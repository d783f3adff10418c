package ratelimiter

import (
	"sync"
	"time"
)

// bucket is a token bucket for a single client.
type bucket struct {
	tokens     float64
	capacity   float64
	rate       float64
	lastRefill time.Time
	mu         sync.Mutex
	timer      *time.Timer
	clientID   string
	parent     *ClientRateLimiter
}

// ClientRateLimiter keeps a token bucket per client id (IP or email).
// Idle buckets expire so the map does not grow without bound.
type ClientRateLimiter struct {
	buckets        map[string]*bucket
	mu             sync.RWMutex
	rate           float64
	capacity       float64
	expirationTime time.Duration
}

func NewClientRateLimiter(rate, capacity float64, expirationTime time.Duration) *ClientRateLimiter {
	return &ClientRateLimiter{
		buckets:        make(map[string]*bucket),
		rate:           rate,
		capacity:       capacity,
		expirationTime: expirationTime,
	}
}

func (l *ClientRateLimiter) cleanup(clientID string) {
	l.mu.Lock()
	delete(l.buckets, clientID)
	l.mu.Unlock()
}

func (b *bucket) resetTimer() {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.parent.expirationTime, func() {
		b.parent.cleanup(b.clientID)
	})
}

func (l *ClientRateLimiter) getBucket(clientID string) *bucket {
	l.mu.RLock()
	b, exists := l.buckets[clientID]
	l.mu.RUnlock()
	if exists {
		b.resetTimer()
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring the write lock
	if b, exists = l.buckets[clientID]; exists {
		b.resetTimer()
		return b
	}

	b = &bucket{
		tokens:     l.capacity,
		capacity:   l.capacity,
		rate:       l.rate,
		lastRefill: time.Now(),
		clientID:   clientID,
		parent:     l,
	}
	l.buckets[clientID] = b
	b.resetTimer()
	return b
}

func (b *bucket) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()

	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Allow reports whether a request from the given client may proceed.
func (l *ClientRateLimiter) Allow(clientID string) bool {
	return l.getBucket(clientID).allow()
}

// Stop cancels all expiration timers.
func (l *ClientRateLimiter) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.buckets {
		if b.timer != nil {
			b.timer.Stop()
		}
	}
}
