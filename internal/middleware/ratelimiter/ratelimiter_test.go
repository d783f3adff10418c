package ratelimiter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinCapacity(t *testing.T) {
	rl := NewClientRateLimiter(1, 3, time.Hour)
	defer rl.Stop()

	assert.True(t, rl.Allow("client"))
	assert.True(t, rl.Allow("client"))
	assert.True(t, rl.Allow("client"))
	assert.False(t, rl.Allow("client"), "bucket is exhausted")
}

func TestRefillOverTime(t *testing.T) {
	rl := NewClientRateLimiter(100, 1, time.Hour)
	defer rl.Stop()

	assert.True(t, rl.Allow("client"))
	assert.False(t, rl.Allow("client"))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, rl.Allow("client"), "tokens refill at the configured rate")
}

func TestClientsAreIndependent(t *testing.T) {
	rl := NewClientRateLimiter(1, 1, time.Hour)
	defer rl.Stop()

	assert.True(t, rl.Allow("alice"))
	assert.False(t, rl.Allow("alice"))
	assert.True(t, rl.Allow("bob"))
}

func TestIdleBucketsExpire(t *testing.T) {
	rl := NewClientRateLimiter(0.001, 1, 20*time.Millisecond)
	defer rl.Stop()

	assert.True(t, rl.Allow("client"))
	assert.False(t, rl.Allow("client"))

	// After expiration the client starts with a fresh bucket.
	time.Sleep(50 * time.Millisecond)
	assert.True(t, rl.Allow("client"))
}

func TestConcurrentAccess(t *testing.T) {
	rl := NewClientRateLimiter(1000, 1000, time.Hour)
	defer rl.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				rl.Allow("shared")
			}
		}()
	}
	wg.Wait()
}
