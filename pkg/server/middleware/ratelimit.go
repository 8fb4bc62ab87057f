// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-s3console.
//
// go-s3console is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jeremyhahn/go-s3console/pkg/adapters"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerSecond is the number of requests allowed per second
	RequestsPerSecond float64

	// Burst is the maximum burst size
	Burst int

	// PerIP enables per-IP rate limiting (default: true)
	PerIP bool

	// IdleTTL is how long a per-IP limiter survives without traffic
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns a rate limit config with sensible defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerSecond: 50,
		Burst:             100,
		PerIP:             true,
		IdleTTL:           10 * time.Minute,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter manages rate limiting state
type rateLimiter struct {
	config    *RateLimitConfig
	global    *rate.Limiter
	clients   map[string]*clientLimiter
	mu        sync.Mutex
	now       func() time.Time
	lastSweep time.Time
}

// newRateLimiter creates a new rate limiter
func newRateLimiter(config *RateLimitConfig) *rateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	rl := &rateLimiter{
		config:  config,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
	rl.lastSweep = rl.now()

	if !config.PerIP {
		rl.global = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst)
	}

	return rl
}

// getLimiter returns the appropriate rate limiter for the client
func (rl *rateLimiter) getLimiter(clientIP string) *rate.Limiter {
	if !rl.config.PerIP {
		return rl.global
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	cl, exists := rl.clients[clientIP]
	if !exists {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst),
		}
		rl.clients[clientIP] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// sweep drops limiters idle for longer than IdleTTL. It runs at most once
// per IdleTTL and must be called with mu held.
func (rl *rateLimiter) sweep(now time.Time) {
	ttl := rl.config.IdleTTL
	if ttl <= 0 || now.Sub(rl.lastSweep) < ttl {
		return
	}
	for ip, cl := range rl.clients {
		if now.Sub(cl.lastSeen) > ttl {
			delete(rl.clients, ip)
		}
	}
	rl.lastSweep = now
}

func (rl *rateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// RateLimitMiddleware creates a Gin middleware for rate limiting HTTP requests
func RateLimitMiddleware(config *RateLimitConfig, logger adapters.Logger) gin.HandlerFunc {
	return newRateLimiter(config).middleware(logger)
}

func (rl *rateLimiter) middleware(logger adapters.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = adapters.NewDefaultLogger()
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		if !rl.getLimiter(clientIP).Allow() {
			logger.Warn(c.Request.Context(), "Rate limit exceeded",
				adapters.Field{Key: "client_ip", Value: clientIP},
				adapters.Field{Key: "path", Value: c.Request.URL.Path},
				adapters.Field{Key: "method", Value: c.Request.Method},
			)

			c.Header("X-RateLimit-Limit", fmt.Sprintf("%.0f", rl.config.RequestsPerSecond))
			c.Header("X-RateLimit-Burst", fmt.Sprintf("%d", rl.config.Burst))
			c.Header("Retry-After", "1")

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   http.StatusText(http.StatusTooManyRequests),
				"code":    http.StatusTooManyRequests,
				"message": "Too many requests, please try again later",
			})
			return
		}

		c.Next()
	}
}
