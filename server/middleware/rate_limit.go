// Package middleware holds the echo middleware shared by the API routes.
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	apierrors "github.com/ramify-app/ramify/server/internal/errors"
)

// RateLimiter keeps one token bucket per key. AI routes key it by board id,
// so a runaway shell loop on one board cannot starve the provider budget of
// another.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*rate.Limiter

	interval time.Duration
	burst    int
}

// NewRateLimiter creates a limiter allowing one request per interval with
// the given burst.
func NewRateLimiter(interval time.Duration, burst int) *RateLimiter {
	if interval <= 0 {
		interval = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limits:   make(map[string]*rate.Limiter),
		interval: interval,
		burst:    burst,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[key]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Every(rl.interval), rl.burst)
	rl.limits[key] = limiter
	return limiter
}

// Allow reports whether a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// Wait blocks until a request is allowed or the context ends.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.limiter(key).Wait(ctx)
}

// Middleware rejects over-limit requests with 429, keyed by the :board path
// parameter, falling back to the client address for unscoped routes.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Param("board")
			if key == "" {
				key = c.RealIP()
			}
			if !rl.Allow(key) {
				return c.JSON(http.StatusTooManyRequests, apierrors.Payload{
					Code:    apierrors.CodeRateLimited,
					Message: "too many generation requests, slow down",
				})
			}
			return next(c)
		}
	}
}
