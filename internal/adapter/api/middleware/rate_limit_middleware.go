package middleware

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"foodshare/internal/infrastructure/ratelimit"
	"foodshare/pkg/errors"
	"foodshare/pkg/logger"
	"foodshare/pkg/response"
)

const (
	actionHTTP       = "http"
	defaultPerMinute = 120
)

// RateLimit limits requests per client IP with a token bucket per address.
func RateLimit(limiter *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			allowed, wait := limiter.Allow(ip, actionHTTP)
			if !allowed {
				logger.Info("RATE LIMIT: blocked request from IP %s (retry in %v)", ip, wait)
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded"))
			}

			return next(c)
		}
	}
}

// HTTPLimit is the per-IP limit for public endpoints.
func HTTPLimit(perMinute int) map[string]ratelimit.Limit {
	if perMinute <= 0 {
		perMinute = defaultPerMinute
	}
	return map[string]ratelimit.Limit{actionHTTP: {PerMinute: perMinute}}
}
