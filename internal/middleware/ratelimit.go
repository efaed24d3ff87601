package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	apierrors "github.com/yukikurage/issue-tracker-api/internal/errors"
)

// LoginLimiter is a fixed-window attempt counter per client IP, kept in
// Redis so every instance shares it.
type LoginLimiter struct {
	rdb    redis.UniversalClient
	limit  int64
	window time.Duration
	prefix string
	log    logrus.FieldLogger
}

// NewLoginLimiter creates a limiter allowing limit attempts per window.
func NewLoginLimiter(rdb redis.UniversalClient, limit int, window time.Duration, log logrus.FieldLogger) *LoginLimiter {
	return &LoginLimiter{
		rdb:    rdb,
		limit:  int64(limit),
		window: window,
		prefix: "ratelimit:login",
		log:    log,
	}
}

// Allow counts one attempt for key and reports whether it is within the
// limit, with the time left in the current window.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := l.prefix + ":" + key

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return true, 0, fmt.Errorf("rate limit: %w", err)
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return true, 0, fmt.Errorf("rate limit: %w", err)
		}
	}

	remaining, err := l.rdb.TTL(ctx, k).Result()
	if err != nil || remaining < 0 {
		remaining = l.window
	}
	return n <= l.limit, remaining, nil
}

// Handler rejects requests over the limit with 429. A Redis failure lets
// the request through.
func (l *LoginLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}

		allowed, retry, err := l.Allow(c.Request.Context(), ip)
		if err != nil {
			l.log.WithError(err).Warn("login rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(l.limit, 10))
		if !allowed {
			secs := int(retry.Round(time.Second) / time.Second)
			c.Header("Retry-After", strconv.Itoa(secs))
			apierrors.TooManyRequests(c, "Too many login attempts, please try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
