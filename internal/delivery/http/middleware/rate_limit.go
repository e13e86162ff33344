package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go-jobalert-scheduler/internal/delivery/http/response"
	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/pkg/logger"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit  int
	Window time.Duration
	// Key prefix for Redis (default: "rl:admin:")
	KeyPrefix string
	// KeyFunc defaults to the authenticated subject, then client IP.
	KeyFunc func(*gin.Context) string
	// Client is optional; without it each process limits on its own.
	Client *goredis.Client
}

// KEYS[1] = counter key
// ARGV[1] = TTL in seconds
// Returns: [current_count, ttl_remaining]
var rateLimitScript = goredis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`)

// TriggerRateLimitConfig guards the endpoints that start passes or posts.
func TriggerRateLimitConfig(client *goredis.Client) RateLimitConfig {
	return RateLimitConfig{
		Limit:     10,
		Window:    time.Minute,
		KeyPrefix: "rl:admin:",
		Client:    client,
	}
}

func defaultRateKey(c *gin.Context) string {
	if sub := c.GetString(string(domain.KeySubject)); sub != "" {
		return sub
	}
	return c.ClientIP()
}

// localLimiters is the per-process fallback: one token bucket per key.
type localLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

func (l *localLimiters) allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.every, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// RateLimitMiddleware uses Redis when configured and reachable, and falls
// back to in-process token buckets otherwise. It fails open.
func RateLimitMiddleware(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = defaultRateKey
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:admin:"
	}
	local := &localLimiters{
		limiters: make(map[string]*rate.Limiter),
		every:    rate.Limit(float64(cfg.Limit) / cfg.Window.Seconds()),
		burst:    cfg.Limit,
	}

	return func(c *gin.Context) {
		key := cfg.KeyPrefix + cfg.KeyFunc(c)

		var allowed bool
		if cfg.Client != nil {
			count, resetAt, err := checkRateLimitRedis(c.Request.Context(), cfg.Client, key, cfg.Window)
			if err == nil {
				allowed = count <= cfg.Limit
				remaining := cfg.Limit - count
				if remaining < 0 {
					remaining = 0
				}
				c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
				c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
				c.Header("X-RateLimit-Reset", resetAt.Format(time.RFC3339))
			} else {
				logger.Log.Warn("Rate limit check failed, using local limiter", "error", err)
				allowed = local.allow(key)
			}
		} else {
			allowed = local.allow(key)
		}

		if !allowed {
			logger.Log.Warn("Rate limit triggered", "key", key, "path", c.FullPath())
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func checkRateLimitRedis(ctx context.Context, client *goredis.Client, key string, window time.Duration) (int, time.Time, error) {
	result, err := rateLimitScript.Run(ctx, client, []string{key}, int(window.Seconds())).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis rate limit eval failed: %w", err)
	}

	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return 0, time.Time{}, fmt.Errorf("unexpected redis result format")
	}
	count, _ := arr[0].(int64)
	ttl, _ := arr[1].(int64)

	return int(count), time.Now().Add(time.Duration(ttl) * time.Second), nil
}
