package middleware

import (
	"context"
	"math"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// allower is the part of *redis_rate.Limiter used here.
type allower interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RedisRateLimiter shares buckets across replicas through Redis (GCRA via
// redis_rate). When Redis fails the request is judged by an in-process
// limiter with the same rate, so an outage degrades to per-replica limits
// instead of rejecting traffic.
type RedisRateLimiter struct {
	limiter  allower
	limit    redis_rate.Limit
	keyFn    KeyFunc
	fallback *RateLimiter
	prefix   string
}

// NewRedisRateLimiter builds a limiter over rdb with rps tokens per second
// and the given burst.
func NewRedisRateLimiter(rdb *redis.Client, rps float64, burst int, keyFn KeyFunc) *RedisRateLimiter {
	if keyFn == nil {
		keyFn = KeyByUserOrIP()
	}
	return &RedisRateLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		limit:    redisLimit(rps, burst),
		keyFn:    keyFn,
		fallback: NewRateLimiter(rps, burst, keyFn),
		prefix:   "ratelimit:",
	}
}

// redisLimit converts a fractional per-second rate to redis_rate's integer
// rate over a period.
func redisLimit(rps float64, burst int) redis_rate.Limit {
	if burst < 1 {
		burst = 1
	}
	if rps <= 0 {
		return redis_rate.Limit{}
	}
	if rps >= 1 {
		return redis_rate.Limit{Rate: int(math.Round(rps)), Burst: burst, Period: time.Second}
	}
	return redis_rate.Limit{Rate: 1, Burst: burst, Period: time.Duration(float64(time.Second) / rps)}
}

// Handler returns the Gin middleware.
func (rl *RedisRateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) || rl.limit.IsZero() {
			c.Next()
			return
		}
		key := rl.keyFn(c)
		res, err := rl.limiter.Allow(c.Request.Context(), rl.prefix+key, rl.limit)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("redis rate limiter unavailable, using local buckets")
			if rl.fallback.Allow(key) {
				c.Next()
				return
			}
			rejectLimited(c, "local", rl.fallback.retryAfter())
			return
		}
		if res.Allowed == 0 {
			rejectLimited(c, "redis", res.RetryAfter)
			return
		}
		c.Next()
	}
}
