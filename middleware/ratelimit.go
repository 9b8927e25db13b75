package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitWindow = time.Second

// RateStore is the subset of the redis client the limiter needs.
type RateStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	PExpire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimit caps each client IP at limit requests per second using a fixed
// window counter in redis. A nil client or a non-positive limit disables it.
func RateLimit(rdb *redis.Client, limit int, log *zap.Logger) gin.HandlerFunc {
	if rdb == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return rateLimit(rdb, limit, time.Now, log)
}

func rateLimit(store RateStore, limit int, now func() time.Time, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("quickjot:rate_limit:%s:%d", ip, now().Unix())

		count, err := store.Incr(ctx, key).Result()
		if err != nil {
			// Fail open.
			log.Warn("Rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			store.PExpire(ctx, key, rateLimitWindow+time.Second)
		}

		if count > int64(limit) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "TOO_MANY_REQUESTS",
					"message": "Too many requests",
				},
			})
			return
		}

		c.Next()
	}
}
