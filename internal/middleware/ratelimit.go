package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RateLimit enforces a fixed-window per-IP request limit backed by redis.
// The counter and its expiry are set in one pipeline round trip. Redis being
// down fails open: throttling is protection, not a dependency.
func RateLimit(rdb *redis.Client, log *logrus.Logger, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())

		pipe := rdb.Pipeline()
		count := pipe.Incr(c.Request.Context(), key)
		pipe.Expire(c.Request.Context(), key, window)
		if _, err := pipe.Exec(c.Request.Context()); err != nil {
			log.WithError(err).Warn("rate limit check failed, allowing request")
			c.Next()
			return
		}

		if count.Val() > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
