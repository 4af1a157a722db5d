package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitWindow is the period a per-student creation quota covers.
const RateLimitWindow = 24 * time.Hour

// ComplaintRateLimiter caps how many complaints one account can file per
// window. A nil client disables the limit. Redis errors let the request
// through rather than blocking complaint filing.
func ComplaintRateLimiter(client *redis.Client, prefix string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}
		caller, ok := CallerFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
			return
		}

		ctx := c.Request.Context()

		// One counter per account
		userKey := prefix + ":" + caller.AccountID.Hex()

		count, err := client.Incr(ctx, userKey).Result()
		if err != nil {
			slog.Warn("rate limiter unavailable", "error", err)
			c.Next()
			return
		}

		// Start the window on the first increment
		if count == 1 {
			if err := client.Expire(ctx, userKey, RateLimitWindow).Err(); err != nil {
				slog.Warn("rate limiter could not set window", "key", userKey, "error", err)
			}
		}

		if count > int64(limit) {
			retryAfter, _ := client.TTL(ctx, userKey).Result()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Complaint limit reached, try again later",
				"retry_after": retryAfter.Seconds(),
			})
			return
		}

		c.Next()
	}
}
