package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pet-service/internal/services"
)

type RateLimitMiddleware struct {
	presence *services.PresenceService
}

func NewRateLimitMiddleware(presence *services.PresenceService) *RateLimitMiddleware {
	return &RateLimitMiddleware{presence: presence}
}

// RateLimit bounds per-user request rates on an endpoint. Runs after
// auth, which puts user_id in the context.
func (rm *RateLimitMiddleware) RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		key := fmt.Sprintf("%v:%s", userID, c.Request.URL.Path)
		allowed, err := rm.presence.CheckRateLimit(c.Request.Context(), key, requests, window)
		if err != nil {
			// Redis being down should not take the API with it.
			c.Next()
			return
		}
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": fmt.Sprintf("Too many requests. Limit: %d per %v", requests, window),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
