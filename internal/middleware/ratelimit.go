package middleware

import (
	"net/http"
	"os"
	"sync"
	"time"

	"ideahub/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// AIRateLimit throttles the AI endpoints per user. AI_RATE_LIMIT_PER_HOUR
// sets the hourly budget, default 20. Must run after AuthRequired.
func AIRateLimit() gin.HandlerFunc {
	perHour := 20
	if n := utils.StringToInt(os.Getenv("AI_RATE_LIMIT_PER_HOUR")); n > 0 {
		perHour = n
	}

	var mu sync.Mutex
	limiters := make(map[uint]*rate.Limiter)

	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"kind": "unauthorized", "message": "authentication required"},
			})
			return
		}

		mu.Lock()
		limiter, ok := limiters[user.ID]
		if !ok {
			limiter = rate.NewLimiter(rate.Every(time.Hour/time.Duration(perHour)), perHour)
			limiters[user.ID] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   gin.H{"kind": "rate_limited", "message": "AI request limit reached, try again later"},
			})
			return
		}
		c.Next()
	}
}
