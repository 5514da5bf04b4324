package middlewares

import (
	"net/http"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/chatinsight/chatinsight-go/tool"
)

// Upload analysis is expensive (subprocess per request), so the endpoint is
// rate limited per client IP. Idle limiters age out of the cache.
var uploadLimiters = ttlworker.NewCache[string, *rate.Limiter](10 * time.Minute)

// UploadRateLimit allows a small burst of uploads per IP, then one every
// few seconds.
func UploadRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := uploadLimiters.Get(ip)
		if limiter == nil {
			limiter = rate.NewLimiter(rate.Every(5*time.Second), 3)
			uploadLimiters.Set(ip, limiter)
		}
		if !limiter.Allow() {
			tool.DefaultLogger.Warnf("[RateLimit] Upload rejected for %s", ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, tool.FastReturnError("too many uploads, slow down"))
			return
		}
		c.Next()
	}
}
