package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/myad-dev/site/internal/pkg/response"
)

// Counter is a fixed-window hit counter. The redis client implements it.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit allows at most limit requests per client IP per window for the
// routes it guards. A nil counter disables limiting, and counter errors let
// the request through.
func RateLimit(counter Counter, scope string, limit int64, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		secs := max(int64(window/time.Second), 1)
		bucket := time.Now().Unix() / secs
		key := fmt.Sprintf("site:rate_limit:%s:%s:%d", scope, ip, bucket)

		count, err := counter.Hit(c.Request.Context(), key, window)
		if err != nil {
			if log != nil {
				log.Warn("rate limit counter unavailable", zap.Error(err))
			}
			c.Next()
			return
		}

		if count > limit {
			c.Header("Retry-After", strconv.FormatInt(secs, 10))
			response.TooManyRequests(c, "too many attempts, try again later")
			return
		}

		c.Next()
	}
}
