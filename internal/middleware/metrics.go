package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pocket-university-api/internal/service"
)

// Metrics records request latency and status per matched route. Requests
// that matched no route share one label to keep cardinality bounded.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
