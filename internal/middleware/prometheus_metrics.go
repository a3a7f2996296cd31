package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vendora/backend/internal/metrics"
)

// MetricsMiddleware collects HTTP metrics for Prometheus. The route
// template (c.FullPath) keeps label cardinality bounded; unmatched routes
// collapse into a single bucket.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		// Numeric status string so Grafana queries like status=~"5.." work
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		duration := time.Since(startTime).Seconds()

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration)
	}
}
