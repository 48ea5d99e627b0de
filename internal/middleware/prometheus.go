package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/citadelrisk/graphbuilder/internal/metrics"
)

// PrometheusMiddleware records request duration, count and in-flight requests.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.RequestsInFlight.Inc()
		defer metrics.RequestsInFlight.Dec()

		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())

		// Route pattern keeps label cardinality bounded.
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
