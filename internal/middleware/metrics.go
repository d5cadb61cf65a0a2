package middleware

import (
	"strconv"
	"time"

	"github.com/Cozta1/sistema-encomendas-V2/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records request count and latency labelled by the route template,
// so /orders/:id stays one series regardless of the id.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
	}
}
