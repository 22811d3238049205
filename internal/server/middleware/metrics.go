package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"farmgate/backend/internal/telemetry/metrics"
)

// Metrics records request count and latency labelled with the matched route template.
// Requests that match no route use "<no-route>".
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}
		method := c.Request.Method
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
