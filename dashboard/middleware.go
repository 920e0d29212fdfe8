package dashboard

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/YuminosukeSato/burnrate/pkg/log"
)

const requestIDKey = "request_id"

// RequestID propagates X-Request-ID, generating one when absent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)
		c.Next()
	}
}

// Observe records request metrics and writes one access log line per request.
func Observe(m *Metrics, logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(route, c.Request.Method).Observe(elapsed.Seconds())

		logger.Debug("request served",
			log.RouteKey, route,
			log.StatusKey, status,
			log.ClientIPKey, c.ClientIP(),
			requestIDKey, c.GetString(requestIDKey),
			log.DurationMsKey, elapsed.Milliseconds(),
		)
	}
}
