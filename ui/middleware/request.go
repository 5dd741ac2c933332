package middleware

import (
	"time"

	"hsedash/internal"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// RequestLog tags each request with an id, reusing the caller's when
// present, and logs method, path, status and latency once it completes.
func RequestLog(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()

		logger.Info("[HTTP] %s %s %d %.2fms id=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			float64(time.Since(start).Nanoseconds())/1e6, id)
	}
}
