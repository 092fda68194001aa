package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/filedock/filedock/internal/shared/id"
)

// HeaderRequestID carries the correlation ID for one request.
const HeaderRequestID = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID assigns each request a ULID-based correlation ID and echoes
// it in the response headers. An ID supplied by an upstream proxy is
// kept so correlation spans hops.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = string(id.NewRequestID())
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(HeaderRequestID, rid)
		c.Next()
	}
}

// RequestIDFrom returns the correlation ID set by RequestID. Empty only
// if the middleware did not run.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
