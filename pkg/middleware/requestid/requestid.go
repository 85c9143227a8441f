package requestid

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderKey carries the request id in both directions.
	HeaderKey  = "X-Request-ID"
	contextKey = "request_id"
)

// Caller-supplied ids are echoed only when they look like an opaque token.
var acceptable = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Middleware assigns a request id to each request, reusing a well-formed inbound one.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(HeaderKey)
		if !acceptable.MatchString(reqID) {
			reqID = uuid.NewString()
		}

		c.Set(contextKey, reqID)
		c.Writer.Header().Set(HeaderKey, reqID)

		c.Next()
	}
}

// Value returns the request id stored in the Gin context.
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
