package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowHeaders  = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
	allowMethods  = "GET, POST, OPTIONS"
	exposeHeaders = "Content-Disposition, X-Request-ID"
)

// New returns a CORS middleware. An empty allow-list admits every origin.
func New(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(origin, "/")
		if origin == "*" {
			allowAll = true
			continue
		}
		origins[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		header := c.Writer.Header()
		origin := c.GetHeader("Origin")
		switch {
		case origin != "" && (allowAll || allowed(origins, origin)):
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
		case origin == "" && allowAll:
			header.Set("Access-Control-Allow-Origin", "*")
		}

		header.Add("Vary", "Origin")
		header.Set("Access-Control-Allow-Headers", allowHeaders)
		header.Set("Access-Control-Allow-Methods", allowMethods)
		header.Set("Access-Control-Expose-Headers", exposeHeaders)
		header.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func allowed(origins map[string]struct{}, origin string) bool {
	_, ok := origins[strings.TrimRight(origin, "/")]
	return ok
}
