package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-marks-api/internal/models"
)

// Audit writes one structured audit record per successful mutating request.
// The resource id is taken from the :usn or :id route parameter when present.
func Audit(logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	audit := logger.Named("audit")
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("resource", resource),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.GetHeader("User-Agent")),
		}
		if claims, ok := c.Get(ContextUserKey); ok {
			if user, ok := claims.(*models.JWTClaims); ok {
				fields = append(fields, zap.String("user_id", user.UserID), zap.String("role", string(user.Role)))
			}
		}
		if id := c.Param("usn"); id != "" {
			fields = append(fields, zap.String("resource_id", id))
		} else if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("resource_id", id))
		}
		audit.Info("audit", fields...)
	}
}
