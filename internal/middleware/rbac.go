package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-marks-api/internal/models"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
	"github.com/noah-isme/academic-marks-api/pkg/response"
)

// RoleSelf grants access when the :usn route parameter names the caller's own ledger.
const RoleSelf = "SELF"

// RBAC enforces role-based access control. Must run after JWT.
func RBAC(allowed ...string) gin.HandlerFunc {
	allowSelf := false
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, a := range allowed {
		if a == RoleSelf {
			allowSelf = true
			continue
		}
		allowedRoles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		claims, ok := claimsValue.(*models.JWTClaims)
		if !exists || !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		if allowSelf && claims.USN != "" {
			target := strings.ToUpper(strings.TrimSpace(c.Param("usn")))
			if target != "" && target == claims.USN {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is RBAC for typed roles without the SELF grant.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}
