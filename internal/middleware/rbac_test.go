package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/academic-marks-api/internal/models"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
)

type staticValidator struct {
	claims *models.JWTClaims
}

func (v staticValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

func newProtectedRouter(claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/students/:usn/marks", JWT(staticValidator{claims: claims}), RBAC(string(models.RoleTeacher), string(models.RoleAdmin), RoleSelf), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/analysis/semesters", JWT(staticValidator{claims: claims}), RequireRoles(models.RoleTeacher, models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func serve(r *gin.Engine, path, auth string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestJWTRejectsMissingOrBadTokens(t *testing.T) {
	r := newProtectedRouter(&models.JWTClaims{Role: models.RoleTeacher})
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/analysis/semesters", ""))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/analysis/semesters", "Basic abc"))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/analysis/semesters", "Bearer bad"))
	assert.Equal(t, http.StatusOK, serve(r, "/analysis/semesters", "bearer good"))
}

func TestRBACSelfAccess(t *testing.T) {
	student := newProtectedRouter(&models.JWTClaims{UserID: "u-1", Role: models.RoleStudent, USN: "1X21CS001"})
	assert.Equal(t, http.StatusOK, serve(student, "/students/1x21cs001/marks", "Bearer good"))
	assert.Equal(t, http.StatusForbidden, serve(student, "/students/1X21CS002/marks", "Bearer good"))
	assert.Equal(t, http.StatusForbidden, serve(student, "/analysis/semesters", "Bearer good"))

	teacher := newProtectedRouter(&models.JWTClaims{UserID: "t-1", Role: models.RoleTeacher})
	assert.Equal(t, http.StatusOK, serve(teacher, "/students/1X21CS002/marks", "Bearer good"))
}

func TestRBACWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RBAC(string(models.RoleAdmin)), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/x", ""))
}
