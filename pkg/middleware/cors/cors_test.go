package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func serve(t *testing.T, origins []string, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.Any("/marks", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(method, "/marks", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSAllowListedOrigin(t *testing.T) {
	w := serve(t, []string{"https://portal.example.edu/"}, http.MethodGet, "https://portal.example.edu")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://portal.example.edu", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	w := serve(t, []string{"https://portal.example.edu"}, http.MethodGet, "https://evil.example.com")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	w := serve(t, nil, http.MethodOptions, "https://any.example.com")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://any.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
