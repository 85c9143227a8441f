package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-marks-api/internal/middleware"
	"github.com/noah-isme/academic-marks-api/internal/models"
)

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func newMultipartContext(t *testing.T, filename string, content []byte, fields map[string]string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	c, w := newGinContext(http.MethodPost, "/api/v1/marks/upload", body.Bytes())
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	return c, w
}

func withClaims(c *gin.Context, role models.UserRole, userID string) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, Role: role})
}
