package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/academic-marks-api/pkg/config"
)

func TestNewHonoursLevel(t *testing.T) {
	cfg := &config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "warn", Format: "console"}}
	l, err := New(cfg)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestGinMiddlewareLogsErrorsAtWarn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("store down"))
		c.Status(http.StatusServiceUnavailable)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "/fail", entries[1].ContextMap()["path"])
}
