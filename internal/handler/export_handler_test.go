package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-marks-api/internal/models"
	"github.com/noah-isme/academic-marks-api/internal/service"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
)

type exporterMock struct {
	result     *service.ExportResult
	download   *service.Download
	err        error
	lastFormat models.ExportFormat
}

func (m *exporterMock) ExportLedger(_ context.Context, _ string, format models.ExportFormat) (*service.ExportResult, error) {
	m.lastFormat = format
	return m.result, m.err
}

func (m *exporterMock) ResolveDownload(string) (*service.Download, error) {
	return m.download, m.err
}

func TestExportHandlerExportLedger(t *testing.T) {
	expires := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock := &exporterMock{result: &service.ExportResult{URL: "/api/v1/export/tok", Format: models.ExportFormatPDF, ExpiresAt: expires}}
	h := NewExportHandler(mock)

	c, w := newGinContext(http.MethodPost, "/api/v1/students/1X21CS001/marks/export", []byte(`{"format":"pdf"}`))
	c.Params = gin.Params{{Key: "usn", Value: "1X21CS001"}}
	h.ExportLedger(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ExportFormatPDF, mock.lastFormat)
	env := decodeEnvelope(t, w.Body.Bytes())
	assert.JSONEq(t, `{"url":"/api/v1/export/tok","format":"pdf","expires_at":"2026-01-02T03:04:05Z"}`, string(env["data"]))
}

func TestExportHandlerRejectsUnknownFormat(t *testing.T) {
	h := NewExportHandler(&exporterMock{})
	c, w := newGinContext(http.MethodPost, "/api/v1/students/1X21CS001/marks/export", []byte(`{"format":"docx"}`))
	h.ExportLedger(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)

	h := NewExportHandler(&exporterMock{download: &service.Download{File: file, Filename: "marks_1X21CS001.csv", ContentType: "text/csv"}})
	c, w := newGinContext(http.MethodGet, "/api/v1/export/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}
	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="marks_1X21CS001.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", w.Body.String())
}

func TestExportHandlerDownloadForbidden(t *testing.T) {
	h := NewExportHandler(&exporterMock{err: appErrors.Clone(appErrors.ErrForbidden, "download link expired")})
	c, w := newGinContext(http.MethodGet, "/api/v1/export/tok", nil)
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
