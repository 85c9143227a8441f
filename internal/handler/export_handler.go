package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-marks-api/internal/dto"
	"github.com/noah-isme/academic-marks-api/internal/models"
	"github.com/noah-isme/academic-marks-api/internal/service"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
	"github.com/noah-isme/academic-marks-api/pkg/response"
)

type ledgerExporter interface {
	ExportLedger(ctx context.Context, usn string, format models.ExportFormat) (*service.ExportResult, error)
	ResolveDownload(token string) (*service.Download, error)
}

// ExportHandler exposes ledger export and signed download endpoints.
type ExportHandler struct {
	exports ledgerExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports ledgerExporter) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// ExportLedger godoc
// @Summary Export a student ledger
// @Tags Exports
// @Accept json
// @Produce json
// @Param usn path string true "Student USN"
// @Param payload body dto.ExportRequest true "Export format"
// @Success 200 {object} response.Envelope
// @Router /students/{usn}/marks/export [post]
func (h *ExportHandler) ExportLedger(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Format.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be one of csv, pdf, xlsx"))
		return
	}
	result, err := h.exports.ExportLedger(c.Request.Context(), c.Param("usn"), req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ExportResponse{
		URL:       result.URL,
		Format:    result.Format,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Download godoc
// @Summary Download a signed export
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.exports.ResolveDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export"))
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), download.ContentType, download.File, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
	})
}
