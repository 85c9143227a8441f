package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-marks-api/internal/dto"
	"github.com/noah-isme/academic-marks-api/internal/models"
	"github.com/noah-isme/academic-marks-api/internal/service"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
	"github.com/noah-isme/academic-marks-api/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var allowedUploadExtensions = map[string]struct{}{
	".xlsx": {}, ".xlsm": {}, ".xls": {}, ".csv": {}, "": {},
}

type marksImporter interface {
	Import(ctx context.Context, req service.ImportRequest) (*models.ImportSummary, error)
	Submit(ctx context.Context, req service.ImportRequest) (*models.ImportJob, error)
	Status(ctx context.Context, id, actorID string, role models.UserRole) (*models.ImportJob, error)
	AsyncEnabled() bool
}

type ledgerManager interface {
	Get(ctx context.Context, usn, semester string) (*dto.LedgerResponse, error)
	SaveMark(ctx context.Context, req dto.SaveMarkRequest) (*models.MarkLedgerEntry, error)
}

type templateProvider interface {
	Template(semester, subject string) ([]byte, string, error)
}

// MarksHandler exposes the upload, ledger and template endpoints.
type MarksHandler struct {
	imports   marksImporter
	ledgers   ledgerManager
	templates templateProvider
	maxUpload int64
}

// NewMarksHandler constructs the handler. maxUpload caps the multipart file size in bytes.
func NewMarksHandler(imports marksImporter, ledgers ledgerManager, templates templateProvider, maxUpload int64) *MarksHandler {
	if maxUpload <= 0 {
		maxUpload = 5 << 20
	}
	return &MarksHandler{imports: imports, ledgers: ledgers, templates: templates, maxUpload: maxUpload}
}

// Upload godoc
// @Summary Upload a marks spreadsheet
// @Tags Marks
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx, xls or csv workbook"
// @Param semester formData string false "Semester override"
// @Param async formData bool false "Queue the import"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /marks/upload [post]
func (h *MarksHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+(1<<20))
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.ErrPayloadTooLarge)
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "no file uploaded"))
		return
	}
	if fileHeader.Size > h.maxUpload {
		response.Error(c, appErrors.ErrPayloadTooLarge)
		return
	}
	if _, ok := allowedUploadExtensions[strings.ToLower(filepath.Ext(fileHeader.Filename))]; !ok {
		response.Error(c, appErrors.ErrUnsupportedFormat)
		return
	}
	data, err := readUpload(fileHeader)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload"))
		return
	}

	actorID, _ := actorFromContext(c)
	req := service.ImportRequest{
		Filename:         fileHeader.Filename,
		Data:             data,
		SemesterOverride: c.PostForm("semester"),
		RequestedBy:      actorID,
	}

	async, _ := strconv.ParseBool(c.DefaultPostForm("async", "false"))
	if async && h.imports.AsyncEnabled() {
		job, err := h.imports.Submit(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, dto.ImportAcceptedResponse{ID: job.ID, Status: job.Status})
		return
	}

	summary, err := h.imports.Import(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary, map[string]interface{}{
		"message": fmt.Sprintf("Successfully updated marks for %d students", summary.StudentsAffected),
	})
}

// ImportStatus godoc
// @Summary Asynchronous import status
// @Tags Marks
// @Produce json
// @Param id path string true "Import job ID"
// @Success 200 {object} response.Envelope
// @Router /marks/imports/{id} [get]
func (h *MarksHandler) ImportStatus(c *gin.Context) {
	actorID, role := actorFromContext(c)
	job, err := h.imports.Status(c.Request.Context(), c.Param("id"), actorID, role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, job)
}

// Template godoc
// @Summary Download a blank upload template
// @Tags Marks
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param semester query string false "Semester written to A1"
// @Param subject query string false "Subject written to B1"
// @Success 200 {file} file
// @Router /marks/template [get]
func (h *MarksHandler) Template(c *gin.Context) {
	data, filename, err := h.templates.Template(c.Query("semester"), c.Query("subject"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// SaveMark godoc
// @Summary Save a single mark entry
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body dto.SaveMarkRequest true "Mark entry"
// @Success 200 {object} response.Envelope
// @Router /marks [post]
func (h *MarksHandler) SaveMark(c *gin.Context) {
	var req dto.SaveMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mark payload"))
		return
	}
	entry, err := h.ledgers.SaveMark(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entry)
}

// StudentMarks godoc
// @Summary Student marks ledger
// @Tags Marks
// @Produce json
// @Param usn path string true "Student USN"
// @Param semester query string false "Semester filter"
// @Success 200 {object} response.Envelope
// @Router /students/{usn}/marks [get]
func (h *MarksHandler) StudentMarks(c *gin.Context) {
	ledger, err := h.ledgers.Get(c.Request.Context(), c.Param("usn"), c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, ledger)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return io.ReadAll(f)
}
