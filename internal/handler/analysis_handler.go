package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-marks-api/internal/models"
	"github.com/noah-isme/academic-marks-api/pkg/response"
)

type semesterAnalyzer interface {
	Semesters(ctx context.Context) ([]string, error)
	SemesterAnalysis(ctx context.Context, semester string) (*models.SemesterAnalysis, error)
}

// AnalysisHandler exposes per-semester course analysis.
type AnalysisHandler struct {
	analysis semesterAnalyzer
}

// NewAnalysisHandler constructs the handler.
func NewAnalysisHandler(analysis semesterAnalyzer) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis}
}

// Semesters godoc
// @Summary List semesters with recorded marks
// @Tags Analysis
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analysis/semesters [get]
func (h *AnalysisHandler) Semesters(c *gin.Context) {
	semesters, err := h.analysis.Semesters(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, semesters)
}

// SemesterAnalysis godoc
// @Summary Course analysis for a semester
// @Tags Analysis
// @Produce json
// @Param semester path string true "Semester label"
// @Success 200 {object} response.Envelope
// @Router /analysis/semesters/{semester} [get]
func (h *AnalysisHandler) SemesterAnalysis(c *gin.Context) {
	result, err := h.analysis.SemesterAnalysis(c.Request.Context(), c.Param("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
