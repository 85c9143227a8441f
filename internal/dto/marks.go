package dto

import "github.com/noah-isme/academic-marks-api/internal/models"

// SaveMarkRequest captures POST /marks, the single-entry edit path.
type SaveMarkRequest struct {
	USN         string  `json:"usn" validate:"required,alphanum,max=12"`
	CourseName  string  `json:"course_name" validate:"required,max=120"`
	CourseID    string  `json:"course_id" validate:"omitempty,max=160"`
	Semester    string  `json:"semester_name" validate:"required,max=40"`
	IA1         float64 `json:"ia1" validate:"gte=0"`
	IA2         float64 `json:"ia2" validate:"gte=0"`
	ExamMark    float64 `json:"exam_mark" validate:"gte=0"`
	Assignments float64 `json:"assignments" validate:"gte=0"`
}

// LedgerResponse is returned by GET /students/:usn/marks.
type LedgerResponse struct {
	USN     string                   `json:"usn"`
	Entries []models.MarkLedgerEntry `json:"entries"`
}

// ImportAcceptedResponse is returned when an upload is queued.
type ImportAcceptedResponse struct {
	ID     string              `json:"id"`
	Status models.ImportStatus `json:"status"`
}

// ExportRequest captures POST /students/:usn/marks/export.
type ExportRequest struct {
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf xlsx"`
}

// ExportResponse carries the signed download link.
type ExportResponse struct {
	URL       string              `json:"url"`
	Format    models.ExportFormat `json:"format"`
	ExpiresAt string              `json:"expires_at"`
}
