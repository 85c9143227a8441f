package service

import (
	"fmt"
	"strings"

	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
	"github.com/noah-isme/academic-marks-api/pkg/sheet"
)

// TemplateService produces blank upload workbooks in the layout SheetParser expects.
type TemplateService struct{}

// NewTemplateService constructs a TemplateService.
func NewTemplateService() *TemplateService {
	return &TemplateService{}
}

// Template returns the workbook bytes and a suggested download filename.
// semester and subject may be blank; the uploader then fills A1 and B1.
func (s *TemplateService) Template(semester, subject string) ([]byte, string, error) {
	semester = strings.TrimSpace(semester)
	subject = strings.TrimSpace(subject)
	data, err := sheet.Template(semester, subject, TemplateHeaders)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build template")
	}
	name := "marks_template.xlsx"
	if subject != "" || semester != "" {
		name = fmt.Sprintf("marks_template_%s.xlsx", CourseID(subject, semester))
	}
	return data, name, nil
}
