package service

import (
	"errors"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-marks-api/internal/models"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
	"github.com/noah-isme/academic-marks-api/pkg/sheet"
)

// Fixed layout of an upload: metadata in row 1, column headers in row 2, data from row 3.
const (
	semesterRow, semesterCol = 0, 0
	subjectRow, subjectCol   = 0, 1
	dataStartRow             = 2
)

// Column positions of a data row.
const (
	colSerial = iota
	colUSN
	colName
	colIA1
	colIA2
	colInternalTotal
	colAssignment1
	colAssignment2
	colAssignmentTotal
	colFinalMark
)

// TemplateHeaders are written to row 2 of generated upload templates, in column order.
var TemplateHeaders = []string{
	"S.No", "USN", "Name", "IA1", "IA2", "Internal Total",
	"Assignment 1", "Assignment 2", "Assignment Total", "Final Mark",
}

type gridReader func(filename string, data []byte) (sheet.Grid, error)

// SheetParser turns uploaded spreadsheets into mark rows.
type SheetParser struct {
	read   gridReader
	logger *zap.Logger
}

// NewSheetParser constructs a SheetParser.
func NewSheetParser(logger *zap.Logger) *SheetParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetParser{read: sheet.ReadFirstSheet, logger: logger}
}

// Parse reads the first sheet of the file. A missing semester label fails the whole parse;
// rows without an identifier or name, or with a malformed identifier, are skipped.
func (p *SheetParser) Parse(filename string, data []byte) (*models.ParsedSheet, error) {
	grid, err := p.read(filename, data)
	if err != nil {
		if errors.Is(err, sheet.ErrUnsupportedFormat) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedFormat.Code, appErrors.ErrUnsupportedFormat.Status, appErrors.ErrUnsupportedFormat.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedSheet.Code, appErrors.ErrMalformedSheet.Status, appErrors.ErrMalformedSheet.Message)
	}

	meta := models.SheetMetadata{
		Semester: grid.Cell(semesterRow, semesterCol),
		Subject:  grid.Cell(subjectRow, subjectCol),
	}
	if meta.Semester == "" {
		return nil, appErrors.ErrMissingSemester
	}

	rows := make([]models.ParsedMarkRow, 0, max(grid.Rows()-dataStartRow, 0))
	skipped := 0
	for r := dataStartRow; r < grid.Rows(); r++ {
		row, ok := parseRow(grid, r, meta)
		if !ok {
			if !blankRow(grid, r) {
				skipped++
			}
			continue
		}
		rows = append(rows, row)
	}

	p.logger.Sugar().Debugw("sheet parsed", "file", filename, "semester", meta.Semester, "subject", meta.Subject, "rows", len(rows), "skipped", skipped)
	return &models.ParsedSheet{Metadata: meta, Rows: rows}, nil
}

func parseRow(grid sheet.Grid, r int, meta models.SheetMetadata) (models.ParsedMarkRow, bool) {
	rawUSN := grid.Cell(r, colUSN)
	name := grid.Cell(r, colName)
	if rawUSN == "" || name == "" {
		return models.ParsedMarkRow{}, false
	}
	usn := NormalizeUSN(rawUSN)
	if !IsValidUSN(usn) {
		return models.ParsedMarkRow{}, false
	}
	return models.ParsedMarkRow{
		StudentIdentifier: usn,
		StudentName:       name,
		IA1:               numericCell(grid, r, colIA1),
		IA2:               numericCell(grid, r, colIA2),
		InternalTotal:     numericCell(grid, r, colInternalTotal),
		Assignment1:       numericCell(grid, r, colAssignment1),
		Assignment2:       numericCell(grid, r, colAssignment2),
		AssignmentTotal:   numericCell(grid, r, colAssignmentTotal),
		FinalMark:         numericCell(grid, r, colFinalMark),
		Subject:           meta.Subject,
		Semester:          meta.Semester,
	}, true
}

// numericCell parses a cell as a number; blank, non-numeric and non-finite values become 0.
func numericCell(grid sheet.Grid, r, c int) float64 {
	raw := grid.Cell(r, c)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func blankRow(grid sheet.Grid, r int) bool {
	for c := colSerial; c <= colFinalMark; c++ {
		if grid.Cell(r, c) != "" {
			return false
		}
	}
	return true
}
