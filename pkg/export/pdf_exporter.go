package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const pdfUsableWidth = 277.0

// PDFExporter renders tables on landscape A4 pages.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ContentType implements Renderer.
func (e *PDFExporter) ContentType() string { return "application/pdf" }

// Extension implements Renderer.
func (e *PDFExporter) Extension() string { return "pdf" }

// Render implements Renderer. Numeric cells are right aligned.
func (e *PDFExporter) Render(table Table) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	if table.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, table.Title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	colWidth := pdfUsableWidth / float64(len(table.Headers))
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, header := range table.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range table.Rows {
		for i := range table.Headers {
			value := table.cell(row, i)
			align := "L"
			if isNumeric(value) {
				align = "R"
			}
			pdf.CellFormat(colWidth, 7, value, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
