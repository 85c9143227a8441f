package models

// ExportFormat enumerates supported ledger export formats.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// Valid reports whether the format is supported.
func (f ExportFormat) Valid() bool {
	switch f {
	case ExportFormatCSV, ExportFormatPDF, ExportFormatXLSX:
		return true
	}
	return false
}
