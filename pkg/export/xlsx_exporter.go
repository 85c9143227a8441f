package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Marks"

// XLSXExporter renders tables into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// ContentType implements Renderer.
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension implements Renderer.
func (e *XLSXExporter) Extension() string { return "xlsx" }

// Render implements Renderer. A non-empty title occupies the first row; numeric cells are written as numbers.
func (e *XLSXExporter) Render(table Table) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	row := 1
	if table.Title != "" {
		if err := f.SetCellValue(xlsxSheet, "A1", table.Title); err != nil {
			return nil, fmt.Errorf("write title: %w", err)
		}
		row = 2
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	headerCell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(xlsxSheet, headerCell, &table.Headers); err != nil {
		return nil, fmt.Errorf("write headers: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(table.Headers), row)
	if err := f.SetCellStyle(xlsxSheet, headerCell, lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("style headers: %w", err)
	}

	for _, values := range table.Rows {
		row++
		record := make([]interface{}, len(table.Headers))
		for i := range table.Headers {
			v := table.cell(values, i)
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				record[i] = n
			} else {
				record[i] = v
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(xlsxSheet, cell, &record); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
