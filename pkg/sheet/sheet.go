// Package sheet reads the first worksheet of an uploaded spreadsheet into a string grid.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

// Format identifies a supported spreadsheet encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

// ErrUnsupportedFormat is returned when neither the filename nor the content identify a known format.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

const utf8BOM = "\ufeff"

// Grid holds cell text by zero-based row and column. Rows may be ragged.
type Grid [][]string

// Cell returns the trimmed text at (row, col), or "" when out of range.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return strings.TrimSpace(g[row][col])
}

// Rows returns the number of rows in the grid.
func (g Grid) Rows() int {
	return len(g)
}

// DetectFormat picks the format from the filename extension, falling back to content sniffing.
func DetectFormat(filename string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case ".csv":
		return FormatCSV, nil
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return FormatXLSX, nil
	case mt.Is("application/vnd.ms-excel"), mt.Is("application/x-ole-storage"):
		return FormatXLS, nil
	case mt.Is("text/csv"):
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mt.String())
}

// ReadFirstSheet decodes data and returns the first worksheet as a grid.
func ReadFirstSheet(filename string, data []byte) (Grid, error) {
	format, err := DetectFormat(filename, data)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatXLSX:
		return readXLSX(data)
	case FormatXLS:
		return readXLS(data)
	default:
		return readCSV(data)
	}
}

func readXLSX(data []byte) (Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Grid{}, nil
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read xlsx sheet %s: %w", sheets[0], err)
	}
	return Grid(rows), nil
}

func readXLS(data []byte) (Grid, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if wb.NumSheets() == 0 {
		return Grid{}, nil
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return Grid{}, nil
	}

	grid := make(Grid, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for col := range cells {
			cells[col] = row.Col(col)
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

func readCSV(data []byte) (Grid, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte(utf8BOM))))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var grid Grid
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		grid = append(grid, record)
	}
	return grid, nil
}

// Template builds a single-sheet workbook with the metadata cells in row 1 and column headers in row 2.
func Template(semester, subject string, headers []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	name := f.GetSheetName(0)
	if err := f.SetCellValue(name, "A1", semester); err != nil {
		return nil, fmt.Errorf("write semester cell: %w", err)
	}
	if err := f.SetCellValue(name, "B1", subject); err != nil {
		return nil, fmt.Errorf("write subject cell: %w", err)
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(name, cell, header); err != nil {
			return nil, fmt.Errorf("write header %s: %w", header, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	return buf.Bytes(), nil
}
