package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders tables as comma separated values with a header line.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// ContentType implements Renderer.
func (e *CSVExporter) ContentType() string { return "text/csv" }

// Extension implements Renderer.
func (e *CSVExporter) Extension() string { return "csv" }

// Render implements Renderer. The title is not written.
func (e *CSVExporter) Render(table Table) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(table.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range table.Rows {
		record := make([]string, len(table.Headers))
		for i := range table.Headers {
			record[i] = table.cell(row, i)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
