package export

import (
	"errors"
	"strconv"
)

// ErrNoColumns is returned when a table has no headers.
var ErrNoColumns = errors.New("export requires at least one column")

// Table is the tabular content of an export. Each row holds one value per header.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

func (t Table) validate() error {
	if len(t.Headers) == 0 {
		return ErrNoColumns
	}
	return nil
}

func (t Table) cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

// Renderer turns a Table into file bytes.
type Renderer interface {
	Render(Table) ([]byte, error)
	ContentType() string
	Extension() string
}

func isNumeric(v string) bool {
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}
