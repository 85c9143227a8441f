package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ImportStatus captures background import lifecycle states.
type ImportStatus string

const (
	ImportStatusQueued     ImportStatus = "QUEUED"
	ImportStatusProcessing ImportStatus = "PROCESSING"
	ImportStatusFinished   ImportStatus = "FINISHED"
	ImportStatusFailed     ImportStatus = "FAILED"
)

// ImportJob tracks an asynchronous spreadsheet import.
type ImportJob struct {
	ID               string         `db:"id" json:"id"`
	Filename         string         `db:"filename" json:"filename"`
	StoredPath       string         `db:"stored_path" json:"-"`
	SemesterOverride string         `db:"semester_override" json:"semester_override,omitempty"`
	Status           ImportStatus   `db:"status" json:"status"`
	Summary          *ImportSummary `db:"summary" json:"summary,omitempty"`
	ErrorMessage     *string        `db:"error_message" json:"error,omitempty"`
	CreatedBy        string         `db:"created_by" json:"created_by"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	FinishedAt       *time.Time     `db:"finished_at" json:"finished_at,omitempty"`
}

// Value marshals the summary to JSON for persistence.
func (s ImportSummary) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal import summary: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON column into the summary.
func (s *ImportSummary) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*s = ImportSummary{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ImportSummary", value)
	}
	if len(data) == 0 {
		*s = ImportSummary{}
		return nil
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("unmarshal import summary: %w", err)
	}
	return nil
}
