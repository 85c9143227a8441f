package models

// SheetMetadata carries the values read from the fixed header cells of an upload.
type SheetMetadata struct {
	Subject  string `json:"subject"`
	Semester string `json:"semester"`
}

// ParsedMarkRow is one student's marks for one subject/semester as read from a spreadsheet.
type ParsedMarkRow struct {
	StudentIdentifier string  `json:"usn"`
	StudentName       string  `json:"name"`
	IA1               float64 `json:"ia1"`
	IA2               float64 `json:"ia2"`
	InternalTotal     float64 `json:"internal_total"`
	Assignment1       float64 `json:"assignment1"`
	Assignment2       float64 `json:"assignment2"`
	AssignmentTotal   float64 `json:"assignment_total"`
	FinalMark         float64 `json:"final_mark"`
	Subject           string  `json:"subject"`
	Semester          string  `json:"semester"`
}

// ParsedSheet is the output of a single parse.
type ParsedSheet struct {
	Metadata SheetMetadata   `json:"metadata"`
	Rows     []ParsedMarkRow `json:"rows"`
}

// MarkLedgerEntry is a persisted record of one student's performance in one course for one semester.
type MarkLedgerEntry struct {
	ID                string  `json:"id"`
	StudentIdentifier string  `json:"usn"`
	CourseID          string  `json:"course_id"`
	CourseName        string  `json:"course_name"`
	SemesterLabel     string  `json:"semester_name"`
	IA1               float64 `json:"ia1"`
	IA2               float64 `json:"ia2"`
	Assignments       float64 `json:"assignments"`
	ExamMark          float64 `json:"exam_mark"`
	TotalMarks        float64 `json:"total_marks"`
	Grade             string  `json:"grade"`
}

// Ledger is the ordered collection of a student's mark entries.
type Ledger []MarkLedgerEntry

// MergeKey selects how an incoming entry is matched against an existing ledger entry.
type MergeKey string

const (
	// MergeByCourseName matches on course name + semester label.
	MergeByCourseName MergeKey = "course_name"
	// MergeByCourseID matches on the derived course id + semester label.
	MergeByCourseID MergeKey = "course_id"
)

// Matches reports whether two entries address the same (course, semester) slot under the key.
func (k MergeKey) Matches(existing, incoming MarkLedgerEntry) bool {
	if existing.SemesterLabel != incoming.SemesterLabel {
		return false
	}
	if k == MergeByCourseID {
		return existing.CourseID == incoming.CourseID
	}
	return existing.CourseName == incoming.CourseName
}

// Upsert overwrites the matching entry in place, keeping its id, or appends incoming.
// It returns the stored entry and whether an existing one was replaced.
func (l Ledger) Upsert(key MergeKey, incoming MarkLedgerEntry) (Ledger, MarkLedgerEntry, bool) {
	for i := range l {
		if key.Matches(l[i], incoming) {
			incoming.ID = l[i].ID
			l[i] = incoming
			return l, incoming, true
		}
	}
	return append(l, incoming), incoming, false
}

// ReconcileResult reports the effect of one reconciliation batch.
type ReconcileResult struct {
	StudentsAffected int      `json:"students_affected"`
	RowsWritten      int      `json:"rows_written"`
	EntriesCreated   int      `json:"entries_created"`
	EntriesUpdated   int      `json:"entries_updated"`
	Students         []string `json:"students"`
}

// ImportSummary is returned to the uploader after a synchronous import.
type ImportSummary struct {
	Subject          string `json:"subject"`
	Semester         string `json:"semester"`
	RowsParsed       int    `json:"rows_parsed"`
	StudentsAffected int    `json:"students_affected"`
	RowsWritten      int    `json:"rows_written"`
	EntriesCreated   int    `json:"entries_created"`
	EntriesUpdated   int    `json:"entries_updated"`
}
