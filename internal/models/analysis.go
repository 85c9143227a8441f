package models

// CourseAnalysis summarises one course within a semester across all ledgers.
type CourseAnalysis struct {
	CourseID          string         `json:"course_id"`
	CourseName        string         `json:"course_name"`
	StudentCount      int            `json:"student_count"`
	AverageMarks      float64        `json:"average_marks"`
	HighestMarks      float64        `json:"highest_marks"`
	LowestMarks       float64        `json:"lowest_marks"`
	GradeDistribution map[string]int `json:"grade_distribution"`
}

// SemesterAnalysis aggregates course analysis for one semester label.
type SemesterAnalysis struct {
	Semester     string           `json:"semester"`
	StudentCount int              `json:"student_count"`
	Courses      []CourseAnalysis `json:"courses"`
}
