package service

import (
	"regexp"
	"strings"
)

// LedgerKeyPrefix namespaces student ledgers in the keyed store.
const LedgerKeyPrefix = "student_marks_"

var (
	usnPattern        = regexp.MustCompile(`(?i)^[0-9A-Z]{1,12}$`)
	courseIDSeparator = regexp.MustCompile(`\s+`)
)

// NormalizeUSN uppercases and trims a student identifier. It is idempotent.
func NormalizeUSN(usn string) string {
	return strings.ToUpper(strings.TrimSpace(usn))
}

// IsValidUSN reports whether usn is 1-12 alphanumeric characters.
func IsValidUSN(usn string) bool {
	return usnPattern.MatchString(usn)
}

// LedgerKey returns the store key holding a student's ledger.
func LedgerKey(usn string) string {
	return LedgerKeyPrefix + NormalizeUSN(usn)
}

// CourseID derives the deterministic course slug from subject and semester.
func CourseID(subject, semester string) string {
	return strings.ToLower(courseIDSeparator.ReplaceAllString(subject+"-"+semester, "-"))
}
