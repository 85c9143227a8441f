package service

import (
	"fmt"
	"strings"
)

// GradeThreshold maps a minimum total to a letter grade.
type GradeThreshold struct {
	Min   float64
	Grade string
}

// GradePolicy converts a total into a letter grade using descending thresholds.
type GradePolicy struct {
	Name       string
	Thresholds []GradeThreshold
	Fallback   string
}

// Two threshold tables are in use. GradePolicyA applies to direct mark saves where
// totals run up to roughly 150-200; GradePolicyB applies to spreadsheet uploads.
var (
	GradePolicyA = GradePolicy{
		Name: "A",
		Thresholds: []GradeThreshold{
			{Min: 140, Grade: "A+"},
			{Min: 120, Grade: "A"},
			{Min: 100, Grade: "B+"},
			{Min: 80, Grade: "B"},
			{Min: 60, Grade: "C"},
			{Min: 40, Grade: "D"},
		},
		Fallback: "F",
	}
	GradePolicyB = GradePolicy{
		Name: "B",
		Thresholds: []GradeThreshold{
			{Min: 90, Grade: "A+"},
			{Min: 80, Grade: "A"},
			{Min: 70, Grade: "B+"},
			{Min: 60, Grade: "B"},
			{Min: 50, Grade: "C"},
			{Min: 40, Grade: "D"},
		},
		Fallback: "F",
	}
)

// Grade returns the letter grade for total.
func (p GradePolicy) Grade(total float64) string {
	for _, t := range p.Thresholds {
		if total >= t.Min {
			return t.Grade
		}
	}
	return p.Fallback
}

// GradePolicyByName resolves "A" or "B" (case-insensitive).
func GradePolicyByName(name string) (GradePolicy, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "A":
		return GradePolicyA, nil
	case "B":
		return GradePolicyB, nil
	}
	return GradePolicy{}, fmt.Errorf("unknown grade policy %q", name)
}
