package service

import (
	"context"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-marks-api/internal/models"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
)

const (
	analysisCachePattern   = "analysis:*"
	semestersCacheKey      = "analysis:semesters"
	semesterCacheKeyPrefix = "analysis:semester:"
)

// AnalysisService aggregates ledgers across students for teacher dashboards.
type AnalysisService struct {
	store  LedgerStore
	cache  *CacheService
	logger *zap.Logger
}

// NewAnalysisService constructs AnalysisService. cache may be nil.
func NewAnalysisService(store LedgerStore, cache *CacheService, logger *zap.Logger) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisService{store: store, cache: cache, logger: logger}
}

// LedgerChanged drops cached analysis after any ledger write.
func (s *AnalysisService) LedgerChanged(ctx context.Context) {
	s.cache.Invalidate(ctx, analysisCachePattern)
}

// Semesters lists the distinct semester labels found in any ledger, sorted.
func (s *AnalysisService) Semesters(ctx context.Context) ([]string, error) {
	var cached []string
	if s.cache.Get(ctx, semestersCacheKey, &cached) {
		return cached, nil
	}

	seen := make(map[string]struct{})
	err := s.eachLedger(ctx, func(ledger models.Ledger) {
		for _, entry := range ledger {
			seen[entry.SemesterLabel] = struct{}{}
		}
	})
	if err != nil {
		return nil, err
	}

	semesters := make([]string, 0, len(seen))
	for label := range seen {
		semesters = append(semesters, label)
	}
	sort.Strings(semesters)
	s.cache.Set(ctx, semestersCacheKey, semesters, 0)
	return semesters, nil
}

type courseAccumulator struct {
	analysis models.CourseAnalysis
	sum      float64
}

// SemesterAnalysis summarises every course recorded for semester.
func (s *AnalysisService) SemesterAnalysis(ctx context.Context, semester string) (*models.SemesterAnalysis, error) {
	semester = strings.TrimSpace(semester)
	if semester == "" {
		return nil, appErrors.ErrMissingSemester
	}
	cacheKey := semesterCacheKeyPrefix + semester
	var cached models.SemesterAnalysis
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	courses := make(map[string]*courseAccumulator)
	students := 0
	err := s.eachLedger(ctx, func(ledger models.Ledger) {
		counted := false
		for _, entry := range ledger {
			if entry.SemesterLabel != semester {
				continue
			}
			if !counted {
				students++
				counted = true
			}
			acc, ok := courses[entry.CourseName]
			if !ok {
				acc = &courseAccumulator{analysis: models.CourseAnalysis{
					CourseID:          entry.CourseID,
					CourseName:        entry.CourseName,
					HighestMarks:      entry.TotalMarks,
					LowestMarks:       entry.TotalMarks,
					GradeDistribution: map[string]int{},
				}}
				courses[entry.CourseName] = acc
			}
			acc.sum += entry.TotalMarks
			acc.analysis.StudentCount++
			acc.analysis.HighestMarks = math.Max(acc.analysis.HighestMarks, entry.TotalMarks)
			acc.analysis.LowestMarks = math.Min(acc.analysis.LowestMarks, entry.TotalMarks)
			acc.analysis.GradeDistribution[entry.Grade]++
		}
	})
	if err != nil {
		return nil, err
	}
	if students == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no marks recorded for semester "+semester)
	}

	result := &models.SemesterAnalysis{Semester: semester, StudentCount: students, Courses: make([]models.CourseAnalysis, 0, len(courses))}
	for _, acc := range courses {
		acc.analysis.AverageMarks = roundTo2(acc.sum / float64(acc.analysis.StudentCount))
		result.Courses = append(result.Courses, acc.analysis)
	}
	sort.Slice(result.Courses, func(i, j int) bool { return result.Courses[i].CourseName < result.Courses[j].CourseName })

	s.cache.Set(ctx, cacheKey, result, 0)
	return result, nil
}

func (s *AnalysisService) eachLedger(ctx context.Context, fn func(models.Ledger)) error {
	keys, err := s.store.Keys(ctx, LedgerKeyPrefix)
	if err != nil {
		return storeUnavailable(err, "failed to list ledgers")
	}
	for _, key := range keys {
		ledger, err := loadLedger(ctx, s.store, strings.TrimPrefix(key, LedgerKeyPrefix))
		if err != nil {
			return err
		}
		fn(ledger)
	}
	s.logger.Sugar().Debugw("ledgers scanned", "count", len(keys))
	return nil
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
