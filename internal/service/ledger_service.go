package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-marks-api/internal/dto"
	"github.com/noah-isme/academic-marks-api/internal/models"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
)

type writeObserver interface {
	LedgerChanged(ctx context.Context)
}

// LedgerService reads ledgers and handles direct single-mark saves.
type LedgerService struct {
	store     LedgerStore
	policy    GradePolicy
	validator *validator.Validate
	observer  writeObserver
	logger    *zap.Logger
}

// NewLedgerService constructs LedgerService. policy is used for direct saves (GradePolicyA by default).
func NewLedgerService(store LedgerStore, policy *GradePolicy, validate *validator.Validate, logger *zap.Logger) *LedgerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := GradePolicyA
	if policy != nil {
		p = *policy
	}
	return &LedgerService{store: store, policy: p, validator: validate, logger: logger}
}

// SetObserver registers a hook fired after every successful write.
func (s *LedgerService) SetObserver(o writeObserver) {
	s.observer = o
}

// Get returns the student's ledger, optionally filtered by semester label.
func (s *LedgerService) Get(ctx context.Context, usn, semester string) (*dto.LedgerResponse, error) {
	normalized := NormalizeUSN(usn)
	if !IsValidUSN(normalized) {
		return nil, appErrors.ErrInvalidUSN
	}
	ledger, err := loadLedger(ctx, s.store, normalized)
	if err != nil {
		return nil, err
	}
	entries := make([]models.MarkLedgerEntry, 0, len(ledger))
	for _, entry := range ledger {
		if semester != "" && entry.SemesterLabel != semester {
			continue
		}
		entries = append(entries, entry)
	}
	return &dto.LedgerResponse{USN: normalized, Entries: entries}, nil
}

// SaveMark upserts a single entry keyed on (course id, semester) and grades it with the direct-save policy.
func (s *LedgerService) SaveMark(ctx context.Context, req dto.SaveMarkRequest) (*models.MarkLedgerEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mark payload")
	}
	usn := NormalizeUSN(req.USN)
	courseID := req.CourseID
	if courseID == "" {
		courseID = CourseID(req.CourseName, req.Semester)
	}
	total := req.IA1 + req.IA2 + req.ExamMark + req.Assignments
	entry := models.MarkLedgerEntry{
		ID:                uuid.NewString(),
		StudentIdentifier: usn,
		CourseID:          courseID,
		CourseName:        req.CourseName,
		SemesterLabel:     req.Semester,
		IA1:               req.IA1,
		IA2:               req.IA2,
		Assignments:       req.Assignments,
		ExamMark:          req.ExamMark,
		TotalMarks:        total,
		Grade:             s.policy.Grade(total),
	}

	ledger, err := loadLedger(ctx, s.store, usn)
	if err != nil {
		return nil, err
	}
	ledger, stored, updated := ledger.Upsert(models.MergeByCourseID, entry)
	if err := saveLedger(ctx, s.store, usn, ledger); err != nil {
		return nil, err
	}
	if s.observer != nil {
		s.observer.LedgerChanged(ctx)
	}
	s.logger.Sugar().Infow("mark saved", "usn", usn, "course_id", courseID, "semester", req.Semester, "updated", updated, "grade", stored.Grade)
	return &stored, nil
}
