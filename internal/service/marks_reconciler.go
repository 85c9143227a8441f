package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-marks-api/internal/models"
)

const unknownSubject = "Unknown Subject"

// ReconcilerOption customises a MarksReconciler.
type ReconcilerOption func(*MarksReconciler)

// WithGradePolicy overrides the upload grade policy (GradePolicyB by default).
func WithGradePolicy(policy GradePolicy) ReconcilerOption {
	return func(r *MarksReconciler) { r.policy = policy }
}

// WithMergeKey overrides how incoming rows are matched to existing entries.
// The default is models.MergeByCourseName.
func WithMergeKey(key models.MergeKey) ReconcilerOption {
	return func(r *MarksReconciler) { r.mergeKey = key }
}

// WithIDGenerator replaces the entry id generator.
func WithIDGenerator(fn func() string) ReconcilerOption {
	return func(r *MarksReconciler) { r.newID = fn }
}

// MarksReconciler merges parsed rows into per-student ledgers.
//
// Every row is a read-modify-write of the whole student ledger. There is no batch
// atomicity: when the store fails mid-batch, ledgers written before the failure
// keep their new contents.
type MarksReconciler struct {
	store    LedgerStore
	policy   GradePolicy
	mergeKey models.MergeKey
	newID    func() string
	logger   *zap.Logger
}

// NewMarksReconciler constructs a reconciler over store.
func NewMarksReconciler(store LedgerStore, logger *zap.Logger, opts ...ReconcilerOption) *MarksReconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &MarksReconciler{
		store:    store,
		policy:   GradePolicyB,
		mergeKey: models.MergeByCourseName,
		newID:    uuid.NewString,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy exposes the grade policy in effect.
func (r *MarksReconciler) Policy() GradePolicy {
	return r.policy
}

// EntryFromRow derives the ledger entry for a parsed row without an id.
func (r *MarksReconciler) EntryFromRow(row models.ParsedMarkRow) models.MarkLedgerEntry {
	courseName := row.Subject
	if courseName == "" {
		courseName = unknownSubject
	}
	total := row.IA1 + row.IA2 + row.AssignmentTotal + row.FinalMark
	return models.MarkLedgerEntry{
		StudentIdentifier: NormalizeUSN(row.StudentIdentifier),
		CourseID:          CourseID(row.Subject, row.Semester),
		CourseName:        courseName,
		SemesterLabel:     row.Semester,
		IA1:               row.IA1,
		IA2:               row.IA2,
		Assignments:       row.AssignmentTotal,
		ExamMark:          row.FinalMark,
		TotalMarks:        total,
		Grade:             r.policy.Grade(total),
	}
}

// Reconcile applies rows in order. On a store failure it returns the partial result
// alongside an ErrStoreUnavailable error.
func (r *MarksReconciler) Reconcile(ctx context.Context, rows []models.ParsedMarkRow) (*models.ReconcileResult, error) {
	result := &models.ReconcileResult{Students: []string{}}
	written := make(map[string]struct{})

	for _, row := range rows {
		usn := NormalizeUSN(row.StudentIdentifier)
		updated, err := r.apply(ctx, usn, r.EntryFromRow(row))
		if err != nil {
			result.StudentsAffected = len(written)
			r.logger.Sugar().Errorw("reconciliation aborted", "usn", usn, "rows_written", result.RowsWritten, "error", err)
			return result, err
		}
		if _, ok := written[usn]; !ok {
			written[usn] = struct{}{}
			result.Students = append(result.Students, usn)
		}
		result.RowsWritten++
		if updated {
			result.EntriesUpdated++
		} else {
			result.EntriesCreated++
		}
	}

	result.StudentsAffected = len(written)
	r.logger.Sugar().Infow("marks reconciled", "students", result.StudentsAffected, "rows", result.RowsWritten, "created", result.EntriesCreated, "updated", result.EntriesUpdated, "policy", r.policy.Name)
	return result, nil
}

func (r *MarksReconciler) apply(ctx context.Context, usn string, entry models.MarkLedgerEntry) (bool, error) {
	ledger, err := loadLedger(ctx, r.store, usn)
	if err != nil {
		return false, err
	}
	entry.ID = r.newID()
	ledger, _, updated := ledger.Upsert(r.mergeKey, entry)
	if err := saveLedger(ctx, r.store, usn, ledger); err != nil {
		return false, err
	}
	return updated, nil
}
