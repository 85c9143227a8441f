package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-marks-api/internal/models"
	"github.com/noah-isme/academic-marks-api/internal/repository"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
	"github.com/noah-isme/academic-marks-api/pkg/jobs"
)

// ImportJobType labels queue jobs carrying spreadsheet imports.
const ImportJobType = "marks_import"

type sheetParser interface {
	Parse(filename string, data []byte) (*models.ParsedSheet, error)
}

type marksReconciler interface {
	Reconcile(ctx context.Context, rows []models.ParsedMarkRow) (*models.ReconcileResult, error)
}

type importJobStore interface {
	Create(ctx context.Context, job *models.ImportJob) error
	GetByID(ctx context.Context, id string) (*models.ImportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateImportJobParams) error
	ListPending(ctx context.Context, limit int) ([]models.ImportJob, error)
}

type uploadStorage interface {
	Save(relPath string, data []byte) (string, error)
	Read(relPath string) ([]byte, error)
	Delete(relPath string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ImportRequest is one uploaded spreadsheet.
type ImportRequest struct {
	Filename         string `validate:"required,max=255"`
	Data             []byte `validate:"required"`
	SemesterOverride string `validate:"omitempty,max=40"`
	RequestedBy      string
}

// MarksImportService orchestrates parse, reconcile and the side effects of an upload.
type MarksImportService struct {
	parser     sheetParser
	reconciler marksReconciler
	jobs       importJobStore
	uploads    uploadStorage
	queue      jobDispatcher
	observer   writeObserver
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewMarksImportService constructs the service. jobs, uploads and queue are only needed for Submit.
func NewMarksImportService(parser sheetParser, reconciler marksReconciler, jobStore importJobStore, uploads uploadStorage, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *MarksImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarksImportService{
		parser:     parser,
		reconciler: reconciler,
		jobs:       jobStore,
		uploads:    uploads,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// SetQueue wires the dispatcher used by Submit. The queue handler usually calls back into this service.
func (s *MarksImportService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// SetObserver registers a hook fired after any import that wrote at least one row.
func (s *MarksImportService) SetObserver(o writeObserver) {
	s.observer = o
}

// AsyncEnabled reports whether Submit can be used.
func (s *MarksImportService) AsyncEnabled() bool {
	return s.queue != nil && s.jobs != nil && s.uploads != nil
}

// Import parses and reconciles one spreadsheet synchronously. Parse failures abort before any write.
// On a store failure the partial summary is returned together with the error.
func (s *MarksImportService) Import(ctx context.Context, req ImportRequest) (*models.ImportSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload")
	}
	start := time.Now()

	parsed, err := s.parser.Parse(req.Filename, req.Data)
	if err != nil {
		s.metrics.RecordImport(nil, err, time.Since(start))
		s.logger.Sugar().Warnw("upload rejected", "file", req.Filename, "error", err)
		return nil, err
	}
	applySemesterOverride(parsed, req.SemesterOverride)

	summary := &models.ImportSummary{
		Subject:    parsed.Metadata.Subject,
		Semester:   parsed.Metadata.Semester,
		RowsParsed: len(parsed.Rows),
	}
	result, err := s.reconciler.Reconcile(ctx, parsed.Rows)
	if result != nil {
		summary.StudentsAffected = result.StudentsAffected
		summary.RowsWritten = result.RowsWritten
		summary.EntriesCreated = result.EntriesCreated
		summary.EntriesUpdated = result.EntriesUpdated
	}
	if summary.RowsWritten > 0 && s.observer != nil {
		s.observer.LedgerChanged(ctx)
	}
	s.metrics.RecordImport(summary, err, time.Since(start))
	if err != nil {
		if errors.Is(err, appErrors.ErrStoreUnavailable) {
			s.metrics.RecordStoreFailure()
		}
		return summary, err
	}

	s.logger.Sugar().Infow("marks imported",
		"file", req.Filename,
		"subject", summary.Subject,
		"semester", summary.Semester,
		"rows", summary.RowsParsed,
		"students", summary.StudentsAffected,
		"requested_by", req.RequestedBy,
	)
	return summary, nil
}

// Submit stores the upload and queues it for background processing.
func (s *MarksImportService) Submit(ctx context.Context, req ImportRequest) (*models.ImportJob, error) {
	if !s.AsyncEnabled() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "asynchronous imports are disabled")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload")
	}

	id := uuid.NewString()
	relPath, err := s.uploads.Save(path.Join("imports", id+path.Ext(strings.ToLower(req.Filename))), req.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}
	job := &models.ImportJob{
		ID:               id,
		Filename:         req.Filename,
		StoredPath:       relPath,
		SemesterOverride: req.SemesterOverride,
		Status:           models.ImportStatusQueued,
		CreatedBy:        req.RequestedBy,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		_ = s.uploads.Delete(relPath)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create import job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ImportJobType}); err != nil {
		s.finish(ctx, job, nil, fmt.Errorf("enqueue: %w", err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue import job")
	}
	s.logger.Sugar().Infow("import queued", "job_id", job.ID, "file", req.Filename, "requested_by", req.RequestedBy)
	return job, nil
}

// Status returns an import job. Teachers only see their own jobs.
func (s *MarksImportService) Status(ctx context.Context, id, actorID string, role models.UserRole) (*models.ImportJob, error) {
	if s.jobs == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import job not found")
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	if role == models.RoleTeacher && job.CreatedBy != actorID {
		return nil, appErrors.ErrForbidden
	}
	return job, nil
}

// RecoverPendingJobs re-enqueues jobs a previous process left QUEUED or PROCESSING.
func (s *MarksImportService) RecoverPendingJobs(ctx context.Context) {
	if !s.AsyncEnabled() {
		return
	}
	pending, err := s.jobs.ListPending(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover pending imports", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ImportJobType}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending import", "job_id", job.ID, "error", err)
		}
	}
}

func (s *MarksImportService) finish(ctx context.Context, job *models.ImportJob, summary *models.ImportSummary, cause error) {
	status := models.ImportStatusFinished
	params := repository.UpdateImportJobParams{Status: &status, Summary: summary}
	if cause != nil {
		status = models.ImportStatusFailed
		msg := cause.Error()
		params.ErrorMessage = &msg
	}
	now := time.Now().UTC()
	params.FinishedAt = &now
	if err := s.jobs.Update(ctx, job.ID, params); err != nil {
		s.logger.Sugar().Warnw("failed to finalise import job", "job_id", job.ID, "status", status, "error", err)
	}
	if err := s.uploads.Delete(job.StoredPath); err != nil {
		s.logger.Sugar().Warnw("failed to remove stored upload", "job_id", job.ID, "error", err)
	}
}

// applySemesterOverride relabels every row with the semester chosen in the upload form.
func applySemesterOverride(parsed *models.ParsedSheet, semester string) {
	semester = strings.TrimSpace(semester)
	if semester == "" {
		return
	}
	parsed.Metadata.Semester = semester
	for i := range parsed.Rows {
		parsed.Rows[i].Semester = semester
	}
}
