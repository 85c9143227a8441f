package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-marks-api/internal/models"
	"github.com/noah-isme/academic-marks-api/internal/repository"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
	"github.com/noah-isme/academic-marks-api/pkg/jobs"
)

// ImportWorker bridges queue jobs to MarksImportService.Import.
type ImportWorker struct {
	imports    *MarksImportService
	maxRetries int
	logger     *zap.Logger
}

// NewImportWorker constructs a worker. maxRetries should match the queue configuration.
func NewImportWorker(imports *MarksImportService, maxRetries int, logger *zap.Logger) *ImportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &ImportWorker{imports: imports, maxRetries: maxRetries, logger: logger}
}

// Handle processes one queued import. Only store outages are retried; any other
// failure is terminal and recorded on the job.
func (w *ImportWorker) Handle(ctx context.Context, job jobs.Job) error {
	s := w.imports
	record, err := s.jobs.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ImportStatusProcessing
	if err := s.jobs.Update(ctx, job.ID, repository.UpdateImportJobParams{Status: &processing}); err != nil {
		return err
	}

	data, err := s.uploads.Read(record.StoredPath)
	if err != nil {
		s.finish(ctx, record, nil, err)
		return nil
	}
	summary, err := s.Import(ctx, ImportRequest{
		Filename:         record.Filename,
		Data:             data,
		SemesterOverride: record.SemesterOverride,
		RequestedBy:      record.CreatedBy,
	})
	if err != nil && errors.Is(err, appErrors.ErrStoreUnavailable) && job.Attempt < w.maxRetries {
		// Back to QUEUED so a restart can pick the job up if the retry never runs.
		queued := models.ImportStatusQueued
		if uerr := s.jobs.Update(ctx, job.ID, repository.UpdateImportJobParams{Status: &queued}); uerr != nil {
			w.logger.Sugar().Warnw("failed to requeue import job", "job_id", job.ID, "error", uerr)
		}
		w.logger.Sugar().Warnw("import deferred for retry", "job_id", job.ID, "attempt", job.Attempt, "error", err)
		return err
	}
	s.finish(ctx, record, summary, err)
	return nil
}
