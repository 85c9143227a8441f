package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-marks-api/internal/models"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
)

const importJobSchema = `CREATE TABLE IF NOT EXISTS import_jobs (
    id TEXT PRIMARY KEY,
    filename TEXT NOT NULL,
    stored_path TEXT NOT NULL,
    semester_override TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    summary JSONB,
    error_message TEXT,
    created_by TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ
)`

const importJobColumns = `id, filename, stored_path, semester_override, status, summary, error_message, created_by, created_at, finished_at`

// UpdateImportJobParams defines the mutable fields of an import job.
type UpdateImportJobParams struct {
	Status       *models.ImportStatus
	Summary      *models.ImportSummary
	ErrorMessage *string
	FinishedAt   *time.Time
}

func prepareImportJob(job *models.ImportJob) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ImportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
}

// ImportJobRepository persists import job metadata in postgres.
type ImportJobRepository struct {
	db *sqlx.DB
}

// NewImportJobRepository constructs the repository.
func NewImportJobRepository(db *sqlx.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

// EnsureSchema creates the import_jobs table when missing.
func (r *ImportJobRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, importJobSchema); err != nil {
		return fmt.Errorf("ensure import job schema: %w", err)
	}
	return nil
}

// Create inserts a new job row with generated defaults.
func (r *ImportJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	prepareImportJob(job)
	const query = `INSERT INTO import_jobs (` + importJobColumns + `)
VALUES (:id, :filename, :stored_path, :semester_override, :status, :summary, :error_message, :created_by, :created_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create import job: %w", err)
	}
	return nil
}

// GetByID returns a job by id or appErrors.ErrNotFound.
func (r *ImportJobRepository) GetByID(ctx context.Context, id string) (*models.ImportJob, error) {
	const query = `SELECT ` + importJobColumns + ` FROM import_jobs WHERE id = $1`
	var job models.ImportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "import job not found")
		}
		return nil, fmt.Errorf("get import job: %w", err)
	}
	return &job, nil
}

// Update persists the provided changes.
func (r *ImportJobRepository) Update(ctx context.Context, id string, params UpdateImportJobParams) error {
	set := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	argPos := 1

	if params.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}
	if params.Summary != nil {
		set = append(set, fmt.Sprintf("summary = $%d", argPos))
		args = append(args, *params.Summary)
		argPos++
	}
	if params.ErrorMessage != nil {
		set = append(set, fmt.Sprintf("error_message = $%d", argPos))
		args = append(args, *params.ErrorMessage)
		argPos++
	}
	if params.FinishedAt != nil {
		set = append(set, fmt.Sprintf("finished_at = $%d", argPos))
		args = append(args, *params.FinishedAt)
		argPos++
	}
	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE import_jobs SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update import job: %w", err)
	}
	return nil
}

// ListPending fetches jobs that never reached a terminal state, for cold start recovery.
// PROCESSING rows are included because the process that claimed them is gone.
func (r *ImportJobRepository) ListPending(ctx context.Context, limit int) ([]models.ImportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `SELECT ` + importJobColumns + ` FROM import_jobs WHERE status IN ('QUEUED', 'PROCESSING') ORDER BY created_at ASC LIMIT $1`
	var jobs []models.ImportJob
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list pending import jobs: %w", err)
	}
	return jobs, nil
}

// MemoryImportJobRepository keeps import jobs in process memory.
type MemoryImportJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]models.ImportJob
}

// NewMemoryImportJobRepository constructs an empty repository.
func NewMemoryImportJobRepository() *MemoryImportJobRepository {
	return &MemoryImportJobRepository{jobs: make(map[string]models.ImportJob)}
}

// Create stores a new job.
func (r *MemoryImportJobRepository) Create(_ context.Context, job *models.ImportJob) error {
	prepareImportJob(job)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

// GetByID returns a copy of the job or appErrors.ErrNotFound.
func (r *MemoryImportJobRepository) GetByID(_ context.Context, id string) (*models.ImportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import job not found")
	}
	return &job, nil
}

// Update applies the provided changes.
func (r *MemoryImportJobRepository) Update(_ context.Context, id string, params UpdateImportJobParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "import job not found")
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Summary != nil {
		summary := *params.Summary
		job.Summary = &summary
	}
	if params.ErrorMessage != nil {
		msg := *params.ErrorMessage
		job.ErrorMessage = &msg
	}
	if params.FinishedAt != nil {
		finished := *params.FinishedAt
		job.FinishedAt = &finished
	}
	r.jobs[id] = job
	return nil
}

// ListPending returns QUEUED and PROCESSING jobs, oldest first.
func (r *MemoryImportJobRepository) ListPending(_ context.Context, limit int) ([]models.ImportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	jobs := make([]models.ImportJob, 0)
	for _, job := range r.jobs {
		if job.Status == models.ImportStatusQueued || job.Status == models.ImportStatusProcessing {
			jobs = append(jobs, job)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}
