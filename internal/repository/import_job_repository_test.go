package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-marks-api/internal/models"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
)

func TestImportJobRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()
	repo := NewImportJobRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO import_jobs")).
		WithArgs(sqlmock.AnyArg(), "marks.xlsx", "imports/a.xlsx", "", "QUEUED", nil, nil, "teacher-1", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ImportJob{Filename: "marks.xlsx", StoredPath: "imports/a.xlsx", CreatedBy: "teacher-1"}
	require.NoError(t, repo.Create(context.Background(), job))
	require.NotEmpty(t, job.ID)
	assert.Equal(t, models.ImportStatusQueued, job.Status)

	rows := sqlmock.NewRows([]string{"id", "filename", "stored_path", "semester_override", "status", "summary", "error_message", "created_by", "created_at", "finished_at"}).
		AddRow(job.ID, "marks.xlsx", "imports/a.xlsx", "", "FINISHED", []byte(`{"subject":"DBMS","semester":"3","students_affected":2}`), nil, "teacher-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM import_jobs WHERE id = $1")).
		WithArgs(job.ID).
		WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.Summary)
	assert.Equal(t, 2, fetched.Summary.StudentsAffected)
	assert.Equal(t, models.ImportStatusFinished, fetched.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()
	repo := NewImportJobRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM import_jobs WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestImportJobRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()
	repo := NewImportJobRepository(db)

	status := models.ImportStatusFailed
	msg := "semester missing"
	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE import_jobs SET status = $1, error_message = $2, finished_at = $3 WHERE id = $4")).
		WithArgs(status, msg, now, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateImportJobParams{Status: &status, ErrorMessage: &msg, FinishedAt: &now}))
	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateImportJobParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryImportJobRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryImportJobRepository()

	first := &models.ImportJob{Filename: "a.xlsx", CreatedAt: time.Now().Add(-time.Minute)}
	second := &models.ImportJob{Filename: "b.xlsx"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	queued, err := repo.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, queued, 2)
	assert.Equal(t, "a.xlsx", queued[0].Filename)

	status := models.ImportStatusFinished
	summary := models.ImportSummary{Subject: "DBMS", StudentsAffected: 3}
	require.NoError(t, repo.Update(ctx, first.ID, UpdateImportJobParams{Status: &status, Summary: &summary}))

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusFinished, got.Status)
	assert.Equal(t, 3, got.Summary.StudentsAffected)

	queued, err = repo.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, queued, 1)

	processing := models.ImportStatusProcessing
	require.NoError(t, repo.Update(ctx, second.ID, UpdateImportJobParams{Status: &processing}))
	queued, err = repo.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Equal(t, second.ID, queued[0].ID)

	_, err = repo.GetByID(ctx, "nope")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.True(t, errors.Is(repo.Update(ctx, "nope", UpdateImportJobParams{}), appErrors.ErrNotFound))
}

func TestImportJobRepositoryListPending(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()
	repo := NewImportJobRepository(db)

	rows := sqlmock.NewRows([]string{"id", "filename", "stored_path", "semester_override", "status", "summary", "error_message", "created_by", "created_at", "finished_at"}).
		AddRow("job-1", "a.xlsx", "imports/job-1.xlsx", "", "PROCESSING", nil, nil, "teacher-1", time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE status IN ('QUEUED', 'PROCESSING') ORDER BY created_at ASC LIMIT $1")).
		WithArgs(20).
		WillReturnRows(rows)

	pending, err := repo.ListPending(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.ImportStatusProcessing, pending[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
