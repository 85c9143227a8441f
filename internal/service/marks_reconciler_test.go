package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-marks-api/internal/models"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("entry-%d", n)
	}
}

func dbmsRow() models.ParsedMarkRow {
	return models.ParsedMarkRow{
		StudentIdentifier: "1X21CS001",
		StudentName:       "A",
		IA1:               25,
		IA2:               27,
		Assignment1:       10,
		Assignment2:       10,
		AssignmentTotal:   20,
		FinalMark:         85,
		Subject:           "DBMS",
		Semester:          "3",
	}
}

func ledgerFor(t *testing.T, store LedgerStore, usn string) models.Ledger {
	t.Helper()
	ledger, err := loadLedger(context.Background(), store, usn)
	require.NoError(t, err)
	return ledger
}

func TestReconcileCreatesEntry(t *testing.T) {
	store := newMockLedgerStore()
	r := NewMarksReconciler(store, nil, WithIDGenerator(sequentialIDs()))

	result, err := r.Reconcile(context.Background(), []models.ParsedMarkRow{dbmsRow()})
	require.NoError(t, err)
	assert.Equal(t, 1, result.StudentsAffected)
	assert.Equal(t, 1, result.EntriesCreated)

	ledger := ledgerFor(t, store, "1x21cs001")
	require.Len(t, ledger, 1)
	assert.Equal(t, models.MarkLedgerEntry{
		ID:                "entry-1",
		StudentIdentifier: "1X21CS001",
		CourseID:          "dbms-3",
		CourseName:        "DBMS",
		SemesterLabel:     "3",
		IA1:               25,
		IA2:               27,
		Assignments:       20,
		ExamMark:          85,
		TotalMarks:        157,
		Grade:             "A+",
	}, ledger[0])
	assert.Equal(t, "A+", GradePolicyA.Grade(ledger[0].TotalMarks))
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := newMockLedgerStore()
	r := NewMarksReconciler(store, nil, WithIDGenerator(sequentialIDs()))
	ctx := context.Background()

	_, err := r.Reconcile(ctx, []models.ParsedMarkRow{dbmsRow()})
	require.NoError(t, err)
	first := ledgerFor(t, store, "1X21CS001")

	second := dbmsRow()
	second.FinalMark = 40
	result, err := r.Reconcile(ctx, []models.ParsedMarkRow{second})
	require.NoError(t, err)
	assert.Equal(t, 1, result.EntriesUpdated)
	assert.Equal(t, 0, result.EntriesCreated)

	ledger := ledgerFor(t, store, "1X21CS001")
	require.Len(t, ledger, 1)
	assert.Equal(t, first[0].ID, ledger[0].ID)
	assert.Equal(t, r.EntryFromRow(second).TotalMarks, ledger[0].TotalMarks)
	assert.Equal(t, float64(112), ledger[0].TotalMarks)
	assert.Equal(t, "A+", ledger[0].Grade)
	assert.Equal(t, float64(40), ledger[0].ExamMark)
}

func TestReconcileCountsStudentsNotRows(t *testing.T) {
	store := newMockLedgerStore()
	r := NewMarksReconciler(store, nil)

	osRow := dbmsRow()
	osRow.Subject = "OS"
	other := dbmsRow()
	other.StudentIdentifier = "1x21cs002"

	result, err := r.Reconcile(context.Background(), []models.ParsedMarkRow{dbmsRow(), osRow, other})
	require.NoError(t, err)
	assert.Equal(t, 2, result.StudentsAffected)
	assert.Equal(t, 3, result.RowsWritten)
	assert.Equal(t, []string{"1X21CS001", "1X21CS002"}, result.Students)
	assert.Equal(t, 3, store.sets)
	assert.Len(t, ledgerFor(t, store, "1X21CS001"), 2)
	assert.Len(t, ledgerFor(t, store, "1X21CS002"), 1)
}

func TestReconcileTotalAlwaysSumsComponents(t *testing.T) {
	store := newMockLedgerStore()
	r := NewMarksReconciler(store, nil)
	rows := make([]models.ParsedMarkRow, 0, 10)
	for i := 0; i < 10; i++ {
		row := dbmsRow()
		row.StudentIdentifier = fmt.Sprintf("USN%02d", i)
		row.IA1 = float64(i * 3)
		row.IA2 = float64(i)
		row.InternalTotal = 999
		row.AssignmentTotal = float64(i % 4)
		row.FinalMark = float64(i * 7)
		rows = append(rows, row)
	}
	_, err := r.Reconcile(context.Background(), rows)
	require.NoError(t, err)

	for _, row := range rows {
		entry := ledgerFor(t, store, row.StudentIdentifier)[0]
		assert.Equal(t, row.IA1+row.IA2+row.AssignmentTotal+row.FinalMark, entry.TotalMarks)
		assert.Equal(t, GradePolicyB.Grade(entry.TotalMarks), entry.Grade)
	}
}

func TestReconcileMergeKeyCourseName(t *testing.T) {
	store := newMockLedgerStore()
	seed := models.Ledger{{ID: "legacy", CourseID: "stale-id", CourseName: "DBMS", SemesterLabel: "3"}}
	require.NoError(t, saveLedger(context.Background(), store, "1X21CS001", seed))

	_, err := NewMarksReconciler(store, nil).Reconcile(context.Background(), []models.ParsedMarkRow{dbmsRow()})
	require.NoError(t, err)
	ledger := ledgerFor(t, store, "1X21CS001")
	require.Len(t, ledger, 1)
	assert.Equal(t, "legacy", ledger[0].ID)
	assert.Equal(t, "dbms-3", ledger[0].CourseID)

	store = newMockLedgerStore()
	require.NoError(t, saveLedger(context.Background(), store, "1X21CS001", seed))
	_, err = NewMarksReconciler(store, nil, WithMergeKey(models.MergeByCourseID)).Reconcile(context.Background(), []models.ParsedMarkRow{dbmsRow()})
	require.NoError(t, err)
	assert.Len(t, ledgerFor(t, store, "1X21CS001"), 2)
}

func TestReconcileUnknownSubject(t *testing.T) {
	store := newMockLedgerStore()
	row := dbmsRow()
	row.Subject = ""
	_, err := NewMarksReconciler(store, nil).Reconcile(context.Background(), []models.ParsedMarkRow{row})
	require.NoError(t, err)
	assert.Equal(t, "Unknown Subject", ledgerFor(t, store, "1X21CS001")[0].CourseName)
}

func TestReconcileStoreFailureKeepsEarlierWrites(t *testing.T) {
	store := newMockLedgerStore()
	store.failSet = 2
	r := NewMarksReconciler(store, nil)

	second := dbmsRow()
	second.StudentIdentifier = "1X21CS002"
	third := dbmsRow()
	third.StudentIdentifier = "1X21CS003"

	result, err := r.Reconcile(context.Background(), []models.ParsedMarkRow{dbmsRow(), second, third})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrStoreUnavailable))
	assert.True(t, errors.Is(err, errStoreDown))
	require.NotNil(t, result)
	assert.Equal(t, 1, result.RowsWritten)
	assert.Equal(t, 1, result.StudentsAffected)

	assert.Len(t, ledgerFor(t, store, "1X21CS001"), 1)
	assert.Empty(t, ledgerFor(t, store, "1X21CS002"))
}

func TestReconcileStoreReadFailure(t *testing.T) {
	store := newMockLedgerStore()
	store.failGet = true
	_, err := NewMarksReconciler(store, nil).Reconcile(context.Background(), []models.ParsedMarkRow{dbmsRow()})
	assert.True(t, errors.Is(err, appErrors.ErrStoreUnavailable))
}

func TestReconcileEmptyBatch(t *testing.T) {
	result, err := NewMarksReconciler(newMockLedgerStore(), nil).Reconcile(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.StudentsAffected)
	assert.Empty(t, result.Students)
}
