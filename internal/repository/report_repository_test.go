package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoschool/ecoschool-api/internal/models"
)

func TestReportRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectExec("INSERT INTO report_jobs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	job := &models.ReportJob{Format: models.ReportFormatCSV, RequestedBy: "admin"}
	require.NoError(t, repo.Create(context.Background(), job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	assert.False(t, job.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	created := time.Now()
	rows := sqlmock.NewRows([]string{"id", "format", "status", "file_path", "requested_by", "error_message", "created_at", "finished_at"}).
		AddRow("job-1", "csv", "QUEUED", nil, "admin", nil, created, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, format, status, file_path, requested_by, error_message, created_at, finished_at\nFROM report_jobs WHERE id = $1")).
		WithArgs("job-1").
		WillReturnRows(rows)

	job, err := repo.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportFormatCSV, job.Format)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdatePartial(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	status := models.ReportStatusFinished
	path := "ledger-20260302-job-1.csv"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET status = $1, file_path = $2 WHERE id = $3")).
		WithArgs(status, path, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", UpdateReportJobParams{Status: &status, FilePath: &path})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateNoFieldsIsNoop(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	require.NoError(t, repo.Update(context.Background(), "job-1", UpdateReportJobParams{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
