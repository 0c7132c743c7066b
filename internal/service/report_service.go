package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ecoschool/ecoschool-api/internal/dto"
	"github.com/ecoschool/ecoschool-api/internal/models"
	"github.com/ecoschool/ecoschool-api/internal/repository"
	appErrors "github.com/ecoschool/ecoschool-api/pkg/errors"
	"github.com/ecoschool/ecoschool-api/pkg/export"
	"github.com/ecoschool/ecoschool-api/pkg/jobs"
	"github.com/ecoschool/ecoschool-api/pkg/storage"
)

// exportColumns is the canonical ledger column order for exports. Photos
// are binary and stay out of tabular formats.
var exportColumns = []string{
	"id", "timestamp", "activity_date", "student", "class_name",
	"category", "quantity", "unit", "notes", "verified", "points", "co2",
}

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ReportServiceConfig governs export retention.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

// ReportService owns the ledger-export job lifecycle: request, background
// generation, signed download and retention cleanup.
type ReportService struct {
	repo    reportJobStore
	ledger  ledgerReader
	queue   jobDispatcher
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	store   *storage.LocalStorage
	signer  *storage.SignedURLSigner
	metrics *MetricsService
	logger  *zap.Logger
	cfg     ReportServiceConfig
}

// NewReportService constructs the report service.
func NewReportService(repo reportJobStore, ledger ledgerReader, queue jobDispatcher, store *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ReportService{
		repo:    repo,
		ledger:  ledger,
		queue:   queue,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		store:   store,
		signer:  signer,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// SetQueue wires the dispatcher after construction. The queue handler
// needs the service and the service needs the queue, so wiring happens in
// two steps at startup.
func (s *ReportService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// CreateJob persists a job row and enqueues generation.
func (s *ReportService) CreateJob(ctx context.Context, format models.ReportFormat, requestedBy string) (*dto.ReportJobResponse, error) {
	if format != models.ReportFormatCSV && format != models.ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
	job := &models.ReportJob{
		Format:      format,
		Status:      models.ReportStatusQueued,
		RequestedBy: requestedBy,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Format)}); err != nil {
		failed := models.ReportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
			Status:       &failed,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	return s.toResponse(job), nil
}

// GetStatus exposes job metadata, attaching a signed download URL once the
// export is ready.
func (s *ReportService) GetStatus(ctx context.Context, id string) (*dto.ReportJobResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	return s.toResponse(job), nil
}

// ResolveDownload validates a signed token and opens the stored file.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.Status != models.ReportStatusFinished || job.FilePath == nil || *job.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ReportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// Handle processes one queued export: renders the full ledger in the
// requested format and stores the result.
func (s *ReportService) Handle(ctx context.Context, job jobs.Job) error {
	record, err := s.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ReportStatusProcessing
	if err := s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{Status: &processing}); err != nil {
		return err
	}

	start := time.Now()
	relPath, err := s.generate(ctx, record)
	if err != nil {
		failed := models.ReportStatusFailed
		msg := err.Error()
		now := time.Now().UTC()
		if updateErr := s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
			Status:       &failed,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		}); updateErr != nil {
			s.logger.Warn("failed to mark report job failed", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}
	if s.metrics != nil {
		s.metrics.ObserveReportGeneration(string(record.Format), time.Since(start))
	}

	finished := models.ReportStatusFinished
	clear := ""
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
		Status:       &finished,
		FilePath:     &relPath,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark report job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	s.logger.Info("ledger export generated",
		zap.String("job_id", job.ID),
		zap.String("format", string(record.Format)),
		zap.String("path", relPath))
	return nil
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.store.CleanupOlderThan(s.cfg.ResultTTL)
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if len(deleted) > 0 {
					s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
				}
			}
		}
	}()
}

func (s *ReportService) generate(ctx context.Context, job *models.ReportJob) (string, error) {
	entries, err := s.ledger.List(ctx, models.EntryFilter{Verified: models.VerifiedAll})
	if err != nil {
		return "", fmt.Errorf("load ledger: %w", err)
	}
	dataset := buildLedgerDataset(entries)

	var rendered []byte
	switch job.Format {
	case models.ReportFormatCSV:
		rendered, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		rendered, err = s.pdf.Render(dataset, "Sustainability Ledger")
	default:
		return "", fmt.Errorf("unsupported format %q", job.Format)
	}
	if err != nil {
		return "", fmt.Errorf("render %s: %w", job.Format, err)
	}

	filename := fmt.Sprintf("ledger-%s-%s.%s", time.Now().UTC().Format("20060102-150405"), job.ID, job.Format)
	relPath, err := s.store.Save(filename, rendered)
	if err != nil {
		return "", fmt.Errorf("store export: %w", err)
	}
	return relPath, nil
}

func (s *ReportService) toResponse(job *models.ReportJob) *dto.ReportJobResponse {
	resp := &dto.ReportJobResponse{
		ID:     job.ID,
		Format: string(job.Format),
		Status: string(job.Status),
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	if job.Status == models.ReportStatusFinished && job.FilePath != nil {
		token, _, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			s.logger.Warn("failed to sign download token", zap.String("job_id", job.ID), zap.Error(err))
		} else {
			url := "/export/" + token
			resp.DownloadURL = &url
		}
	}
	return resp
}

func buildLedgerDataset(entries []models.Entry) export.Dataset {
	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		notes := ""
		if e.Notes != nil {
			notes = *e.Notes
		}
		rows = append(rows, map[string]string{
			"id":            strconv.FormatInt(e.ID, 10),
			"timestamp":     e.Timestamp.UTC().Format(time.RFC3339),
			"activity_date": e.ActivityDate.Format("2006-01-02"),
			"student":       e.Student,
			"class_name":    e.ClassName,
			"category":      e.Category,
			"quantity":      strconv.FormatFloat(e.Quantity, 'f', -1, 64),
			"unit":          e.Unit,
			"notes":         notes,
			"verified":      strconv.FormatBool(e.Verified),
			"points":        strconv.Itoa(e.Points),
			"co2":           strconv.FormatFloat(e.CO2, 'f', -1, 64),
		})
	}
	return export.Dataset{Headers: exportColumns, Rows: rows}
}
