package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-marks-api/internal/dto"
	"github.com/noah-isme/academic-marks-api/internal/models"
	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
	"github.com/noah-isme/academic-marks-api/pkg/export"
	"github.com/noah-isme/academic-marks-api/pkg/storage"
)

type ledgerReader interface {
	Get(ctx context.Context, usn, semester string) (*dto.LedgerResponse, error)
}

type fileStorage interface {
	Save(relPath string, data []byte) (string, error)
	Open(relPath string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Generate(owner, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (*storage.SignedToken, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult describes a rendered export and its signed link.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// Download is an opened export ready to stream. Callers close File.
type Download struct {
	File        *os.File
	Filename    string
	ContentType string
}

var ledgerExportHeaders = []string{"Course ID", "Course", "Semester", "IA1", "IA2", "Assignments", "Exam", "Total", "Grade"}

// ExportService renders student ledgers to files and hands out signed download links.
type ExportService struct {
	ledgers   ledgerReader
	storage   fileStorage
	signer    downloadSigner
	renderers map[models.ExportFormat]export.Renderer
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService with the csv, pdf and xlsx renderers.
func NewExportService(ledgers ledgerReader, files fileStorage, signer downloadSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	return &ExportService{
		ledgers: ledgers,
		storage: files,
		signer:  signer,
		renderers: map[models.ExportFormat]export.Renderer{
			models.ExportFormatCSV:  export.NewCSVExporter(),
			models.ExportFormatPDF:  export.NewPDFExporter(),
			models.ExportFormatXLSX: export.NewXLSXExporter(),
		},
		logger: logger,
		cfg:    cfg,
	}
}

// ExportLedger renders the ledger of usn in format and stores it.
func (s *ExportService) ExportLedger(ctx context.Context, usn string, format models.ExportFormat) (*ExportResult, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	ledger, err := s.ledgers.Get(ctx, usn, "")
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(ledgerTable(ledger))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	name := fmt.Sprintf("%s_%s.%s", time.Now().UTC().Format("20060102_150405"), uuid.NewString()[:8], renderer.Extension())
	relPath, err := s.storage.Save(path.Join("exports", ledger.USN, name), payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(ledger.USN, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Sugar().Infow("ledger exported", "usn", ledger.USN, "format", format, "entries", len(ledger.Entries), "path", relPath)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ResolveDownload validates token and opens the referenced file.
func (s *ExportService) ResolveDownload(token string) (*Download, error) {
	parsed, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	file, err := s.storage.Open(parsed.Path)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}
	ext := strings.TrimPrefix(path.Ext(parsed.Path), ".")
	contentType := "application/octet-stream"
	if renderer, ok := s.renderers[models.ExportFormat(ext)]; ok {
		contentType = renderer.ContentType()
	}
	return &Download{
		File:        file,
		Filename:    fmt.Sprintf("marks_%s.%s", parsed.Owner, ext),
		ContentType: contentType,
	}, nil
}

// Cleanup removes stored files older than ttl (ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	deleted, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return nil, err
	}
	if len(deleted) > 0 {
		s.logger.Sugar().Infow("expired exports removed", "count", len(deleted))
	}
	return deleted, nil
}

func ledgerTable(ledger *dto.LedgerResponse) export.Table {
	rows := make([][]string, 0, len(ledger.Entries))
	for _, e := range ledger.Entries {
		rows = append(rows, []string{
			e.CourseID,
			e.CourseName,
			e.SemesterLabel,
			formatMark(e.IA1),
			formatMark(e.IA2),
			formatMark(e.Assignments),
			formatMark(e.ExamMark),
			formatMark(e.TotalMarks),
			e.Grade,
		})
	}
	return export.Table{
		Title:   "Marks ledger " + ledger.USN,
		Headers: ledgerExportHeaders,
		Rows:    rows,
	}
}

func formatMark(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
