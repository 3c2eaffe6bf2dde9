package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-help-api/internal/models"
	"github.com/noah-isme/academic-help-api/pkg/export"
	appErrors "github.com/noah-isme/academic-help-api/pkg/errors"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type requestCollector interface {
	Collect(ctx context.Context, actor models.Identity, status string) ([]models.ServiceRequest, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportResult is a rendered report ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
	Rows        int
}

// ExportService renders request reports for reviewers.
type ExportService struct {
	requests requestCollector
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService; nil renderers use the defaults.
func NewExportService(requests requestCollector, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(true)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{requests: requests, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

var requestColumns = []export.Column{
	{Key: "id", Label: "ID", Width: 1},
	{Key: "owner", Label: "Mahasiswa", Width: 1.2},
	{Key: "service", Label: "Layanan", Width: 2},
	{Key: "title", Label: "Judul", Width: 3},
	{Key: "status", Label: "Status", Width: 1},
	{Key: "priority", Label: "Prioritas", Width: 1},
	{Key: "created", Label: "Diajukan", Width: 1.5},
	{Key: "updated", Label: "Diperbarui", Width: 1.5},
	{Key: "reviewer", Label: "Peninjau", Width: 1.2},
}

// Generate renders the requests visible to actor, optionally filtered by status.
func (s *ExportService) Generate(ctx context.Context, actor models.Identity, format, status string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"), "format:oneof")
	}

	items, err := s.requests.Collect(ctx, actor, status)
	if err != nil {
		return nil, err
	}
	dataset := buildRequestDataset(items, status)

	var payload []byte
	contentType := "text/csv; charset=utf-8"
	if format == ExportFormatPDF {
		payload, err = s.pdf.Render(dataset)
		contentType = "application/pdf"
	} else {
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	s.logger.Info("request report generated", zap.String("format", format), zap.Int("rows", len(items)), zap.String("by", actor.ID))
	return &ExportResult{
		Filename:    fmt.Sprintf("laporan-permohonan-%s.%s", s.now().UTC().Format("20060102-150405"), format),
		ContentType: contentType,
		Payload:     payload,
		Rows:        len(items),
	}, nil
}

func buildRequestDataset(items []models.ServiceRequest, status string) export.Dataset {
	title := "Laporan Permohonan Layanan Akademik"
	if parsed, ok := models.ParseRequestStatus(status); ok {
		title += " - " + parsed.Label()
	}
	rows := make([]map[string]string, 0, len(items))
	for _, req := range items {
		reviewer := ""
		if req.ApprovedBy != nil {
			reviewer = *req.ApprovedBy
		}
		rows = append(rows, map[string]string{
			"id":       req.ID,
			"owner":    req.OwnerID,
			"service":  req.ServiceName,
			"title":    req.Title,
			"status":   req.Status.Label(),
			"priority": req.Priority.Label(),
			"created":  req.CreatedAt.Format("2006-01-02 15:04"),
			"updated":  req.UpdatedAt.Format("2006-01-02 15:04"),
			"reviewer": reviewer,
		})
	}
	return export.Dataset{Title: title, Columns: requestColumns, Rows: rows}
}
