package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/internal/workflow"
	appErrors "github.com/noah-isme/speaker-match-api/pkg/errors"
	"github.com/noah-isme/speaker-match-api/pkg/export"
)

type requestExportSource interface {
	ListAll(ctx context.Context, status *workflow.Status) ([]models.Request, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportResult is a rendered export ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ExportService renders request listings for administrators.
type ExportService struct {
	requests requestExportSource
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

var requestExportHeaders = []string{
	"ID", "Status", "Event", "Event Date", "Timezone", "Teacher", "School",
	"Speaker", "Organization", "Format", "Students", "Budget", "Created At",
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(requests requestExportSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		requests: requests,
		csv:      csv,
		pdf:      pdf,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ExportRequests renders every request, optionally filtered by status, in the given format.
func (s *ExportService) ExportRequests(ctx context.Context, rawFormat string, status *workflow.Status) (*ExportResult, error) {
	format, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(rawFormat)))
	if err != nil {
		return nil, appErrors.Validation(err, "unsupported export format")
	}

	requests, err := s.requests.ListAll(ctx, status)
	if err != nil {
		return nil, err
	}

	dataset := requestDataset(requests, status)
	var data []byte
	switch format {
	case export.FormatPDF:
		data, err = s.pdf.Render(dataset)
	default:
		data, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}

	s.logger.Info("requests exported", zap.String("format", string(format)), zap.Int("rows", len(requests)))
	return &ExportResult{
		Filename:    fmt.Sprintf("speaker_requests_%s.%s", s.now().Format("20060102_150405"), format),
		ContentType: format.ContentType(),
		Data:        data,
		Rows:        len(requests),
	}, nil
}

func requestDataset(requests []models.Request, status *workflow.Status) export.Dataset {
	title := "Speaker Requests"
	if status != nil {
		title = fmt.Sprintf("Speaker Requests (%s)", *status)
	}
	rows := make([]map[string]string, 0, len(requests))
	for _, req := range requests {
		row := map[string]string{
			"ID":         req.ID,
			"Status":     string(req.Status),
			"Event":      req.EventName,
			"Event Date": formatExportTime(req.EventDateTime),
			"Timezone":   req.Timezone,
			"Teacher":    req.Teacher.ID(),
			"Speaker":    req.Speaker.ID(),
			"Format":     deliveryFormat(req.InPerson, req.Virtual),
			"Students":   strconv.Itoa(req.EstimatedStudents),
			"Created At": formatExportTime(req.CreatedAt),
		}
		if teacher, ok := req.Teacher.Entity(); ok {
			row["Teacher"] = teacher.Name
			row["School"] = teacher.School
		}
		if speaker, ok := req.Speaker.Entity(); ok {
			row["Speaker"] = speaker.Name
			row["Organization"] = speaker.Organization
		}
		if req.Budget.Valid {
			row["Budget"] = req.Budget.Decimal.StringFixed(2)
		}
		rows = append(rows, row)
	}
	return export.Dataset{Title: title, Headers: requestExportHeaders, Rows: rows}
}

func deliveryFormat(inPerson, virtual bool) string {
	switch {
	case inPerson && virtual:
		return "In person / Virtual"
	case inPerson:
		return "In person"
	case virtual:
		return "Virtual"
	default:
		return ""
	}
}

func formatExportTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
