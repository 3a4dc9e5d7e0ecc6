package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/speaker-match-api/internal/models"
	"github.com/noah-isme/speaker-match-api/internal/workflow"
	appErrors "github.com/noah-isme/speaker-match-api/pkg/errors"
	"github.com/noah-isme/speaker-match-api/pkg/export"
)

type stubExportSource struct {
	requests []models.Request
	status   *workflow.Status
	err      error
}

func (s *stubExportSource) ListAll(ctx context.Context, status *workflow.Status) ([]models.Request, error) {
	s.status = status
	return s.requests, s.err
}

type capturePDF struct {
	dataset export.Dataset
}

func (c *capturePDF) Render(data export.Dataset) ([]byte, error) {
	c.dataset = data
	return []byte("%PDF-stub"), nil
}

func exportFixture() []models.Request {
	return []models.Request{
		{
			ID:            "r1",
			Teacher:       models.Resolved("t1", &models.Teacher{ID: "t1", Name: "Tess", School: "Lincoln High"}),
			Speaker:       models.Resolved("s1", &models.Speaker{ID: "s1", Name: "Ada Lovelace", Organization: "Analytical Engines"}),
			Status:        workflow.StatusApproved,
			EventName:     "Career Day",
			EventDateTime: time.Date(2026, 11, 3, 14, 0, 0, 0, time.UTC),
			InPerson:      true,
			Virtual:       true,
			Budget:        decimal.NewNullDecimal(decimal.NewFromInt(150)),
		},
		{
			ID:      "r2",
			Teacher: models.Unresolved[models.Teacher]("t2"),
			Speaker: models.Unresolved[models.Speaker]("s2"),
			Status:  workflow.StatusArchived,
		},
	}
}

func TestExportServiceCSV(t *testing.T) {
	source := &stubExportSource{requests: exportFixture()}
	svc := NewExportService(source, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC) }

	result, err := svc.ExportRequests(context.Background(), "CSV", nil)
	require.NoError(t, err)
	assert.Equal(t, "speaker_requests_20261014_093000.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, 2, result.Rows)

	records, err := csv.NewReader(bytes.NewReader(result.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, requestExportHeaders, records[0])
	assert.Equal(t, []string{"r1", "Approved", "Career Day", "2026-11-03T14:00:00Z", "", "Tess", "Lincoln High",
		"Ada Lovelace", "Analytical Engines", "In person / Virtual", "0", "150.00", ""}, records[1])
	assert.Equal(t, "t2", records[2][5])
	assert.Equal(t, "s2", records[2][7])
}

func TestExportServicePDFFiltersByStatus(t *testing.T) {
	source := &stubExportSource{requests: exportFixture()[:1]}
	pdf := &capturePDF{}
	svc := NewExportService(source, nil, pdf, nil)
	approved := workflow.StatusApproved

	result, err := svc.ExportRequests(context.Background(), "pdf", &approved)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, &approved, source.status)
	assert.Equal(t, "Speaker Requests (Approved)", pdf.dataset.Title)
	assert.Len(t, pdf.dataset.Rows, 1)
}

func TestExportServiceErrors(t *testing.T) {
	svc := NewExportService(&stubExportSource{}, nil, nil, nil)
	_, err := svc.ExportRequests(context.Background(), "xlsx", nil)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	failing := NewExportService(&stubExportSource{err: errors.New("db down")}, nil, nil, nil)
	_, err = failing.ExportRequests(context.Background(), "csv", nil)
	assert.Error(t, err)
}
