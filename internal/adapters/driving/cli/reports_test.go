package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

func resetReportsFlags() {
	reportsClass = ""
	reportsJSON = false
	exportOut = ""
}

func TestReportsListCmd_PrintsReports(t *testing.T) {
	resetReportsFlags()
	reportService = &mockReportService{
		reports: []domain.Report{
			{
				ID:             "rep-1",
				Filename:       "labs.png",
				Classification: domain.LabelLabReport,
				Status:         domain.StatusPersisted,
				CreatedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			},
		},
	}
	defer func() { reportService = nil }()

	out, err := execute(t, "reports", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "rep-1")
	assert.Contains(t, out, "labs.png")
	assert.Contains(t, out, "lab_report")
	assert.Contains(t, out, "2026-03-01")
}

func TestReportsListCmd_Empty(t *testing.T) {
	resetReportsFlags()
	reportService = &mockReportService{}
	defer func() { reportService = nil }()

	out, err := execute(t, "reports", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No reports ingested yet")
}

func TestReportsShowCmd_PrintsText(t *testing.T) {
	resetReportsFlags()
	reportService = &mockReportService{
		report: &domain.Report{
			ID:             "rep-1",
			Filename:       "labs.png",
			Classification: domain.LabelLabReport,
			Status:         domain.StatusFailedEmbedding,
			FailureReason:  "provider unreachable",
			Text:           "Haemoglobin 13.2 g/dL",
		},
	}
	defer func() { reportService = nil }()

	out, err := execute(t, "reports", "show", "rep-1")

	require.NoError(t, err)
	assert.Contains(t, out, "Haemoglobin 13.2 g/dL")
	assert.Contains(t, out, "provider unreachable")
}

func TestReportsDeleteCmd(t *testing.T) {
	resetReportsFlags()
	mock := &mockReportService{}
	reportService = mock
	defer func() { reportService = nil }()

	out, err := execute(t, "reports", "delete", "rep-1")

	require.NoError(t, err)
	assert.Equal(t, "rep-1", mock.deletedID)
	assert.Contains(t, out, "Deleted report: rep-1")
}

func TestReportsExportCmd_WritesImage(t *testing.T) {
	resetReportsFlags()
	dir := t.TempDir()
	out := dir + "/scan.png"

	reportService = &mockReportService{
		report: &domain.Report{ID: "rep-1", Filename: "labs.png"},
		image:  []byte{0x89, 'P', 'N', 'G'},
	}
	defer func() { reportService = nil }()

	output, err := execute(t, "reports", "export", "rep-1", "--out", out)

	require.NoError(t, err)
	assert.Contains(t, output, "4 bytes")
	assert.FileExists(t, out)
}

func TestReportsCmd_ServiceNotConfigured(t *testing.T) {
	resetReportsFlags()
	reportService = nil

	_, err := execute(t, "reports", "list")

	assert.Error(t, err)
}
