package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/reportchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/reportchat-cli/internal/logger"
)

// Ensure ReportManager implements the interface.
var _ driving.ReportService = (*ReportManager)(nil)

// ReportManager handles report lookup and explicit deletion. The pipeline
// only ever adds; removing a report is a user decision made here.
type ReportManager struct {
	reports driven.ReportStore
	blobs   driven.BlobStore
}

// NewReportManager creates a report manager.
func NewReportManager(reports driven.ReportStore, blobs driven.BlobStore) *ReportManager {
	return &ReportManager{reports: reports, blobs: blobs}
}

// Get retrieves a report by ID.
func (m *ReportManager) Get(ctx context.Context, id string) (*domain.Report, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty report ID", domain.ErrInvalidInput)
	}
	return m.reports.GetReport(ctx, id)
}

// List returns reports newest first. A non-empty classification narrows the
// listing to that label.
func (m *ReportManager) List(ctx context.Context, classification string) ([]domain.Report, error) {
	if classification != "" && !domain.ValidLabel(classification) {
		return nil, fmt.Errorf("%w: unknown classification %q", domain.ErrInvalidInput, classification)
	}
	return m.reports.ListReports(ctx, domain.ReportFilter{Classification: classification})
}

// Delete removes the report record, its chunks and the stored source image.
// The record goes first so a partial failure leaves orphaned blobs rather
// than chunks pointing at a deleted report.
func (m *ReportManager) Delete(ctx context.Context, id string) error {
	report, err := m.reports.GetReport(ctx, id)
	if err != nil {
		return err
	}

	if err := m.reports.DeleteReport(ctx, id); err != nil {
		return fmt.Errorf("delete report %s: %w", id, err)
	}
	logger.Debug("Deleted report %s (%s)", id, report.Filename)

	if err := m.blobs.Delete(ctx, report.BlobKey); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Report %s deleted but blob %s remains: %v", id, report.BlobKey, err)
	}
	return nil
}

// Image fetches the raw source image for a report.
func (m *ReportManager) Image(ctx context.Context, id string) ([]byte, error) {
	report, err := m.reports.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := m.blobs.Get(ctx, report.BlobKey)
	if err != nil {
		return nil, fmt.Errorf("fetch image for report %s: %w", id, err)
	}
	return data, nil
}
