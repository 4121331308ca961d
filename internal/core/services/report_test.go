package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reportchat-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/reportchat-cli/internal/core/domain"
)

func newReportFixture(t *testing.T) (*ReportManager, *memory.ReportStore, *memory.BlobStore) {
	t.Helper()
	reports := memory.NewReportStore()
	blobs := memory.NewBlobStore()
	return NewReportManager(reports, blobs), reports, blobs
}

func TestReportManager_Get(t *testing.T) {
	manager, reports, _ := newReportFixture(t)
	ctx := context.Background()

	require.NoError(t, reports.SaveReport(ctx, &domain.Report{ID: "r1", Filename: "scan.png"}))

	got, err := manager.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "scan.png", got.Filename)

	_, err = manager.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = manager.Get(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReportManager_ListNewestFirstWithFilter(t *testing.T) {
	manager, reports, _ := newReportFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, reports.SaveReport(ctx, &domain.Report{
		ID: "old-labs", Classification: domain.LabelLabReport, CreatedAt: base,
	}))
	require.NoError(t, reports.SaveReport(ctx, &domain.Report{
		ID: "new-labs", Classification: domain.LabelLabReport, CreatedAt: base.Add(time.Hour),
	}))
	require.NoError(t, reports.SaveReport(ctx, &domain.Report{
		ID: "xray", Classification: domain.LabelImagingReport, CreatedAt: base.Add(2 * time.Hour),
	}))

	all, err := manager.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "xray", all[0].ID)

	labs, err := manager.List(ctx, domain.LabelLabReport)
	require.NoError(t, err)
	require.Len(t, labs, 2)
	assert.Equal(t, "new-labs", labs[0].ID)
	assert.Equal(t, "old-labs", labs[1].ID)

	_, err = manager.List(ctx, "horoscope")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReportManager_DeleteRemovesEverything(t *testing.T) {
	manager, reports, blobs := newReportFixture(t)
	ctx := context.Background()

	key := domain.BlobKey("r1", "scan.png")
	require.NoError(t, blobs.Put(ctx, key, []byte("img"), "image/png"))
	require.NoError(t, reports.SaveReport(ctx, &domain.Report{ID: "r1", BlobKey: key, Status: domain.StatusPersisted}))
	require.NoError(t, reports.UpsertChunks(ctx, []domain.Chunk{
		{ID: domain.ChunkID("r1", 0), ReportID: "r1", Index: 0},
	}))

	require.NoError(t, manager.Delete(ctx, "r1"))

	_, err := reports.GetReport(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := reports.GetChunks(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	_, err = blobs.Get(ctx, key)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReportManager_DeleteUnknownReport(t *testing.T) {
	manager, _, _ := newReportFixture(t)
	err := manager.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReportManager_Image(t *testing.T) {
	manager, reports, blobs := newReportFixture(t)
	ctx := context.Background()

	key := domain.BlobKey("r1", "scan.png")
	require.NoError(t, blobs.Put(ctx, key, []byte("img"), "image/png"))
	require.NoError(t, reports.SaveReport(ctx, &domain.Report{ID: "r1", BlobKey: key}))

	data, err := manager.Image(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), data)
}
