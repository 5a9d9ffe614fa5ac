package export

import (
	"context"
	"testing"
	"time"

	"parkbot/internal/models"
	"parkbot/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportRequests(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryRequestStore()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.SaveRequest(ctx, &models.ReservationRequest{
		ID:        "REQ-20260305100000-001",
		Name:      "John",
		Surname:   "Smith",
		VehicleID: "ABC123",
		Start:     time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC),
		End:       time.Date(2026, time.March, 12, 12, 0, 0, 0, time.UTC),
		Status:    models.StatusApproved,
		AdminNote: "ok",
		CreatedAt: now,
		DecidedAt: now,
	}))
	require.NoError(t, store.SaveRequest(ctx, &models.ReservationRequest{
		ID:        "REQ-20260305100000-002",
		Name:      "Anna",
		Surname:   "Lee",
		VehicleID: "XY-99",
		Start:     time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC),
		End:       time.Date(2026, time.April, 2, 12, 0, 0, 0, time.UTC),
		Status:    models.StatusPending,
		CreatedAt: now.Add(time.Minute),
	}))

	logger := zerolog.Nop()
	exporter := NewExporter(store, t.TempDir(), &logger)

	path, err := exporter.ExportRequests(ctx, "")
	require.NoError(t, err)
	assert.FileExists(t, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Requests", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Request ID", header)

	// Newest first: the pending request sits in row 2.
	firstID, err := f.GetCellValue("Requests", "A2")
	require.NoError(t, err)
	assert.Equal(t, "REQ-20260305100000-002", firstID)

	status, err := f.GetCellValue("Requests", "F2")
	require.NoError(t, err)
	assert.Contains(t, status, "pending")

	decided, err := f.GetCellValue("Requests", "I2")
	require.NoError(t, err)
	assert.Empty(t, decided, "pending request has no decision time")
}

func TestExportRequests_StatusFilter(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryRequestStore()

	require.NoError(t, store.SaveRequest(ctx, &models.ReservationRequest{
		ID:        "REQ-20260305100000-001",
		Name:      "John",
		Surname:   "Smith",
		VehicleID: "ABC123",
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
	}))

	logger := zerolog.Nop()
	exporter := NewExporter(store, t.TempDir(), &logger)

	path, err := exporter.ExportRequests(ctx, models.StatusApproved)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	value, err := f.GetCellValue("Requests", "A2")
	require.NoError(t, err)
	assert.Empty(t, value, "no approved requests to export")
}
