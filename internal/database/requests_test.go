package database

import (
	"context"
	"testing"
	"time"

	"parkbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndGetRequest(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	req := testRequest("REQ-20260305100000-001", time.Now().UTC())
	require.NoError(t, db.SaveRequest(ctx, req))

	got, err := db.GetRequest(ctx, req.ID)
	require.NoError(t, err)

	assert.Equal(t, req.ID, got.ID)
	assert.Equal(t, "John Smith", got.DisplayName())
	assert.Equal(t, models.StatusPending, got.Status)
	assert.True(t, got.DecidedAt.IsZero(), "pending request has no decision time")
}

func TestGetRequest_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetRequest(context.Background(), "REQ-20260305100000-999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRequest_UpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	req := testRequest("REQ-20260305100000-001", time.Now().UTC())
	require.NoError(t, db.SaveRequest(ctx, req))

	req.Status = models.StatusApproved
	req.AdminNote = "ok"
	req.DecidedAt = time.Now().UTC()
	require.NoError(t, db.SaveRequest(ctx, req))
	require.NoError(t, db.SaveRequest(ctx, req))

	got, err := db.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.Equal(t, "ok", got.AdminNote)
	assert.False(t, got.DecidedAt.IsZero())

	all, err := db.ListRequests(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListRequests_OrderAndFilter(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)

	older := testRequest("REQ-20260305100000-001", base.Add(-time.Hour))
	newer := testRequest("REQ-20260305100000-002", base)
	newer.Status = models.StatusApproved
	newer.DecidedAt = base

	require.NoError(t, db.SaveRequest(ctx, older))
	require.NoError(t, db.SaveRequest(ctx, newer))

	all, err := db.ListRequests(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID, "newest first")

	pending, err := db.ListRequests(ctx, models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, older.ID, pending[0].ID)
}
