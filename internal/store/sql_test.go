package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agstack/OpenAgri-ReportingService/internal/apperr"
	"github.com/agstack/OpenAgri-ReportingService/models"
)

func openTestStore(t *testing.T) *SQL {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "reporting_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestDatasetLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	d := &models.Dataset{OwnerID: "alice", Filename: "ops.jsonld", Data: []byte(`{"@graph":[]}`)}
	require.NoError(t, s.CreateDataset(ctx, d))
	assert.NotZero(t, d.ID)

	got, err := s.GetDataset(ctx, "alice", d.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"@graph":[]}`, string(got.Data))
	assert.Equal(t, "ops.jsonld", got.Filename)

	_, err = s.GetDataset(ctx, "bob", d.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "other owners cannot read it")

	assert.ErrorIs(t, s.DeleteDataset(ctx, "bob", d.ID), apperr.ErrNotFound)
	require.NoError(t, s.DeleteDataset(ctx, "alice", d.ID))
	_, err = s.GetDataset(ctx, "alice", d.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReportLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	d := &models.Dataset{OwnerID: "alice", Data: []byte(`{}`)}
	require.NoError(t, s.CreateDataset(ctx, d))

	r := &models.Report{OwnerID: "alice", Type: "irrigations", DatasetID: &d.ID, ContentType: "application/pdf", Data: []byte("%PDF-1.3")}
	require.NoError(t, s.CreateReport(ctx, r))
	assert.NotZero(t, r.ID)

	got, err := s.GetReport(ctx, "alice", r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusReady, got.Status)
	assert.Equal(t, "%PDF-1.3", string(got.Data))
	require.NotNil(t, got.DatasetID)
	assert.Equal(t, d.ID, *got.DatasetID)

	require.NoError(t, s.DeleteReport(ctx, "alice", r.ID))
	assert.ErrorIs(t, s.DeleteReport(ctx, "alice", r.ID), apperr.ErrNotFound)
}

func TestIDsIncrease(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		d := &models.Dataset{OwnerID: "alice", Data: []byte(`{}`)}
		require.NoError(t, s.CreateDataset(ctx, d))
		ids = append(ids, d.ID)
	}
	assert.Less(t, ids[0], ids[1])
	assert.Less(t, ids[1], ids[2])
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reporting_test.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	d := &models.Dataset{OwnerID: "alice", Data: []byte(`{"@graph":[]}`)}
	require.NoError(t, s.CreateDataset(ctx, d))
	require.NoError(t, s.Close(ctx))

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close(ctx)
	_, err = s.GetDataset(ctx, "alice", d.ID)
	assert.NoError(t, err)
}
