package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferbench/inferbench/pkg/models"
)

func setupTestStore(t *testing.T) *ReportStore {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return NewReportStore(db)
}

func testReport(id string, ts time.Time) *models.Report {
	return &models.Report{
		ID:        id,
		Timestamp: ts,
		SystemInfo: models.SystemInfo{
			CPUCount:      8,
			TotalMemoryGB: 16.0,
		},
		Results: []models.TestResult{
			{TestName: "short_prompt_warmup", Success: true, TokensPerSecond: 25.0, AvgCPUPercent: 65.0},
			{TestName: "code_generation", Success: false, Error: "timeout"},
		},
		Summary: models.SummaryStats{
			TotalTests:         2,
			Successful:         1,
			Failed:             1,
			AvgTokensPerSecond: 25.0,
			AvgCPUPercent:      65.0,
			Utilization:        models.UtilizationGood,
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	report := testReport("report-aaaa1111", time.Now().UTC())
	require.NoError(t, store.Save(ctx, report))

	got, err := store.Get(ctx, "report-aaaa1111")
	require.NoError(t, err)

	assert.Equal(t, report.ID, got.ID)
	assert.Equal(t, 8, got.SystemInfo.CPUCount)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "short_prompt_warmup", got.Results[0].TestName)
	assert.True(t, got.Results[0].Success)
	assert.Equal(t, "timeout", got.Results[1].Error)
	assert.Equal(t, models.UtilizationGood, got.Summary.Utilization)
}

func TestSaveFillsIDAndTimestamp(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	report := &models.Report{Summary: models.SummaryStats{}}
	require.NoError(t, store.Save(ctx, report))

	assert.NotEmpty(t, report.ID)
	assert.False(t, report.Timestamp.IsZero())

	got, err := store.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ID, got.ID)
}

func TestGetNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Get(context.Background(), "report-missing1")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestListRecentOrdersByTimestamp(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, store.Save(ctx, testReport("report-old00000", base.Add(-2*time.Hour))))
	require.NoError(t, store.Save(ctx, testReport("report-new00000", base)))
	require.NoError(t, store.Save(ctx, testReport("report-mid00000", base.Add(-1*time.Hour))))

	reports, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)

	require.Len(t, reports, 3)
	assert.Equal(t, "report-new00000", reports[0].ID)
	assert.Equal(t, "report-mid00000", reports[1].ID)
	assert.Equal(t, "report-old00000", reports[2].ID)
}

func TestListRecentLimit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		report := testReport("", base.Add(time.Duration(i)*time.Minute))
		report.ID = ""
		require.NoError(t, store.Save(ctx, report))
	}

	reports, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, reports, 2)

	// Non-positive limits fall back to the default
	reports, err = store.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, reports, 5)
}
