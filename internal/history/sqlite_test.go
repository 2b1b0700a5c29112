package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardlang/ardoc/internal/site"
)

func testRecord(start time.Time, outcome string) *Record {
	return &Record{
		BuildID:       uuid.NewString(),
		Outcome:       outcome,
		Pages:         3,
		RenderedPages: 3,
		Assets:        1,
		ContentHash:   "abc",
		Start:         start,
		End:           start.Add(2 * time.Second),
		Report:        []byte(`{"stage_durations":{}}`),
	}
}

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func TestRecordAndFetchBuild(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	rec := testRecord(time.Now().Add(-time.Hour), "success")
	require.NoError(t, store.RecordBuild(ctx, rec))

	got, err := store.ByBuildID(ctx, rec.BuildID)
	require.NoError(t, err)
	assert.Equal(t, rec.BuildID, got.BuildID)
	assert.Equal(t, "success", got.Outcome)
	assert.Equal(t, 3, got.Pages)
	assert.Equal(t, 2*time.Second, got.Duration())
	assert.JSONEq(t, `{"stage_durations":{}}`, string(got.Report))
}

func TestByBuildID_NotFound(t *testing.T) {
	store := openStore(t)
	_, err := store.ByBuildID(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecent_NewestFirstWithLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 5; i++ {
		rec := testRecord(base.Add(time.Duration(i)*time.Minute), "success")
		ids = append(ids, rec.BuildID)
		require.NoError(t, store.RecordBuild(ctx, rec))
	}

	recent, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, ids[4], recent[0].BuildID)
	assert.Equal(t, ids[2], recent[2].BuildID)
}

func TestRange_FiltersByStartTime(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Now().Add(-3 * time.Hour)
	early := testRecord(base, "failed")
	mid := testRecord(base.Add(time.Hour), "success")
	late := testRecord(base.Add(2*time.Hour), "warning")
	for _, rec := range []*Record{early, mid, late} {
		require.NoError(t, store.RecordBuild(ctx, rec))
	}

	got, err := store.Range(ctx, base.Add(30*time.Minute), base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mid.BuildID, got[0].BuildID)
}

func TestFromReport(t *testing.T) {
	report := &site.BuildReport{
		BuildID:         uuid.NewString(),
		Pages:           2,
		RenderedPages:   2,
		Assets:          1,
		ContentHash:     "hash",
		Start:           time.Now().Add(-time.Second),
		End:             time.Now(),
		Outcome:         site.OutcomeWarning,
		Warnings:        []error{assert.AnError},
		StageDurations:  map[string]time.Duration{"render_pages": time.Second},
		StageErrorKinds: map[string]string{},
		StageCounts:     map[string]site.StageCount{},
	}

	rec, err := FromReport(report)
	require.NoError(t, err)
	assert.Equal(t, report.BuildID, rec.BuildID)
	assert.Equal(t, "warning", rec.Outcome)
	assert.Equal(t, 1, rec.Warnings)
	assert.Contains(t, string(rec.Report), "render_pages")
}
