package iocache

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aimarketingflow/pawprint/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "pawprint_test.db")
}

func sampleComparison(runID string, created time.Time) (schema.ComparisonRecord, []schema.ChangeRecord) {
	before := "100"
	after := "150"
	record := schema.ComparisonRecord{
		RunID:           runID,
		BeforeSource:    "host-a",
		AfterSource:     "host-b",
		SchemaVersion:   "1",
		CreatedAt:       created,
		Modified:        1,
		Added:           1,
		DivergenceScore: 0.125,
		HighestSeverity: "critical",
		TrendProfile:    "moderate_positive",
		Report:          []byte(`{"summary":{}}`),
	}
	changes := []schema.ChangeRecord{
		{RunID: runID, Seq: 0, Category: "structure", Metric: "file_count", Kind: "modified", Before: &before, After: &after, Magnitude: 0.05, Severity: "low"},
		{RunID: runID, Seq: 1, Category: "permissions", Metric: "world_writable", Kind: "added", After: &after, Magnitude: 1, Severity: "critical"},
	}
	return record, changes
}

func TestFingerprintStore_NoneBackend(t *testing.T) {
	store, err := NewFingerprintStore(schema.NoneBackend, "", 0)
	require.NoError(t, err)

	ctx := context.Background()
	assert.NoError(t, store.Put(ctx, schema.FingerprintRecord{SourceID: "a"}))

	_, err = store.Get(ctx, "a")
	assert.True(t, errors.Is(err, sql.ErrNoRows))

	records, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, records)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestFingerprintStore_SQLite(t *testing.T) {
	store, err := NewFingerprintStore(schema.SQLiteBackend, tempDBPath(t), 2)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	generated := time.Date(2024, 3, 1, 10, 0, 0, 500, time.FixedZone("X", 3600))
	record := schema.FingerprintRecord{
		SourceID:      "host-a",
		SchemaVersion: "1",
		GeneratedAt:   generated,
		StoredAt:      generated.Add(time.Minute),
		Document:      []byte(`{"source_id":"host-a"}`),
	}
	require.NoError(t, store.Put(ctx, record))
	require.NoError(t, store.Put(ctx, schema.FingerprintRecord{SourceID: "host-b", SchemaVersion: "1", Document: []byte(`{}`)}))

	t.Run("cached read", func(t *testing.T) {
		got, err := store.Get(ctx, "host-a")
		require.NoError(t, err)
		assert.True(t, got.GeneratedAt.Equal(generated))
		assert.Equal(t, record.Document, got.Document)
	})

	t.Run("database read after purge", func(t *testing.T) {
		store.cache.Purge()
		got, err := store.Get(ctx, "host-a")
		require.NoError(t, err)
		assert.True(t, got.GeneratedAt.Equal(generated), "time survives the text round trip")
		assert.Equal(t, time.UTC, got.GeneratedAt.Location())
		assert.Equal(t, string(record.Document), string(got.Document))
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := store.Get(ctx, "nope")
		assert.True(t, errors.Is(err, sql.ErrNoRows))
	})

	t.Run("upsert replaces", func(t *testing.T) {
		updated := record
		updated.Document = []byte(`{"source_id":"host-a","v":2}`)
		require.NoError(t, store.Put(ctx, updated))
		store.cache.Purge()
		got, err := store.Get(ctx, "host-a")
		require.NoError(t, err)
		assert.Equal(t, string(updated.Document), string(got.Document))
	})

	t.Run("list and status", func(t *testing.T) {
		records, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "host-a", records[0].SourceID)
		assert.Equal(t, "host-b", records[1].SourceID)

		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.True(t, status.Connected)
		assert.Equal(t, 2, status.TotalFingerprints)
		assert.Equal(t, int64(2), status.TableSizes[fingerprintsTable])
	})

	t.Run("empty source id", func(t *testing.T) {
		assert.Error(t, store.Put(ctx, schema.FingerprintRecord{}))
	})
}

func TestComparisonStore_NoneBackend(t *testing.T) {
	store, err := NewComparisonStore(schema.NoneBackend, "")
	require.NoError(t, err)

	ctx := context.Background()
	record, changes := sampleComparison("run-1", time.Now())
	assert.NoError(t, store.RecordComparison(ctx, record, changes))

	runs, err := store.ListComparisons(ctx, 10)
	assert.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, store.Close())
}

func TestComparisonStore_SQLite(t *testing.T) {
	store, err := NewComparisonStore(schema.SQLiteBackend, tempDBPath(t))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		// The 0.5s offset checks that fixed-width text times still sort correctly.
		record, changes := sampleComparison(id, base.Add(time.Duration(i)*1500*time.Millisecond))
		require.NoError(t, store.RecordComparison(ctx, record, changes))
	}

	t.Run("list newest first", func(t *testing.T) {
		runs, err := store.ListComparisons(ctx, 0)
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, "run-3", runs[0].RunID)
		assert.Equal(t, "run-1", runs[2].RunID)
		assert.Equal(t, int32(1), runs[0].Added)
		assert.InDelta(t, 0.125, runs[0].DivergenceScore, 1e-12)
		assert.Equal(t, `{"summary":{}}`, string(runs[0].Report))
	})

	t.Run("list with limit", func(t *testing.T) {
		runs, err := store.ListComparisons(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, runs, 2)
	})

	t.Run("changes keep nulls and order", func(t *testing.T) {
		changes, err := store.ListChanges(ctx)
		require.NoError(t, err)
		require.Len(t, changes, 6)
		assert.Equal(t, "run-1", changes[0].RunID)
		assert.Equal(t, int32(0), changes[0].Seq)
		require.NotNil(t, changes[0].Before)
		assert.Equal(t, "100", *changes[0].Before)
		assert.Nil(t, changes[1].Before)
	})

	t.Run("duplicate run is rolled back", func(t *testing.T) {
		record, changes := sampleComparison("run-1", base)
		assert.Error(t, store.RecordComparison(ctx, record, changes))
		all, err := store.ListChanges(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 6)
	})

	t.Run("status", func(t *testing.T) {
		status, err := store.GetStatus()
		require.NoError(t, err)
		assert.Equal(t, 3, status.TotalComparisons)
		assert.Equal(t, "1", status.SchemaVersion)
		assert.Equal(t, int64(6), status.TableSizes[changesTable])
		assert.True(t, status.LastComparison.Equal(base.Add(3*time.Second)))
		assert.True(t, status.OldestComparison.Equal(base))
	})

	t.Run("missing run id", func(t *testing.T) {
		assert.Error(t, store.RecordComparison(ctx, schema.ComparisonRecord{}, nil))
	})
}

func TestStoredTimeScan(t *testing.T) {
	ref := time.Date(2024, 1, 2, 3, 4, 5, 600000000, time.UTC)
	tests := []struct {
		name    string
		src     any
		want    time.Time
		wantErr bool
	}{
		{"native", ref.In(time.FixedZone("Y", -7200)), ref, false},
		{"sqlite text", ref.Format(sqliteTimeLayout), ref, false},
		{"mysql bytes", []byte("2024-01-02 03:04:05.6"), ref, false},
		{"null", nil, time.Time{}, false},
		{"garbage", "yesterday", time.Time{}, true},
		{"number", 42, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st storedTime
			err := st.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(st.Time), "got %s", st.Time)
		})
	}
}

func TestBindVarsAndQuoting(t *testing.T) {
	assert.Equal(t, "?, ?, ?", bindVars(schema.SQLiteBackend, 3))
	assert.Equal(t, "?, ?", bindVars(schema.MySQLBackend, 2))
	assert.Equal(t, "$1, $2, $3", bindVars(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "`t`", quoteTableName("t", schema.MySQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.PostgreSQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.SQLiteBackend))
}

func TestUnsupportedBackend(t *testing.T) {
	_, err := NewComparisonStore("redis", "")
	assert.Error(t, err)
	_, err = NewFingerprintStore("redis", "", 0)
	assert.Error(t, err)
}
