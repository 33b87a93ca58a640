package core

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/internal/iocache"
	"github.com/aimarketingflow/pawprint/internal/loader"
	"github.com/aimarketingflow/pawprint/internal/outwriter"
	"github.com/aimarketingflow/pawprint/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const beforeDoc = `{
  "source_id": "host-a",
  "schema_version": "1",
  "generated_at": "2024-05-01T10:00:00Z",
  "categories": {
    "structure": {"file_count": 100, "dir_count": 12},
    "permissions": {"world_writable": false, "setuid_count": 0}
  }
}`

const afterDoc = `{
  "source_id": "host-a-later",
  "schema_version": "1",
  "generated_at": "2024-06-01T10:00:00Z",
  "categories": {
    "structure": {"file_count": 400, "dir_count": 12},
    "permissions": {"world_writable": true, "setuid_count": 3}
  }
}`

const otherVersionDoc = `{
  "source_id": "host-v2",
  "schema_version": "2",
  "categories": {"structure": {"file_count": 1}}
}`

// writeDoc writes a fingerprint document into dir and returns its path.
func writeDoc(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// testConfig returns a validated config over the default registry.
func testConfig(inputs ...string) *contract.Config {
	return &contract.Config{
		Inputs:           inputs,
		Workers:          2,
		Precision:        3,
		Output:           schema.JSONOut,
		Limit:            contract.DefaultListLimit,
		Registry:         schema.DefaultRegistry(),
		MinSeverity:      schema.SeverityLow,
		ClusterThreshold: contract.DefaultClusterThreshold,
		Excludes:         contract.DefaultExcludes,
	}
}

// quietContext suppresses logging and captures writer output in buf.
func quietContext(buf *bytes.Buffer) context.Context {
	return WithOutWriter(WithSuppressHeader(context.Background()), outwriter.NewOutWriterTo(buf))
}

func newLoader(t *testing.T) *loader.Loader {
	t.Helper()
	l, err := loader.New()
	require.NoError(t, err)
	return l
}

func noStores() *iocache.MockStoreManager {
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetFingerprintStore").Return(nil).Maybe()
	mgr.On("GetComparisonStore").Return(nil).Maybe()
	return mgr
}

func TestExecuteCompare(t *testing.T) {
	dir := t.TempDir()
	before := writeDoc(t, dir, "before.json", beforeDoc)
	after := writeDoc(t, dir, "after.json", afterDoc)

	var buf bytes.Buffer
	err := ExecuteCompare(quietContext(&buf), testConfig(before, after), newLoader(t), noStores())
	require.NoError(t, err)

	var report schema.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "host-a", report.Before.SourceID)
	assert.Equal(t, "host-a-later", report.After.SourceID)
	assert.Equal(t, "1", report.SchemaVersion)
	assert.Positive(t, report.Summary.Modified)
	assert.NotEmpty(t, report.Insights)
}

func TestGetCompareResultsErrors(t *testing.T) {
	dir := t.TempDir()
	before := writeDoc(t, dir, "before.json", beforeDoc)
	v2 := writeDoc(t, dir, "v2.json", otherVersionDoc)
	ctx := WithSuppressHeader(context.Background())

	t.Run("wrong input count", func(t *testing.T) {
		_, err := GetCompareResults(ctx, testConfig(before), newLoader(t), noStores())
		assert.ErrorContains(t, err, "exactly 2")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := GetCompareResults(ctx, testConfig(before, filepath.Join(dir, "nope.json")), newLoader(t), noStores())
		assert.Error(t, err)
	})

	t.Run("incompatible versions", func(t *testing.T) {
		_, err := GetCompareResults(ctx, testConfig(before, v2), newLoader(t), noStores())
		var incompatible *schema.IncompatibleSchemaError
		assert.ErrorAs(t, err, &incompatible)
	})
}

func TestGetCompareResultsPersists(t *testing.T) {
	dir := t.TempDir()
	before := writeDoc(t, dir, "before.json", beforeDoc)
	after := writeDoc(t, dir, "after.json", afterDoc)

	fpStore := &iocache.MockFingerprintStore{}
	fpStore.On("Put", mock.Anything, mock.MatchedBy(func(r schema.FingerprintRecord) bool {
		return r.SourceID == "host-a" || r.SourceID == "host-a-later"
	})).Return(nil).Twice()

	cmpStore := &iocache.MockComparisonStore{}
	cmpStore.On("RecordComparison", mock.Anything, mock.MatchedBy(func(r schema.ComparisonRecord) bool {
		return r.RunID != "" && r.BeforeSource == "host-a" && r.AfterSource == "host-a-later" && len(r.Report) > 0
	}), mock.Anything).Return(nil).Once()

	mgr := &iocache.MockStoreManager{}
	mgr.On("GetFingerprintStore").Return(fpStore)
	mgr.On("GetComparisonStore").Return(cmpStore)

	cfg := testConfig(before, after)
	cfg.Persist = true
	report, err := GetCompareResults(WithSuppressHeader(context.Background()), cfg, newLoader(t), mgr)
	require.NoError(t, err)
	assert.NotNil(t, report)

	fpStore.AssertExpectations(t)
	cmpStore.AssertExpectations(t)
}

func TestGetCompareResultsStoreFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	before := writeDoc(t, dir, "before.json", beforeDoc)
	after := writeDoc(t, dir, "after.json", afterDoc)

	cmpStore := &iocache.MockComparisonStore{}
	cmpStore.On("RecordComparison", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	mgr := &iocache.MockStoreManager{}
	mgr.On("GetFingerprintStore").Return(nil)
	mgr.On("GetComparisonStore").Return(cmpStore)

	cfg := testConfig(before, after)
	cfg.Persist = true
	_, err := GetCompareResults(WithSuppressHeader(context.Background()), cfg, newLoader(t), mgr)
	assert.NoError(t, err)
	cmpStore.AssertExpectations(t)
}

func TestResolveFingerprintFromStore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	doc, err := json.Marshal(schema.Document{
		SourceID:      "stored-host",
		SchemaVersion: "1",
		Categories:    map[string]map[string]any{"structure": {"file_count": 5}},
	})
	require.NoError(t, err)

	fpStore := &iocache.MockFingerprintStore{}
	fpStore.On("Get", mock.Anything, "stored-host").Return(schema.FingerprintRecord{SourceID: "stored-host", Document: doc}, nil)
	fpStore.On("Get", mock.Anything, "ghost").Return(schema.FingerprintRecord{}, sql.ErrNoRows)
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetFingerprintStore").Return(fpStore)

	fp, err := resolveFingerprint(ctx, cfg, newLoader(t), mgr, StorePrefix+"stored-host")
	require.NoError(t, err)
	assert.Equal(t, "stored-host", fp.SourceID)
	v, ok := fp.Metric("structure", "file_count")
	require.True(t, ok)
	assert.Equal(t, 5.0, v.Num)

	_, err = resolveFingerprint(ctx, cfg, newLoader(t), mgr, StorePrefix+"ghost")
	assert.ErrorContains(t, err, `no stored fingerprint for source "ghost"`)

	_, err = resolveFingerprint(ctx, cfg, newLoader(t), noStores(), StorePrefix+"stored-host")
	assert.ErrorContains(t, err, "not enabled")
}

func TestExecuteScore(t *testing.T) {
	dir := t.TempDir()
	before := writeDoc(t, dir, "before.json", beforeDoc)
	after := writeDoc(t, dir, "after.json", afterDoc)

	var buf bytes.Buffer
	err := ExecuteScore(quietContext(&buf), testConfig(before, after), newLoader(t), noStores())
	require.NoError(t, err)

	var results []schema.ScoreResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "host-a", results[0].SourceID)
	assert.Len(t, results[0].Scores, len(schema.DefaultRegistry().Categories))
	for _, cs := range results[1].Scores {
		assert.GreaterOrEqual(t, cs.Score, 0.0)
		assert.LessOrEqual(t, cs.Score, 1.0)
	}

	_, err = GetScoreResults(context.Background(), testConfig(), newLoader(t), noStores())
	assert.Error(t, err)
}

func TestExecuteValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeDoc(t, dir, "good.json", beforeDoc)
	bad := writeDoc(t, dir, "bad.json", `{"source_id": "x", "categories": {"structure": {"file_count": "many"}}}`)

	var buf bytes.Buffer
	err := ExecuteValidate(quietContext(&buf), testConfig(good), newLoader(t), noStores())
	require.NoError(t, err)

	buf.Reset()
	err = ExecuteValidate(quietContext(&buf), testConfig(good, bad), newLoader(t), noStores())
	require.ErrorContains(t, err, "1 of 2 documents failed validation")

	var results []schema.ValidationResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &results))
	require.Len(t, results, 2)
	assert.True(t, results[0].Valid)
	assert.Equal(t, "host-a", results[0].SourceID)
	assert.False(t, results[1].Valid)
	assert.NotEmpty(t, results[1].Error)
}

func TestGetValidationResultsExpandsDirectories(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.json", beforeDoc)
	writeDoc(t, dir, "b.json", afterDoc)
	writeDoc(t, dir, "notes.txt", "ignored")

	results, err := GetValidationResults(context.Background(), testConfig(dir), newLoader(t), noStores())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, filepath.Join(dir, "a.json"), results[0].Location)
	assert.Equal(t, filepath.Join(dir, "b.json"), results[1].Location)
}

func TestExecuteBatch(t *testing.T) {
	dir := t.TempDir()
	baseline := writeDoc(t, dir, "baseline.json", beforeDoc)
	targets := filepath.Join(dir, "targets")
	require.NoError(t, os.Mkdir(targets, 0o755))
	writeDoc(t, targets, "a.json", afterDoc)
	writeDoc(t, targets, "b.json", otherVersionDoc)
	writeDoc(t, targets, "c.json", `{"categories": {}}`)

	var buf bytes.Buffer
	err := ExecuteBatch(quietContext(&buf), testConfig(baseline, targets), newLoader(t), noStores())
	require.NoError(t, err)

	var result schema.BatchResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "host-a", result.Baseline)
	require.Len(t, result.Entries, 3)

	assert.Equal(t, "host-a-later", result.Entries[0].Target)
	assert.NotNil(t, result.Entries[0].Report)
	assert.Empty(t, result.Entries[0].Error)

	assert.Equal(t, "host-v2", result.Entries[1].Target)
	assert.Nil(t, result.Entries[1].Report)
	assert.Contains(t, result.Entries[1].Error, "incompatible")

	// A document that fails to load keeps its file path as target.
	assert.Equal(t, filepath.Join(targets, "c.json"), result.Entries[2].Target)
	assert.NotEmpty(t, result.Entries[2].Error)
}

func TestGetBatchResultsErrors(t *testing.T) {
	dir := t.TempDir()
	baseline := writeDoc(t, dir, "baseline.json", beforeDoc)
	ctx := WithSuppressHeader(context.Background())

	_, err := GetBatchResults(ctx, testConfig(baseline), newLoader(t), noStores())
	assert.ErrorContains(t, err, "at least 1 target")

	_, err = GetBatchResults(ctx, testConfig(filepath.Join(dir, "missing.json"), baseline), newLoader(t), noStores())
	assert.ErrorContains(t, err, "failed to load baseline")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = GetBatchResults(cancelled, testConfig(baseline, baseline), newLoader(t), noStores())
	assert.Error(t, err)
}

func TestExecuteRegistry(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.Output = schema.TextOut
	require.NoError(t, ExecuteRegistry(quietContext(&buf), cfg, nil, nil))
	assert.Contains(t, buf.String(), "Pawprint Registry (version 1)")
	assert.Contains(t, buf.String(), "world_writable")
}

func TestExecuteStoreImport(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.json", beforeDoc)
	writeDoc(t, dir, "b.json", afterDoc)

	fpStore := &iocache.MockFingerprintStore{}
	fpStore.On("Put", mock.Anything, mock.MatchedBy(func(r schema.FingerprintRecord) bool {
		var doc schema.Document
		return json.Unmarshal(r.Document, &doc) == nil && doc.SourceID == r.SourceID
	})).Return(nil).Twice()
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetFingerprintStore").Return(fpStore)

	err := ExecuteStoreImport(WithSuppressHeader(context.Background()), testConfig(dir), newLoader(t), mgr)
	require.NoError(t, err)
	fpStore.AssertExpectations(t)

	err = ExecuteStoreImport(context.Background(), testConfig(dir), newLoader(t), noStores())
	assert.ErrorContains(t, err, "not enabled")
}

func TestStoreBackendNone(t *testing.T) {
	require.NoError(t, iocache.InitStores(schema.NoneBackend, "", 0))
	require.NotNil(t, iocache.Manager.GetFingerprintStore())

	dir := t.TempDir()
	writeDoc(t, dir, "a.json", beforeDoc)
	after := writeDoc(t, t.TempDir(), "b.json", afterDoc)
	cfg := testConfig(dir)
	cfg.StoreBackend = schema.NoneBackend

	t.Run("import", func(t *testing.T) {
		err := ExecuteStoreImport(WithSuppressHeader(context.Background()), cfg, newLoader(t), iocache.Manager)
		assert.ErrorContains(t, err, "not enabled")
	})

	t.Run("list", func(t *testing.T) {
		err := ExecuteStoreList(WithSuppressHeader(context.Background()), cfg, nil, iocache.Manager)
		assert.ErrorContains(t, err, "not enabled")
	})

	t.Run("store input", func(t *testing.T) {
		var buf bytes.Buffer
		compareCfg := testConfig(StorePrefix+"host-a", after)
		compareCfg.StoreBackend = schema.NoneBackend
		err := ExecuteCompare(quietContext(&buf), compareCfg, newLoader(t), iocache.Manager)
		assert.ErrorContains(t, err, "fingerprint store is not enabled")
	})
}

func TestExecuteStoreList(t *testing.T) {
	cmpStore := &iocache.MockComparisonStore{}
	cmpStore.On("ListComparisons", mock.Anything, 5).Return([]schema.ComparisonRecord{
		{RunID: "0123456789", BeforeSource: "a", AfterSource: "b", SchemaVersion: "1", HighestSeverity: "high"},
	}, nil)
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetComparisonStore").Return(cmpStore)

	cfg := testConfig()
	cfg.Limit = 5
	var buf bytes.Buffer
	require.NoError(t, ExecuteStoreList(quietContext(&buf), cfg, nil, mgr))
	assert.Contains(t, buf.String(), `"run_id": "0123456789"`)
	cmpStore.AssertExpectations(t)

	assert.Error(t, ExecuteStoreList(context.Background(), cfg, nil, noStores()))
}
