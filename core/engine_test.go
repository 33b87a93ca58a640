package core

import (
	"errors"
	"testing"
	"time"

	"github.com/aimarketingflow/pawprint/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustFingerprint builds a validated fingerprint against the default registry.
func mustFingerprint(t testing.TB, id string, cats map[string]map[string]any) *schema.Fingerprint {
	t.Helper()
	fp, err := schema.NewFingerprint(schema.DefaultRegistry(), schema.Document{
		SourceID:    id,
		GeneratedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Categories:  cats,
	})
	require.NoError(t, err)
	return fp
}

// richFingerprint exercises every metric kind.
func richFingerprint(t testing.TB, id string) *schema.Fingerprint {
	return mustFingerprint(t, id, map[string]map[string]any{
		"structure": {
			"file_count": 120,
			"dir_count":  14,
			"extensions": map[string]any{".go": 40, ".md": 5, ".yaml": 3},
		},
		"content-entropy": {
			"mean_entropy":   4.2,
			"byte_histogram": map[string]any{"ascii": 900, "binary": 100},
		},
		"naming": {
			"convention": "snake_case",
			"top_names":  []any{"main.go", "util.go", map[string]any{"id": "r", "name": "README.md"}},
		},
		"permissions": {
			"world_writable": false,
			"executables":    []any{"bin/tool"},
		},
	})
}

func newTestEngine() *Engine {
	return NewEngine(schema.DefaultRegistry(), Options{})
}

func findChange(t *testing.T, changes []schema.Change, cat schema.CategoryName, metric string) schema.Change {
	t.Helper()
	for _, c := range changes {
		if c.Category == cat && c.Metric == metric {
			return c
		}
	}
	t.Fatalf("change %s.%s not found", cat, metric)
	return schema.Change{}
}

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine(schema.DefaultRegistry(), Options{MinSeverity: "bogus"})
	assert.Greater(t, e.opts.Workers, 0)
	assert.Equal(t, schema.SeverityLow, e.opts.MinSeverity)
	assert.Equal(t, DefaultClusterThreshold, e.opts.ClusterThreshold)
	assert.NotEmpty(t, e.opts.Actions)
}

func TestCompareFileCountScenario(t *testing.T) {
	e := newTestEngine()
	a := mustFingerprint(t, "a", map[string]map[string]any{"structure": {"file_count": 100}})
	b := mustFingerprint(t, "b", map[string]map[string]any{"structure": {"file_count": 150}})

	report, err := e.Compare(a, b)
	require.NoError(t, err)
	require.Len(t, report.Changes, 1)

	c := report.Changes[0]
	assert.Equal(t, schema.Modified, c.Kind)
	assert.InDelta(t, 0.05, c.Magnitude, 1e-12)
	assert.Equal(t, schema.SeverityLow, c.Severity)
	assert.Equal(t, 1, report.Summary.Modified)
	assert.Equal(t, 1, report.Summary.SeverityCounts[schema.SeverityLow])
}

func TestCompareSecurityEscalationScenario(t *testing.T) {
	e := newTestEngine()
	a := mustFingerprint(t, "a", map[string]map[string]any{"permissions": {}})
	b := mustFingerprint(t, "b", map[string]map[string]any{"permissions": {"world_writable": true, "owner": "root"}})

	report, err := e.Compare(a, b)
	require.NoError(t, err)

	ww := findChange(t, report.Changes, "permissions", "world_writable")
	assert.Equal(t, schema.Added, ww.Kind)
	assert.Equal(t, 1.0, ww.Magnitude)
	assert.Equal(t, schema.SeverityCritical, ww.Severity, "security-relevant addition escalates high to critical")

	owner := findChange(t, report.Changes, "permissions", "owner")
	assert.Equal(t, schema.SeverityHigh, owner.Severity, "plain addition keeps its band")
}

func TestCompareCategoryAbsentScenario(t *testing.T) {
	e := newTestEngine()
	a := mustFingerprint(t, "a", map[string]map[string]any{
		"naming":    {"convention": "snake_case", "hidden_files": 3},
		"structure": {"file_count": 10},
	})
	b := mustFingerprint(t, "b", map[string]map[string]any{"structure": {"file_count": 10}})

	report, err := e.Compare(a, b)
	require.NoError(t, err)

	var removed int
	for _, c := range report.Changes {
		if c.Category != "naming" {
			continue
		}
		removed++
		assert.Equal(t, schema.Removed, c.Kind)
		assert.Equal(t, 1.0, c.Magnitude)
		assert.Nil(t, c.After)
		assert.NotNil(t, c.Before)
	}
	assert.Equal(t, 2, removed)
	assert.Equal(t, 2, report.Summary.Removed)
	assert.Equal(t, 1, report.Summary.Unchanged)
}

func TestCompareSelfIsBoundary(t *testing.T) {
	e := newTestEngine()
	fp := richFingerprint(t, "self")

	report, err := e.Compare(fp, fp)
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Summary.DivergenceScore)
	assert.Empty(t, report.Insights)
	assert.Empty(t, report.Summary.Warnings)
	for _, c := range report.Changes {
		assert.Equal(t, schema.Unchanged, c.Kind, c.Path())
		assert.Equal(t, schema.SeverityInfo, c.Severity, c.Path())
	}
	assert.Equal(t, len(report.Changes), report.Summary.Unchanged)
	assert.Equal(t, schema.Neutral, report.Summary.Trend.Profile)
	assert.Empty(t, report.Summary.Trend.DominantCategory)
}

func TestCompareIncompatibleVersions(t *testing.T) {
	reg := schema.DefaultRegistry()
	e := NewEngine(reg, Options{})
	a, err := schema.NewFingerprint(reg, schema.Document{SourceID: "a", SchemaVersion: "1"})
	require.NoError(t, err)
	b, err := schema.NewFingerprint(reg, schema.Document{SourceID: "b", SchemaVersion: "2"})
	require.NoError(t, err)

	_, err = e.Compare(a, b)
	var inc *schema.IncompatibleSchemaError
	require.True(t, errors.As(err, &inc))
	assert.Equal(t, "1", inc.Before)
	assert.Equal(t, "2", inc.After)

	_, err = e.Diff(b, b)
	require.True(t, errors.As(err, &inc), "versions that differ from the registry are not comparable")
}

func TestCompareDeterministic(t *testing.T) {
	a := richFingerprint(t, "a")
	b := mustFingerprint(t, "b", map[string]map[string]any{
		"structure":   {"file_count": 300, "extensions": map[string]any{".go": 10, ".py": 10}},
		"naming":      {"convention": "camelCase", "top_names": []any{"util.go", "main.go"}},
		"permissions": {"world_writable": true, "setuid_count": 4},
		"timestamps":  {"span_days": 30},
	})

	serial, err := NewEngine(schema.DefaultRegistry(), Options{Workers: 1}).Compare(a, b)
	require.NoError(t, err)
	for range 5 {
		parallel, err := NewEngine(schema.DefaultRegistry(), Options{Workers: 8}).Compare(a, b)
		require.NoError(t, err)
		assert.Equal(t, serial, parallel)
	}
}

func TestDiffKindSymmetry(t *testing.T) {
	e := newTestEngine()
	a := richFingerprint(t, "a")
	b := mustFingerprint(t, "b", map[string]map[string]any{
		"structure":   {"file_count": 90, "max_depth": 7},
		"naming":      {"convention": "kebab-case", "top_names": []any{"README.md", "main.go"}},
		"permissions": {"world_writable": true},
	})

	ab, err := e.Diff(a, b)
	require.NoError(t, err)
	ba, err := e.Diff(b, a)
	require.NoError(t, err)
	require.Len(t, ba, len(ab))

	mirror := map[schema.ChangeKind]schema.ChangeKind{
		schema.Added:     schema.Removed,
		schema.Removed:   schema.Added,
		schema.Modified:  schema.Modified,
		schema.Unchanged: schema.Unchanged,
	}
	for i := range ab {
		assert.Equal(t, ab[i].Path(), ba[i].Path())
		assert.Equal(t, mirror[ab[i].Kind], ba[i].Kind, ab[i].Path())
		assert.InDelta(t, ab[i].Magnitude, ba[i].Magnitude, 1e-12, ab[i].Path())
	}
}

func TestDiffCompleteness(t *testing.T) {
	e := newTestEngine()
	a := richFingerprint(t, "a")
	b := mustFingerprint(t, "b", map[string]map[string]any{"timestamps": {"span_days": 3}})

	changes, err := e.Diff(a, b)
	require.NoError(t, err)

	want := map[string]struct{}{"timestamps.span_days": {}}
	for cat, block := range a.Categories {
		for metric := range block {
			want[string(cat)+"."+metric] = struct{}{}
		}
	}
	got := make(map[string]struct{}, len(changes))
	for _, c := range changes {
		got[c.Path()] = struct{}{}
	}
	assert.Equal(t, want, got)
}

func TestDiffOrderFollowsRegistry(t *testing.T) {
	e := newTestEngine()
	changes, err := e.Diff(richFingerprint(t, "a"), mustFingerprint(t, "b", nil))
	require.NoError(t, err)

	reg := schema.DefaultRegistry()
	last := -1
	for _, c := range changes {
		idx := reg.Index(c.Category)
		assert.GreaterOrEqual(t, idx, last)
		last = idx
	}
	assert.Equal(t, "structure.file_count", changes[0].Path())
	assert.Equal(t, "structure.dir_count", changes[1].Path())
}
