package core

import (
	"math"
	"testing"

	"github.com/aimarketingflow/pawprint/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBands(t *testing.T) {
	tests := []struct {
		name      string
		category  schema.CategoryName
		metric    string
		kind      schema.ChangeKind
		magnitude float64
		expected  schema.Severity
	}{
		{"unchanged is info", "structure", "file_count", schema.Unchanged, 0.9, schema.SeverityInfo},
		{"zero magnitude is info", "structure", "file_count", schema.Modified, 0, schema.SeverityInfo},
		{"low band edge", "structure", "file_count", schema.Modified, 0.1, schema.SeverityLow},
		{"medium band", "structure", "file_count", schema.Modified, 0.25, schema.SeverityMedium},
		{"high band", "structure", "file_count", schema.Modified, 0.6, schema.SeverityHigh},
		{"critical band", "structure", "file_count", schema.Modified, 0.61, schema.SeverityCritical},
		{"added plain metric", "structure", "file_count", schema.Added, 1, schema.SeverityCritical},
		{"removed security metric escalates", "permissions", "setuid_count", schema.Removed, 1, schema.SeverityCritical},
		{"modified security metric keeps band", "permissions", "setuid_count", schema.Modified, 0.4, schema.SeverityMedium},
		{"per-category thresholds", "permissions", "owner", schema.Modified, 0.45, schema.SeverityMedium},
		{"same magnitude elsewhere", "structure", "dir_count", schema.Modified, 0.45, schema.SeverityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			out, anoms := e.Classify([]schema.Change{{Category: tt.category, Metric: tt.metric, Kind: tt.kind, Magnitude: tt.magnitude}}, nil, nil)
			assert.Empty(t, anoms)
			assert.Equal(t, tt.expected, out[0].Severity)
		})
	}
}

func TestClassifyUnmappedMagnitude(t *testing.T) {
	for _, m := range []float64{math.NaN(), -0.1, 1.5} {
		e := newTestEngine()
		out, anoms := e.Classify([]schema.Change{{Category: "structure", Metric: "file_count", Kind: schema.Modified, Magnitude: m}}, nil, nil)
		assert.Equal(t, schema.SeverityMedium, out[0].Severity)
		require.Len(t, anoms, 1)
		assert.Equal(t, schema.AnomalyUnmappedSeverity, anoms[0].Code)
	}
}

func TestClassifyScoreShift(t *testing.T) {
	reg := schema.DefaultRegistry()
	reg.Categories[0].ScoreShift = 0.1
	e := NewEngine(reg, Options{})

	change := schema.Change{Category: "structure", Metric: "file_count", Kind: schema.Modified, Magnitude: 0.05}
	before := schema.ScoreVector{{Category: "structure", Score: 0.1}}

	out, _ := e.Classify([]schema.Change{change}, before, schema.ScoreVector{{Category: "structure", Score: 0.3}})
	assert.Equal(t, schema.SeverityMedium, out[0].Severity, "large category shift escalates")

	out, _ = e.Classify([]schema.Change{change}, before, schema.ScoreVector{{Category: "structure", Score: 0.15}})
	assert.Equal(t, schema.SeverityLow, out[0].Severity)

	out, _ = newTestEngine().Classify([]schema.Change{change}, before, schema.ScoreVector{{Category: "structure", Score: 0.9}})
	assert.Equal(t, schema.SeverityLow, out[0].Severity, "disabled by default")
}

func TestClassifyThresholdOverride(t *testing.T) {
	reg, err := schema.DefaultRegistry().WithThresholds(map[schema.CategoryName]schema.Thresholds{
		"structure": {Low: 0.01, Medium: 0.02, High: 0.04, Critical: 1},
	})
	require.NoError(t, err)
	e := NewEngine(reg, Options{})
	out, _ := e.Classify([]schema.Change{{Category: "structure", Metric: "file_count", Kind: schema.Modified, Magnitude: 0.05}}, nil, nil)
	assert.Equal(t, schema.SeverityCritical, out[0].Severity)
}

func TestClassifyCriticalBelowOne(t *testing.T) {
	reg, err := schema.DefaultRegistry().WithThresholds(map[schema.CategoryName]schema.Thresholds{
		"permissions": {Low: 0.1, Medium: 0.2, High: 0.3, Critical: 0.5},
	})
	require.NoError(t, err)
	e := NewEngine(reg, Options{})

	tests := []struct {
		name      string
		metric    string
		kind      schema.ChangeKind
		magnitude float64
		expected  schema.Severity
	}{
		{"inside critical band", "owner", schema.Modified, 0.4, schema.SeverityCritical},
		{"above critical bound", "owner", schema.Modified, 0.9, schema.SeverityCritical},
		{"added security metric", "world_writable", schema.Added, 1, schema.SeverityCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, anoms := e.Classify([]schema.Change{{Category: "permissions", Metric: tt.metric, Kind: tt.kind, Magnitude: tt.magnitude}}, nil, nil)
			assert.Empty(t, anoms)
			assert.Equal(t, tt.expected, out[0].Severity)
		})
	}
}
