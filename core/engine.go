// Package core has core logic for scoring, diffing, classifying and reporting on fingerprints.
package core

import (
	"runtime"

	"github.com/aimarketingflow/pawprint/schema"
)

// Default engine options.
const (
	DefaultClusterThreshold = 3
	DefaultMinSeverity      = schema.SeverityLow
)

// Options tune the engine. The zero value is usable.
type Options struct {
	Workers          int             // bound on per-category fan-out
	MinSeverity      schema.Severity // lowest tier that gets an insight
	ClusterThreshold int             // high/critical count above which a category is clustered
	IncludeUnchanged bool            // emit insights for unchanged/info changes too
	Actions          ActionTable     // nil uses DefaultActions
}

// Engine compares fingerprints against one registry. It holds no mutable
// state, so a single Engine may serve concurrent comparisons.
type Engine struct {
	reg  *schema.Registry
	opts Options
}

// NewEngine creates an engine over reg, filling unset options with defaults.
func NewEngine(reg *schema.Registry, opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.MinSeverity.Rank() < 0 {
		opts.MinSeverity = DefaultMinSeverity
	}
	if opts.ClusterThreshold <= 0 {
		opts.ClusterThreshold = DefaultClusterThreshold
	}
	if opts.Actions == nil {
		opts.Actions = DefaultActions()
	}
	return &Engine{reg: reg, opts: opts}
}

// Registry returns the registry the engine was built with.
func (e *Engine) Registry() *schema.Registry { return e.reg }

// Compare runs the full pipeline over two fingerprints.
// Schema errors are returned as is; anomalies end up in the report warnings.
func (e *Engine) Compare(before, after *schema.Fingerprint) (*schema.Report, error) {
	if err := e.checkComparable(before, after); err != nil {
		return nil, err
	}

	beforeScores, beforeAnoms := e.Score(before)
	afterScores, afterAnoms := e.Score(after)

	changes, err := e.Diff(before, after)
	if err != nil {
		return nil, err
	}

	classified, classAnoms := e.Classify(changes, beforeScores, afterScores)
	insights, insightAnoms := e.Insights(classified)
	charts := e.Charts(classified, before, after, beforeScores, afterScores)

	anomalies := make([]schema.Anomaly, 0, len(beforeAnoms)+len(afterAnoms)+len(classAnoms)+len(insightAnoms))
	anomalies = append(anomalies, beforeAnoms...)
	anomalies = append(anomalies, afterAnoms...)
	anomalies = append(anomalies, classAnoms...)
	anomalies = append(anomalies, insightAnoms...)

	return e.Assemble(Parts{
		Before:       before,
		After:        after,
		BeforeScores: beforeScores,
		AfterScores:  afterScores,
		Changes:      classified,
		Insights:     insights,
		Charts:       charts,
		Anomalies:    anomalies,
	}), nil
}

// checkComparable rejects fingerprints whose schema versions differ from
// each other or from the registry.
func (e *Engine) checkComparable(before, after *schema.Fingerprint) error {
	if before.SchemaVersion != after.SchemaVersion {
		return &schema.IncompatibleSchemaError{Before: before.SchemaVersion, After: after.SchemaVersion}
	}
	if before.SchemaVersion != e.reg.Version {
		return &schema.IncompatibleSchemaError{Before: before.SchemaVersion, After: e.reg.Version}
	}
	return nil
}
