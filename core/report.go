package core

import (
	"math"

	"github.com/aimarketingflow/pawprint/schema"
)

// Parts are the outputs of the earlier pipeline stages.
type Parts struct {
	Before, After             *schema.Fingerprint
	BeforeScores, AfterScores schema.ScoreVector
	Changes                   []schema.Change
	Insights                  []schema.Insight
	Charts                    schema.ChartData
	Anomalies                 []schema.Anomaly
}

// Assemble composes the final report.
func (e *Engine) Assemble(p Parts) *schema.Report {
	summary := schema.Summary{
		SeverityCounts:  make(map[schema.Severity]int, len(schema.AllSeverities)),
		DivergenceScore: e.Divergence(p.BeforeScores, p.AfterScores),
		Trend:           e.Trend(p.Changes, p.BeforeScores, p.AfterScores),
		Warnings:        warnings(p.Anomalies),
	}
	for _, sev := range schema.AllSeverities {
		summary.SeverityCounts[sev] = 0
	}
	for _, c := range p.Changes {
		switch c.Kind {
		case schema.Added:
			summary.Added++
		case schema.Removed:
			summary.Removed++
		case schema.Modified:
			summary.Modified++
		case schema.Unchanged:
			summary.Unchanged++
		}
		summary.SeverityCounts[c.Severity]++
	}

	changes := p.Changes
	if changes == nil {
		changes = []schema.Change{}
	}
	insights := p.Insights
	if insights == nil {
		insights = []schema.Insight{}
	}
	return &schema.Report{
		SchemaVersion: p.Before.SchemaVersion,
		Before:        p.Before.Describe(p.BeforeScores),
		After:         p.After.Describe(p.AfterScores),
		Summary:       summary,
		Changes:       changes,
		Insights:      insights,
		ChartData:     p.Charts,
	}
}

// Divergence is the weighted mean of absolute per-category score deltas,
// using the registry category weights.
func (e *Engine) Divergence(before, after schema.ScoreVector) float64 {
	var num, den float64
	for _, spec := range e.reg.Categories {
		d := math.Abs(after.Get(spec.Name) - before.Get(spec.Name))
		num += spec.Weight * d
		den += spec.Weight
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// warnings renders anomalies as distinct strings in first-seen order.
func warnings(anoms []schema.Anomaly) []string {
	out := make([]string, 0, len(anoms))
	seen := make(map[string]struct{}, len(anoms))
	for _, a := range anoms {
		s := a.String()
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
