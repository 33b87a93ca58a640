package core

import (
	"time"

	"github.com/aimarketingflow/pawprint/schema"
)

// Charts extracts every chart kind. Labels are all registry categories so
// each series is aligned; missing data contributes 0.
func (e *Engine) Charts(changes []schema.Change, before, after *schema.Fingerprint, beforeScores, afterScores schema.ScoreVector) schema.ChartData {
	in := chartInput{
		labels:       e.labels(),
		names:        e.reg.CategoryNames(),
		changes:      changes,
		beforeScores: beforeScores,
		afterScores:  afterScores,
		timeAxis:     []time.Time{before.GeneratedAt, after.GeneratedAt},
		registry:     e.reg,
	}
	return schema.ChartData{
		Bar:     barChart(in),
		Line:    lineChart(in),
		Pie:     pieChart(in),
		Radar:   radarChart(in),
		Heatmap: heatmapChart(in),
	}
}

type chartInput struct {
	labels       []string
	names        []schema.CategoryName
	changes      []schema.Change
	beforeScores schema.ScoreVector
	afterScores  schema.ScoreVector
	timeAxis     []time.Time
	registry     *schema.Registry
}

func (e *Engine) labels() []string {
	names := e.reg.CategoryNames()
	labels := make([]string, len(names))
	for i, n := range names {
		labels[i] = string(n)
	}
	return labels
}

func scoreValues(names []schema.CategoryName, scores schema.ScoreVector) []float64 {
	values := make([]float64, len(names))
	for i, n := range names {
		values[i] = scores.Get(n)
	}
	return values
}

func barChart(in chartInput) schema.Series {
	before := scoreValues(in.names, in.beforeScores)
	after := scoreValues(in.names, in.afterScores)
	delta := make([]float64, len(before))
	for i := range before {
		delta[i] = after[i] - before[i]
	}
	return schema.Series{
		Kind:   schema.BarChart,
		Title:  "Category scores",
		Labels: in.labels,
		Datasets: []schema.Dataset{
			{Name: "before", Values: before},
			{Name: "after", Values: after},
			{Name: "delta", Values: delta},
		},
	}
}

func lineChart(in chartInput) schema.Series {
	return schema.Series{
		Kind:   schema.LineChart,
		Title:  "Category scores over time",
		Labels: in.labels,
		Datasets: []schema.Dataset{
			{Name: "before", Values: scoreValues(in.names, in.beforeScores)},
			{Name: "after", Values: scoreValues(in.names, in.afterScores)},
		},
		TimeAxis: in.timeAxis,
	}
}

func pieChart(in chartInput) schema.Series {
	counts := changeCountsByCategory(in.registry, in.changes)
	var total float64
	for _, c := range counts {
		total += c
	}
	shares := make([]float64, len(counts))
	if total > 0 {
		for i, c := range counts {
			shares[i] = c / total
		}
	}
	return schema.Series{
		Kind:     schema.PieChart,
		Title:    "Share of changes by category",
		Labels:   in.labels,
		Datasets: []schema.Dataset{{Name: "changes", Values: shares}},
	}
}

func radarChart(in chartInput) schema.Series {
	return schema.Series{
		Kind:   schema.RadarChart,
		Title:  "Pattern profile",
		Labels: in.labels,
		Datasets: []schema.Dataset{
			{Name: "before", Values: scoreValues(in.names, in.beforeScores)},
			{Name: "after", Values: scoreValues(in.names, in.afterScores)},
		},
	}
}

func heatmapChart(in chartInput) schema.Series {
	rows := make([]schema.Dataset, len(schema.AllSeverities))
	yLabels := make([]string, len(schema.AllSeverities))
	for r, sev := range schema.AllSeverities {
		yLabels[r] = string(sev)
		rows[r] = schema.Dataset{Name: string(sev), Values: make([]float64, len(in.names))}
	}
	for _, c := range in.changes {
		r := c.Severity.Rank()
		col := in.registry.Index(c.Category)
		if r < 0 || col < 0 {
			continue
		}
		rows[r].Values[col]++
	}
	return schema.Series{
		Kind:     schema.HeatmapChart,
		Title:    "Changes by severity and category",
		Labels:   in.labels,
		Datasets: rows,
		YLabels:  yLabels,
	}
}
