package core

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aimarketingflow/pawprint/core/algo"
	"github.com/aimarketingflow/pawprint/schema"
)

// Insights explains classified changes. Categories with more than the
// cluster threshold of high or critical changes get one aggregate insight
// for those changes; every other qualifying change gets its own.
func (e *Engine) Insights(changes []schema.Change) ([]schema.Insight, []schema.Anomaly) {
	resolver := newActionResolver(e.opts.Actions)
	cutoff := significanceCutoff(changes)

	byCategory := make(map[schema.CategoryName][]int)
	for i, c := range changes {
		if e.qualifies(c) {
			byCategory[c.Category] = append(byCategory[c.Category], i)
		}
	}

	var insights []schema.Insight
	for _, cat := range e.reg.CategoryNames() {
		indices := byCategory[cat]
		if len(indices) == 0 {
			continue
		}
		var severe, rest []int
		for _, i := range indices {
			if changes[i].Severity.AtLeast(schema.SeverityHigh) {
				severe = append(severe, i)
			} else {
				rest = append(rest, i)
			}
		}
		if len(severe) > e.opts.ClusterThreshold {
			insights = append(insights, clusterInsight(cat, changes, severe, resolver))
		} else {
			rest = append(severe, rest...)
		}
		for _, i := range rest {
			insights = append(insights, changeInsight(changes[i], i, cutoff, resolver))
		}
	}

	sort.SliceStable(insights, func(i, j int) bool {
		a, b := insights[i], insights[j]
		if ra, rb := a.Severity.Rank(), b.Severity.Rank(); ra != rb {
			return ra > rb
		}
		if len(a.RelatedChanges) != len(b.RelatedChanges) {
			return len(a.RelatedChanges) > len(b.RelatedChanges)
		}
		if ia, ib := e.reg.Index(a.Category), e.reg.Index(b.Category); ia != ib {
			return ia < ib
		}
		return a.RelatedChanges[0] < b.RelatedChanges[0]
	})
	return insights, resolver.anoms
}

func (e *Engine) qualifies(c schema.Change) bool {
	quiet := c.Kind == schema.Unchanged || c.Severity == schema.SeverityInfo
	if quiet {
		return e.opts.IncludeUnchanged
	}
	return c.Severity.AtLeast(e.opts.MinSeverity)
}

func clusterInsight(cat schema.CategoryName, changes []schema.Change, indices []int, r *actionResolver) schema.Insight {
	top := schema.SeverityHigh
	kind := changes[indices[0]].Kind
	paths := make([]string, len(indices))
	for n, i := range indices {
		if changes[i].Severity.Rank() > top.Rank() {
			top = changes[i].Severity
		}
		if changes[i].Kind != kind {
			kind = schema.ChangeKind(Wildcard)
		}
		paths[n] = changes[i].Metric
	}
	return schema.Insight{
		Title:             fmt.Sprintf("%d severe changes in %s", len(indices), cat),
		Narrative:         fmt.Sprintf("Category %s has %d high or critical changes: %s.", cat, len(indices), strings.Join(paths, ", ")),
		Severity:          top,
		Category:          cat,
		RelatedChanges:    indices,
		RecommendedAction: r.resolve(cat, kind, top),
		Aggregate:         true,
	}
}

func changeInsight(c schema.Change, index int, cutoff float64, r *actionResolver) schema.Insight {
	var narrative string
	switch c.Kind {
	case schema.Added:
		narrative = fmt.Sprintf("%s appeared with value %s.", c.Path(), c.After)
	case schema.Removed:
		narrative = fmt.Sprintf("%s disappeared; it was %s.", c.Path(), c.Before)
	case schema.Modified:
		narrative = fmt.Sprintf("%s changed from %s to %s (magnitude %.2f).", c.Path(), c.Before, c.After, c.Magnitude)
	default:
		narrative = fmt.Sprintf("%s is unchanged at %s.", c.Path(), c.After)
	}
	if c.Kind != schema.Unchanged && c.Magnitude >= cutoff {
		narrative += " This is a significant change relative to the rest of the comparison."
	}
	return schema.Insight{
		Title:             fmt.Sprintf("%s %s", titleCase(string(c.Kind)), c.Path()),
		Narrative:         narrative,
		Severity:          c.Severity,
		Category:          c.Category,
		RelatedChanges:    []int{index},
		RecommendedAction: r.resolve(c.Category, c.Kind, c.Severity),
	}
}

// significanceCutoff returns mean + one standard deviation of the magnitudes
// of non-unchanged changes. With fewer than two such changes nothing is significant.
func significanceCutoff(changes []schema.Change) float64 {
	var mags []float64
	for _, c := range changes {
		if c.Kind != schema.Unchanged && !math.IsNaN(c.Magnitude) {
			mags = append(mags, c.Magnitude)
		}
	}
	if len(mags) < 2 {
		return math.Inf(1)
	}
	sd := algo.StdDev(mags)
	if sd == 0 {
		return math.Inf(1)
	}
	return algo.Mean(mags) + sd
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Trend counts categories whose score rose, fell or held, labels the overall
// profile, and names the category with the most changes.
func (e *Engine) Trend(changes []schema.Change, before, after schema.ScoreVector) schema.Trend {
	var t schema.Trend
	for _, cat := range e.reg.CategoryNames() {
		delta := after.Get(cat) - before.Get(cat)
		switch {
		case delta > floatEpsilon:
			t.Increased++
		case delta < -floatEpsilon:
			t.Decreased++
		default:
			t.Stable++
		}
	}
	switch {
	case t.Increased > t.Decreased*2:
		t.Profile = schema.StrongPositive
	case t.Increased > t.Decreased:
		t.Profile = schema.ModeratePositive
	case t.Decreased > t.Increased*2:
		t.Profile = schema.StrongNegative
	case t.Decreased > t.Increased:
		t.Profile = schema.ModerateNegative
	default:
		t.Profile = schema.Neutral
	}

	counts := changeCountsByCategory(e.reg, changes)
	best := 0
	for i, n := range counts {
		if n > counts[best] {
			best = i
		}
	}
	if len(counts) > 0 && counts[best] > 0 {
		t.DominantCategory = e.reg.Categories[best].Name
	}
	t.Concentration = algo.Gini(counts)
	return t
}

// changeCountsByCategory counts non-unchanged changes per registry category.
func changeCountsByCategory(reg *schema.Registry, changes []schema.Change) []float64 {
	counts := make([]float64, len(reg.Categories))
	for _, c := range changes {
		if c.Kind == schema.Unchanged {
			continue
		}
		if i := reg.Index(c.Category); i >= 0 {
			counts[i]++
		}
	}
	return counts
}
