package core

import (
	"maps"
	"math"
	"slices"

	"github.com/aimarketingflow/pawprint/core/algo"
	"github.com/aimarketingflow/pawprint/schema"
	"golang.org/x/sync/errgroup"
)

// floatEpsilon is the tolerance for numeric equality.
const floatEpsilon = 1e-9

// Diff produces one Change per metric present in either fingerprint, in
// registry category order then declared metric order.
func (e *Engine) Diff(before, after *schema.Fingerprint) ([]schema.Change, error) {
	if err := e.checkComparable(before, after); err != nil {
		return nil, err
	}

	cats := e.reg.Categories
	perCategory := make([][]schema.Change, len(cats))

	var g errgroup.Group
	g.SetLimit(e.opts.Workers)
	for i, spec := range cats {
		g.Go(func() error {
			perCategory[i] = diffCategory(spec, before, after)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var changes []schema.Change
	for _, cs := range perCategory {
		changes = append(changes, cs...)
	}
	return changes, nil
}

func diffCategory(spec schema.CategorySpec, before, after *schema.Fingerprint) []schema.Change {
	var changes []schema.Change
	for _, ms := range spec.Metrics {
		a, okA := before.Metric(spec.Name, ms.Name)
		b, okB := after.Metric(spec.Name, ms.Name)
		change := schema.Change{Category: spec.Name, Metric: ms.Name}
		switch {
		case !okA && !okB:
			continue
		case !okA:
			change.Kind = schema.Added
			change.After = &b
			change.Magnitude = 1
		case !okB:
			change.Kind = schema.Removed
			change.Before = &a
			change.Magnitude = 1
		default:
			change.Before = &a
			change.After = &b
			if valuesEqual(a, b) {
				change.Kind = schema.Unchanged
			} else {
				change.Kind = schema.Modified
				change.Magnitude = magnitude(ms, a, b)
				if change.Magnitude == 0 {
					// A modified value never classifies as info.
					change.Magnitude = floatEpsilon
				}
			}
		}
		changes = append(changes, change)
	}
	return changes
}

// valuesEqual compares two values of the same kind.
func valuesEqual(a, b schema.Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case schema.NumericKind:
		return numbersEqual(a.Num, b.Num)
	case schema.TextKind:
		return a.Text == b.Text
	case schema.BooleanKind:
		return a.Bool == b.Bool
	case schema.SequenceKind:
		return slices.EqualFunc(a.Seq, b.Seq, entriesEqual)
	case schema.FrequencyKind:
		return slices.EqualFunc(nonZeroBins(a.Freq), nonZeroBins(b.Freq), func(x, y schema.Bin) bool {
			return x.Label == y.Label && numbersEqual(x.Count, y.Count)
		})
	default:
		return true
	}
}

// nonZeroBins drops empty bins, which weigh nothing in a distribution.
func nonZeroBins(bins []schema.Bin) []schema.Bin {
	return slices.DeleteFunc(slices.Clone(bins), func(b schema.Bin) bool {
		return numbersEqual(b.Count, 0)
	})
}

func entriesEqual(x, y schema.Entry) bool {
	return x.ID == y.ID && x.Name == y.Name && numbersEqual(x.Weight, y.Weight)
}

// numbersEqual treats two NaNs, and two equal infinities, as equal.
func numbersEqual(a, b float64) bool {
	if a == b || (math.IsNaN(a) && math.IsNaN(b)) {
		return true
	}
	return math.Abs(a-b) <= floatEpsilon
}

// magnitude normalizes the distance between two unequal values.
// A NaN numeric input propagates so the classifier can flag it.
func magnitude(ms schema.MetricSpec, a, b schema.Value) float64 {
	switch a.Kind {
	case schema.NumericKind:
		rng := ms.RefMax - ms.RefMin
		if rng <= 0 {
			return 1
		}
		return math.Min(math.Abs(b.Num-a.Num)/rng, 1)
	case schema.TextKind:
		return algo.NormalizedLevenshtein(a.Text, b.Text)
	case schema.BooleanKind:
		return 1
	case schema.SequenceKind:
		return sequenceDistance(a.Seq, b.Seq)
	case schema.FrequencyKind:
		return frequencyDistance(a.Freq, b.Freq)
	default:
		return 1
	}
}

// sequenceDistance is the Jaccard distance over identity keys. When both
// sides hold the same keys, the n-th occurrence of a key in a is paired with
// the n-th occurrence in b, and the result is the share of entries whose
// content or position changed or that lost their partner.
func sequenceDistance(a, b []schema.Entry) float64 {
	if d := algo.JaccardDistance(entryKeys(a), entryKeys(b)); d > 0 {
		return d
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 0
	}

	positionsB := make(map[string][]int, len(b))
	for j, entry := range b {
		positionsB[entry.Key()] = append(positionsB[entry.Key()], j)
	}
	used := make(map[string]int, len(positionsB))
	changed := 0
	for i, entry := range a {
		key := entry.Key()
		n := used[key]
		used[key] = n + 1
		if n >= len(positionsB[key]) {
			changed++
			continue
		}
		j := positionsB[key][n]
		if i != j || !entriesEqual(entry, b[j]) {
			changed++
		}
	}
	for key, positions := range positionsB {
		if extra := len(positions) - used[key]; extra > 0 {
			changed += extra
		}
	}
	return algo.Clamp01(float64(changed) / float64(longest))
}

func entryKeys(entries []schema.Entry) []string {
	keys := make([]string, len(entries))
	for i, entry := range entries {
		keys[i] = entry.Key()
	}
	return keys
}

// frequencyDistance aligns both tables on the union of labels and returns
// the total variation distance between them.
func frequencyDistance(a, b []schema.Bin) float64 {
	countsA := make(map[string]float64, len(a))
	for _, bin := range a {
		countsA[bin.Label] = bin.Count
	}
	countsB := make(map[string]float64, len(b))
	for _, bin := range b {
		countsB[bin.Label] = bin.Count
	}
	union := maps.Clone(countsA)
	maps.Copy(union, countsB)
	labels := slices.Sorted(maps.Keys(union))

	p := make([]float64, len(labels))
	q := make([]float64, len(labels))
	for i, label := range labels {
		p[i] = countsA[label]
		q[i] = countsB[label]
	}
	d := algo.TotalVariation(p, q)
	if d == 0 {
		// Same distribution at a different scale: use the relative change in totals.
		sp, sq := sum(p), sum(q)
		if top := math.Max(math.Abs(sp), math.Abs(sq)); top > 0 {
			return algo.Clamp01(math.Abs(sp-sq) / top)
		}
	}
	return d
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}
