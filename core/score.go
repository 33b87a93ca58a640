package core

import (
	"fmt"
	"math"

	"github.com/aimarketingflow/pawprint/core/algo"
	"github.com/aimarketingflow/pawprint/schema"
	"golang.org/x/sync/errgroup"
)

// Score computes one score in [0,1] per registry category.
// It never fails; clamped inputs are returned as anomalies.
func (e *Engine) Score(fp *schema.Fingerprint) (schema.ScoreVector, []schema.Anomaly) {
	cats := e.reg.Categories
	scores := make(schema.ScoreVector, len(cats))
	anoms := make([][]schema.Anomaly, len(cats))

	var g errgroup.Group
	g.SetLimit(e.opts.Workers)
	for i, spec := range cats {
		g.Go(func() error {
			scores[i], anoms[i] = scoreCategory(spec, fp.Categories[spec.Name])
			return nil
		})
	}
	_ = g.Wait() // scoring never returns an error

	var out []schema.Anomaly
	for _, a := range anoms {
		out = append(out, a...)
	}
	return scores, out
}

// scoreCategory averages the scores of the metrics present in the block.
// An empty or absent block scores exactly 0.
func scoreCategory(spec schema.CategorySpec, block schema.CategoryBlock) (schema.CategoryScore, []schema.Anomaly) {
	result := schema.CategoryScore{Category: spec.Name}
	var (
		sum   float64
		n     int
		anoms []schema.Anomaly
	)
	for _, ms := range spec.Metrics {
		v, ok := block[ms.Name]
		if !ok || v.IsAbsent() {
			continue
		}
		raw, note := scoreMetric(spec, ms, v)
		if !algo.InUnit(raw) || note != "" {
			if note == "" {
				note = fmt.Sprintf("score %v clamped into [0,1]", raw)
			}
			anoms = append(anoms, schema.Anomaly{
				Code:     schema.AnomalyClampedScore,
				Category: spec.Name,
				Metric:   ms.Name,
				Message:  note,
			})
		}
		sum += algo.Clamp01(raw)
		n++
	}
	if n > 0 {
		result.Score = sum / float64(n)
	}
	return result, anoms
}

// scoreMetric returns the raw metric score and, when the input itself was
// out of range, a note describing why it was clamped.
func scoreMetric(spec schema.CategorySpec, ms schema.MetricSpec, v schema.Value) (float64, string) {
	switch v.Kind {
	case schema.NumericKind:
		return algo.MinMax(v.Num, ms.RefMin, ms.RefMax), ""
	case schema.FrequencyKind:
		counts := v.Counts()
		for _, c := range counts {
			if c < 0 || math.IsNaN(c) {
				return algo.NormalizedEntropy(counts), "frequency table has negative or NaN counts"
			}
		}
		return algo.NormalizedEntropy(counts), ""
	case schema.SequenceKind:
		return scoreSequence(spec.SeqWeights, ms.RefCount, v.Seq)
	case schema.BooleanKind:
		if v.Bool {
			return 1, ""
		}
		return 0, ""
	case schema.TextKind:
		return algo.TextEntropy(v.Text), ""
	default:
		return 0, ""
	}
}

// scoreSequence blends the saturation of the entry count with the mean
// character entropy of entry names.
func scoreSequence(w schema.SequenceWeights, refCount float64, entries []schema.Entry) (float64, string) {
	if len(entries) == 0 {
		return 0, ""
	}
	if w.Count == 0 && w.Entropy == 0 {
		w = schema.SequenceWeights{Count: 0.5, Entropy: 0.5}
	}
	if refCount <= 0 {
		refCount = float64(len(entries))
	}
	countRatio := float64(len(entries)) / refCount
	var note string
	if countRatio > 1 {
		note = fmt.Sprintf("%d entries exceed reference count %v", len(entries), refCount)
	}
	entropies := make([]float64, len(entries))
	for i, entry := range entries {
		entropies[i] = algo.TextEntropy(entry.Name)
	}
	return w.Count*algo.Clamp01(countRatio) + w.Entropy*algo.Mean(entropies), note
}
