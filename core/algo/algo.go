// Package algo has the distance and entropy helpers shared by scoring and diffing.
package algo

import (
	"math"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// Clamp01 clamps v into [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// InUnit reports whether v is a finite value inside [0, 1].
func InUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// MinMax normalizes v against the reference range [lo, hi].
// The result is not clamped so callers can detect out-of-range input.
func MinMax(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}

// NormalizedEntropy returns the Shannon entropy of the non-zero counts divided
// by log2 of their number. One or zero non-zero bins yield 0.
func NormalizedEntropy(counts []float64) float64 {
	var total float64
	n := 0
	for _, c := range counts {
		if c > 0 {
			total += c
			n++
		}
	}
	if n <= 1 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c <= 0 {
			continue
		}
		p := c / total
		h -= p * math.Log2(p)
	}
	return Clamp01(h / math.Log2(float64(n)))
}

// TextEntropy returns the normalized character entropy of s.
func TextEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	freq := make(map[rune]float64)
	for _, r := range s {
		freq[r]++
	}
	counts := make([]float64, 0, len(freq))
	for _, c := range freq {
		counts = append(counts, c)
	}
	return NormalizedEntropy(counts)
}

// NormalizedLevenshtein returns the edit distance between a and b divided by
// the rune length of the longer string.
func NormalizedLevenshtein(a, b string) float64 {
	if a == b {
		return 0
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 0
	}
	return Clamp01(float64(levenshtein.Distance(a, b, nil)) / float64(longest))
}

// JaccardDistance returns 1 - |A∩B| / |A∪B| over two key sets.
// Two empty sets are identical.
func JaccardDistance(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, k := range a {
		setA[k] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, k := range b {
		setB[k] = struct{}{}
	}
	union := len(setA)
	inter := 0
	for k := range setB {
		if _, ok := setA[k]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return 1 - float64(inter)/float64(union)
}

// TotalVariation returns half the L1 distance between the normalized forms of
// two aligned count vectors. An all-zero vector against a non-zero one is 1.
func TotalVariation(p, q []float64) float64 {
	if len(p) != len(q) {
		return 1
	}
	var sp, sq float64
	for i := range p {
		sp += math.Max(p[i], 0)
		sq += math.Max(q[i], 0)
	}
	switch {
	case sp == 0 && sq == 0:
		return 0
	case sp == 0 || sq == 0:
		return 1
	}
	var d float64
	for i := range p {
		d += math.Abs(math.Max(p[i], 0)/sp - math.Max(q[i], 0)/sq)
	}
	return Clamp01(d / 2)
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	var ss float64
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)))
}

// Gini calculates the Gini coefficient for a set of values.
// It ranges from 0 (perfect equality) to 1 (perfect inequality) and is used
// to measure how concentrated changes are across categories.
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	mean := Mean(values)
	if mean == 0 {
		return 0
	}
	var diffSum float64
	for i := range n {
		for j := range n {
			diffSum += math.Abs(values[i] - values[j])
		}
	}
	g := diffSum / (2 * float64(n*n) * mean)
	return math.Min(math.Max(g, 0), 1)
}
