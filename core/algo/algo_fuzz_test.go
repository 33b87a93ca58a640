package algo

import (
	"testing"
)

// FuzzNormalizedLevenshtein checks the distance stays in [0, 1] and is symmetric.
func FuzzNormalizedLevenshtein(f *testing.F) {
	seeds := [][2]string{{"", ""}, {"kitten", "sitting"}, {"snake_case", "camelCase"}, {"日本", "日本語"}}
	for _, s := range seeds {
		f.Add(s[0], s[1])
	}
	f.Fuzz(func(t *testing.T, a, b string) {
		d := NormalizedLevenshtein(a, b)
		if !InUnit(d) {
			t.Fatalf("distance %v out of range for %q, %q", d, a, b)
		}
		if a == b && d != 0 {
			t.Fatalf("identical strings should have distance 0, got %v", d)
		}
	})
}

// FuzzNormalizedEntropy checks entropy of arbitrary counts stays in [0, 1].
func FuzzNormalizedEntropy(f *testing.F) {
	f.Add(1.0, 2.0, 3.0)
	f.Add(0.0, 0.0, 0.0)
	f.Add(-1.0, 5.0, 1e300)
	f.Fuzz(func(t *testing.T, a, b, c float64) {
		h := NormalizedEntropy([]float64{a, b, c})
		if !InUnit(h) {
			t.Fatalf("entropy %v out of range for %v, %v, %v", h, a, b, c)
		}
		if tv := TotalVariation([]float64{a, b}, []float64{b, c}); !InUnit(tv) {
			t.Fatalf("total variation %v out of range", tv)
		}
	})
}
