package schema

import (
	"fmt"
	"math"
)

// Thresholds are the upper magnitude bounds of each severity band.
type Thresholds struct {
	Low      float64 `json:"low" yaml:"low" mapstructure:"low"`
	Medium   float64 `json:"medium" yaml:"medium" mapstructure:"medium"`
	High     float64 `json:"high" yaml:"high" mapstructure:"high"`
	Critical float64 `json:"critical" yaml:"critical" mapstructure:"critical"`
}

// Validate checks that the bands are ordered and inside [0,1].
func (t Thresholds) Validate() error {
	bands := []float64{t.Low, t.Medium, t.High, t.Critical}
	prev := 0.0
	for _, b := range bands {
		if math.IsNaN(b) || b <= 0 || b > 1 {
			return fmt.Errorf("threshold %v must be in (0, 1]", b)
		}
		if b < prev {
			return fmt.Errorf("thresholds must be non-decreasing: %v < %v", b, prev)
		}
		prev = b
	}
	return nil
}

// SequenceWeights blend the count and entropy terms of a sequence score.
type SequenceWeights struct {
	Count   float64 `json:"count" yaml:"count"`
	Entropy float64 `json:"entropy" yaml:"entropy"`
}

// MetricSpec declares one metric of a category.
type MetricSpec struct {
	Name             string     `json:"name" yaml:"name"`
	Kind             MetricKind `json:"kind" yaml:"kind"`
	RefMin           float64    `json:"ref_min,omitempty" yaml:"ref_min,omitempty"`
	RefMax           float64    `json:"ref_max,omitempty" yaml:"ref_max,omitempty"`
	RefCount         float64    `json:"ref_count,omitempty" yaml:"ref_count,omitempty"`
	SecurityRelevant bool       `json:"security_relevant,omitempty" yaml:"security_relevant,omitempty"`
	Description      string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// CategorySpec declares one category and the metrics it may contain.
type CategorySpec struct {
	Name       CategoryName    `json:"name" yaml:"name"`
	Weight     float64         `json:"weight" yaml:"weight"`
	Thresholds Thresholds      `json:"thresholds" yaml:"thresholds"`
	ScoreShift float64         `json:"score_shift,omitempty" yaml:"score_shift,omitempty"` // 0 disables
	SeqWeights SequenceWeights `json:"sequence_weights" yaml:"sequence_weights"`
	Metrics    []MetricSpec    `json:"metrics" yaml:"metrics"`
}

// Metric looks up a metric declaration by name.
func (c CategorySpec) Metric(name string) (MetricSpec, bool) {
	for _, m := range c.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return MetricSpec{}, false
}

// Registry is the single versioned source of truth for category names,
// metric kinds, reference ranges and severity thresholds.
type Registry struct {
	Version    string         `json:"version" yaml:"version"`
	Categories []CategorySpec `json:"categories" yaml:"categories"`
}

// Category looks up a category declaration by name.
func (r *Registry) Category(name CategoryName) (CategorySpec, bool) {
	for _, c := range r.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategorySpec{}, false
}

// CategoryNames returns the category names in registry order.
func (r *Registry) CategoryNames() []CategoryName {
	names := make([]CategoryName, len(r.Categories))
	for i, c := range r.Categories {
		names[i] = c.Name
	}
	return names
}

// Index returns the registry position of a category, or -1.
func (r *Registry) Index(name CategoryName) int {
	for i, c := range r.Categories {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// WithThresholds returns a copy of the registry with the given per-category
// threshold overrides applied.
func (r *Registry) WithThresholds(overrides map[CategoryName]Thresholds) (*Registry, error) {
	out := &Registry{Version: r.Version, Categories: make([]CategorySpec, len(r.Categories))}
	copy(out.Categories, r.Categories)
	for name, t := range overrides {
		idx := out.Index(name)
		if idx < 0 {
			return nil, fmt.Errorf("threshold override for unknown category %q", name)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("category %q: %w", name, err)
		}
		out.Categories[idx].Thresholds = t
	}
	return out, nil
}

// Validate checks the registry for internal consistency.
func (r *Registry) Validate() error {
	if r.Version == "" {
		return fmt.Errorf("registry version is required")
	}
	if len(r.Categories) == 0 {
		return fmt.Errorf("registry must declare at least one category")
	}
	seen := make(map[CategoryName]struct{}, len(r.Categories))
	for _, c := range r.Categories {
		if c.Name == "" {
			return fmt.Errorf("category name is required")
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("duplicate category %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Weight < 0 || math.IsNaN(c.Weight) {
			return fmt.Errorf("category %q: weight must be non-negative", c.Name)
		}
		if err := c.Thresholds.Validate(); err != nil {
			return fmt.Errorf("category %q: %w", c.Name, err)
		}
		metrics := make(map[string]struct{}, len(c.Metrics))
		for _, m := range c.Metrics {
			if _, dup := metrics[m.Name]; dup {
				return fmt.Errorf("category %q: duplicate metric %q", c.Name, m.Name)
			}
			metrics[m.Name] = struct{}{}
			if _, ok := ValidMetricKinds[m.Kind]; !ok {
				return fmt.Errorf("category %q: metric %q has invalid kind %q", c.Name, m.Name, m.Kind)
			}
			if m.Kind == NumericKind && m.RefMax <= m.RefMin {
				return fmt.Errorf("category %q: metric %q needs ref_max > ref_min", c.Name, m.Name)
			}
		}
	}
	return nil
}

var defaultThresholds = Thresholds{Low: 0.1, Medium: 0.3, High: 0.6, Critical: 1.0}

var defaultSeqWeights = SequenceWeights{Count: 0.5, Entropy: 0.5}

// DefaultRegistry returns the built-in registry, version "1".
func DefaultRegistry() *Registry {
	return &Registry{
		Version: "1",
		Categories: []CategorySpec{
			{
				Name:       "structure",
				Weight:     1.0,
				Thresholds: defaultThresholds,
				SeqWeights: defaultSeqWeights,
				Metrics: []MetricSpec{
					{Name: "file_count", Kind: NumericKind, RefMin: 0, RefMax: 1000, Description: "Number of files"},
					{Name: "dir_count", Kind: NumericKind, RefMin: 0, RefMax: 200, Description: "Number of directories"},
					{Name: "max_depth", Kind: NumericKind, RefMin: 0, RefMax: 20, Description: "Deepest nesting level"},
					{Name: "total_size_mb", Kind: NumericKind, RefMin: 0, RefMax: 10240, Description: "Total size in megabytes"},
					{Name: "extensions", Kind: FrequencyKind, Description: "File count per extension"},
				},
			},
			{
				Name:       "content-entropy",
				Weight:     1.0,
				Thresholds: defaultThresholds,
				SeqWeights: defaultSeqWeights,
				Metrics: []MetricSpec{
					{Name: "mean_entropy", Kind: NumericKind, RefMin: 0, RefMax: 8, Description: "Mean byte entropy in bits"},
					{Name: "high_entropy_files", Kind: NumericKind, RefMin: 0, RefMax: 100, SecurityRelevant: true, Description: "Files above the high entropy mark"},
					{Name: "byte_histogram", Kind: FrequencyKind, Description: "Byte class histogram"},
				},
			},
			{
				Name:       "naming",
				Weight:     0.5,
				Thresholds: defaultThresholds,
				SeqWeights: defaultSeqWeights,
				Metrics: []MetricSpec{
					{Name: "convention", Kind: TextKind, Description: "Dominant naming convention"},
					{Name: "hidden_files", Kind: NumericKind, RefMin: 0, RefMax: 100, SecurityRelevant: true, Description: "Dotfile count"},
					{Name: "top_names", Kind: SequenceKind, RefCount: 20, Description: "Most frequent file names"},
				},
			},
			{
				Name:       "timestamps",
				Weight:     0.5,
				Thresholds: defaultThresholds,
				SeqWeights: defaultSeqWeights,
				Metrics: []MetricSpec{
					{Name: "span_days", Kind: NumericKind, RefMin: 0, RefMax: 3650, Description: "Days between oldest and newest file"},
					{Name: "modified_last_24h", Kind: NumericKind, RefMin: 0, RefMax: 1000, Description: "Files modified in the last day"},
					{Name: "hour_histogram", Kind: FrequencyKind, Description: "Modification count per hour of day"},
				},
			},
			{
				Name:       "permissions",
				Weight:     1.5,
				Thresholds: Thresholds{Low: 0.2, Medium: 0.5, High: 1.0, Critical: 1.0},
				SeqWeights: defaultSeqWeights,
				Metrics: []MetricSpec{
					{Name: "world_writable", Kind: BooleanKind, SecurityRelevant: true, Description: "Any world-writable entry exists"},
					{Name: "setuid_count", Kind: NumericKind, RefMin: 0, RefMax: 50, SecurityRelevant: true, Description: "Entries with the setuid bit"},
					{Name: "executables", Kind: SequenceKind, RefCount: 50, SecurityRelevant: true, Description: "Executable entries"},
					{Name: "owner", Kind: TextKind, Description: "Dominant owner"},
				},
			},
		},
	}
}
