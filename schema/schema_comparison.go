package schema

import "time"

// Change is one metric-level difference between two fingerprints.
type Change struct {
	Category  CategoryName `json:"category"`
	Metric    string       `json:"metric"`
	Kind      ChangeKind   `json:"kind"`
	Before    *Value       `json:"before,omitempty"` // nil when absent
	After     *Value       `json:"after,omitempty"`  // nil when absent
	Magnitude float64      `json:"magnitude"`        // normalized to [0, 1]
	Severity  Severity     `json:"severity,omitempty"`
}

// Path returns "category.metric".
func (c Change) Path() string { return string(c.Category) + "." + c.Metric }

// CategoryScore is one entry of a ScoreVector.
type CategoryScore struct {
	Category CategoryName `json:"category"`
	Score    float64      `json:"score"`
}

// ScoreVector holds one score per registry category, in registry order.
type ScoreVector []CategoryScore

// Get returns the score for a category, or 0 when it is not present.
func (s ScoreVector) Get(cat CategoryName) float64 {
	for _, cs := range s {
		if cs.Category == cat {
			return cs.Score
		}
	}
	return 0
}

// Insight is a human-readable explanation of one change or a cluster of changes.
type Insight struct {
	Title             string       `json:"title"`
	Narrative         string       `json:"narrative"`
	Severity          Severity     `json:"severity"`
	Category          CategoryName `json:"category"`
	RelatedChanges    []int        `json:"related_changes"` // indices into Report.Changes
	RecommendedAction string       `json:"recommended_action"`
	Aggregate         bool         `json:"aggregate"`
}

// Dataset is one named row of chart values.
type Dataset struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Series is the chart-ready shape shared by every chart kind.
type Series struct {
	Kind     ChartKind   `json:"kind"`
	Title    string      `json:"title"`
	Labels   []string    `json:"labels"`
	Datasets []Dataset   `json:"datasets"`
	YLabels  []string    `json:"y_labels,omitempty"`
	TimeAxis []time.Time `json:"time_axis,omitempty"`
}

// ChartData holds one series per chart kind.
type ChartData struct {
	Bar     Series `json:"bar"`
	Line    Series `json:"line"`
	Pie     Series `json:"pie"`
	Radar   Series `json:"radar"`
	Heatmap Series `json:"heatmap"`
}

// All returns the series in chart-kind order.
func (c ChartData) All() []Series {
	return []Series{c.Bar, c.Line, c.Pie, c.Radar, c.Heatmap}
}

// TrendProfile labels the overall direction of category scores.
type TrendProfile string

// All trend profiles.
const (
	StrongPositive   TrendProfile = "strong_positive"
	ModeratePositive TrendProfile = "moderate_positive"
	Neutral          TrendProfile = "neutral"
	ModerateNegative TrendProfile = "moderate_negative"
	StrongNegative   TrendProfile = "strong_negative"
)

// Trend counts categories whose score rose, fell or held.
type Trend struct {
	Increased        int          `json:"increased"`
	Decreased        int          `json:"decreased"`
	Stable           int          `json:"stable"`
	Profile          TrendProfile `json:"profile"`
	DominantCategory CategoryName `json:"dominant_category,omitempty"`
	Concentration    float64      `json:"concentration"` // Gini of changes per category
}

// Summary is the headline of a report.
type Summary struct {
	Added           int              `json:"added"`
	Removed         int              `json:"removed"`
	Modified        int              `json:"modified"`
	Unchanged       int              `json:"unchanged"`
	DivergenceScore float64          `json:"divergence_score"`
	SeverityCounts  map[Severity]int `json:"severity_counts"`
	Trend           Trend            `json:"trend"`
	Warnings        []string         `json:"warnings"`
}

// Descriptor identifies one side of a comparison.
type Descriptor struct {
	SourceID    string      `json:"source_id"`
	GeneratedAt time.Time   `json:"generated_at"`
	Scores      ScoreVector `json:"scores"`
}

// Report is the final output of one comparison.
type Report struct {
	SchemaVersion string     `json:"schema_version"`
	Before        Descriptor `json:"before"`
	After         Descriptor `json:"after"`
	Summary       Summary    `json:"summary"`
	Changes       []Change   `json:"changes"`
	Insights      []Insight  `json:"insights"`
	ChartData     ChartData  `json:"chart_data"`
}

// BatchEntry is one pair result of a baseline batch comparison.
type BatchEntry struct {
	Target string  `json:"target"`
	Report *Report `json:"report,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// BatchResult holds the comparisons of every target against one baseline.
type BatchResult struct {
	Baseline string       `json:"baseline"`
	Entries  []BatchEntry `json:"entries"`
}

// GetDivergenceLabel returns a plain text label for a divergence score in [0, 1].
func GetDivergenceLabel(score float64) string {
	switch {
	case score >= 0.6:
		return "Critical"
	case score >= 0.3:
		return "High"
	case score >= 0.1:
		return "Moderate"
	case score > 0:
		return "Low"
	default:
		return "Identical"
	}
}

// ScoreResult is the scoring outcome for a single fingerprint.
type ScoreResult struct {
	SourceID      string      `json:"source_id"`
	SchemaVersion string      `json:"schema_version"`
	GeneratedAt   time.Time   `json:"generated_at"`
	Scores        ScoreVector `json:"scores"`
	Warnings      []string    `json:"warnings"`
}

// ValidationResult reports whether one document passed validation.
type ValidationResult struct {
	Location string `json:"location"`
	SourceID string `json:"source_id,omitempty"`
	Valid    bool   `json:"valid"`
	Error    string `json:"error,omitempty"`
}
