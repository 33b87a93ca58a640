package schema

import (
	"encoding/json"
	"time"
)

// FingerprintRecord represents a row from the pawprint_fingerprints table.
type FingerprintRecord struct {
	SourceID      string
	SchemaVersion string
	GeneratedAt   time.Time
	StoredAt      time.Time
	Document      []byte // canonical JSON
}

// ComparisonRecord represents a row from the pawprint_comparisons table.
type ComparisonRecord struct {
	RunID           string
	BeforeSource    string
	AfterSource     string
	SchemaVersion   string
	CreatedAt       time.Time
	Added           int32
	Removed         int32
	Modified        int32
	Unchanged       int32
	DivergenceScore float64
	HighestSeverity string
	TrendProfile    string
	Report          []byte // report JSON
}

// ChangeRecord represents one flattened change for columnar export.
type ChangeRecord struct {
	RunID     string
	Seq       int32 // position in the report's change list
	Category  string
	Metric    string
	Kind      string
	Before    *string
	After     *string
	Magnitude float64
	Severity  string
}

// HighestSeverity returns the top tier among the report's changes, or info when there are none.
func (r *Report) HighestSeverity() Severity {
	top := SeverityInfo
	for _, c := range r.Changes {
		if c.Severity.Rank() > top.Rank() {
			top = c.Severity
		}
	}
	return top
}

// NewComparisonRecord flattens a report into its run row. encoded is the report JSON.
func NewComparisonRecord(runID string, createdAt time.Time, r *Report, encoded []byte) ComparisonRecord {
	return ComparisonRecord{
		RunID:           runID,
		BeforeSource:    r.Before.SourceID,
		AfterSource:     r.After.SourceID,
		SchemaVersion:   r.SchemaVersion,
		CreatedAt:       createdAt.UTC(),
		Added:           int32(r.Summary.Added),
		Removed:         int32(r.Summary.Removed),
		Modified:        int32(r.Summary.Modified),
		Unchanged:       int32(r.Summary.Unchanged),
		DivergenceScore: r.Summary.DivergenceScore,
		HighestSeverity: string(r.HighestSeverity()),
		TrendProfile:    string(r.Summary.Trend.Profile),
		Report:          encoded,
	}
}

// NewChangeRecords flattens the report's changes in order. Values are stored
// in their JSON form; absent sides stay nil.
func NewChangeRecords(runID string, r *Report) []ChangeRecord {
	records := make([]ChangeRecord, len(r.Changes))
	for i, c := range r.Changes {
		records[i] = ChangeRecord{
			RunID:     runID,
			Seq:       int32(i),
			Category:  string(c.Category),
			Metric:    c.Metric,
			Kind:      string(c.Kind),
			Before:    encodeValue(c.Before),
			After:     encodeValue(c.After),
			Magnitude: c.Magnitude,
			Severity:  string(c.Severity),
		}
	}
	return records
}

func encodeValue(v *Value) *string {
	if v == nil || v.IsAbsent() {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		s := v.String()
		return &s
	}
	s := string(data)
	return &s
}
