package schema

// Custom string types for type safety.
type (
	// CategoryName names a group of related metrics in the registry.
	CategoryName string

	// MetricKind is the declared value kind of a metric.
	MetricKind string

	// ChangeKind describes how a metric differs between two fingerprints.
	ChangeKind string

	// Severity is the ordinal importance tier of a change.
	Severity string

	// ChartKind is one of the supported visualization kinds.
	ChartKind string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the pawprint store.
	DatabaseBackend string
)

// Metric kinds supported by the tagged value type.
const (
	NumericKind   MetricKind = "numeric"
	TextKind      MetricKind = "text"
	BooleanKind   MetricKind = "boolean"
	FrequencyKind MetricKind = "frequency" // label -> count table, scored by entropy
	SequenceKind  MetricKind = "sequence"  // ordered sub-records with an identity key
)

// All change kinds.
const (
	Added     ChangeKind = "added"
	Removed   ChangeKind = "removed"
	Modified  ChangeKind = "modified"
	Unchanged ChangeKind = "unchanged"
)

// All severity tiers, lowest first.
const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// All chart kinds.
const (
	BarChart     ChartKind = "bar"
	LineChart    ChartKind = "line"
	PieChart     ChartKind = "pie"
	RadarChart   ChartKind = "radar"
	HeatmapChart ChartKind = "heatmap"
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	CSVOut     OutputMode = "csv"
	HTMLOut    OutputMode = "html"
	ParquetOut OutputMode = "parquet"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// AllSeverities lists every tier in ascending order.
var AllSeverities = []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// AllChangeKinds lists every change kind in report order.
var AllChangeKinds = []ChangeKind{Added, Removed, Modified, Unchanged}

// AllChartKinds lists every chart kind the extractor produces.
var AllChartKinds = []ChartKind{BarChart, LineChart, PieChart, RadarChart, HeatmapChart}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	JSONOut:    {},
	CSVOut:     {},
	HTMLOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidMetricKinds lists all valid metric kinds.
var ValidMetricKinds = map[MetricKind]struct{}{
	NumericKind:   {},
	TextKind:      {},
	BooleanKind:   {},
	FrequencyKind: {},
	SequenceKind:  {},
}

// Rank returns the ordinal of a severity, or -1 when it is not a known tier.
func (s Severity) Rank() int {
	for i, tier := range AllSeverities {
		if tier == s {
			return i
		}
	}
	return -1
}

// AtLeast reports whether s is the same tier as other or above it.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank() && s.Rank() >= 0
}

// Escalate returns the next tier up, capped at critical.
func (s Severity) Escalate() Severity {
	r := s.Rank()
	if r < 0 {
		return s
	}
	if r+1 >= len(AllSeverities) {
		return SeverityCritical
	}
	return AllSeverities[r+1]
}

// ParseSeverity converts a string into a known tier.
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(s)
	return sev, sev.Rank() >= 0
}
