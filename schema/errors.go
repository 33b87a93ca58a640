package schema

import "fmt"

// SchemaError means a fingerprint document is malformed for the registry.
type SchemaError struct {
	Category CategoryName
	Metric   string
	Reason   string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Category != "" && e.Metric != "":
		return fmt.Sprintf("schema error at %s.%s: %s", e.Category, e.Metric, e.Reason)
	case e.Category != "":
		return fmt.Sprintf("schema error at %s: %s", e.Category, e.Reason)
	default:
		return "schema error: " + e.Reason
	}
}

// IncompatibleSchemaError means two fingerprints cannot be compared.
type IncompatibleSchemaError struct {
	Before string
	After  string
}

func (e *IncompatibleSchemaError) Error() string {
	return fmt.Sprintf("incompatible schema versions: before=%q after=%q", e.Before, e.After)
}

// Anomaly codes.
const (
	AnomalyClampedScore     = "clamped_score"
	AnomalyUnmappedSeverity = "unmapped_severity"
	AnomalyActionFallback   = "action_fallback"
)

// Anomaly is a non-fatal warning raised while scoring, classifying or
// explaining a comparison.
type Anomaly struct {
	Code     string       `json:"code"`
	Category CategoryName `json:"category,omitempty"`
	Metric   string       `json:"metric,omitempty"`
	Message  string       `json:"message"`
}

func (a Anomaly) String() string {
	if a.Metric != "" {
		return fmt.Sprintf("%s (%s.%s): %s", a.Code, a.Category, a.Metric, a.Message)
	}
	if a.Category != "" {
		return fmt.Sprintf("%s (%s): %s", a.Code, a.Category, a.Message)
	}
	return fmt.Sprintf("%s: %s", a.Code, a.Message)
}
