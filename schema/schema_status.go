package schema

import "time"

// StoreStatus represents the status of the pawprint store.
type StoreStatus struct {
	Backend           string           `json:"backend"`
	Connected         bool             `json:"connected"`
	SchemaVersion     string           `json:"schema_version"`
	TotalFingerprints int              `json:"total_fingerprints"`
	TotalComparisons  int              `json:"total_comparisons"`
	LastComparison    time.Time        `json:"last_comparison"`
	OldestComparison  time.Time        `json:"oldest_comparison"`
	TableSizes        map[string]int64 `json:"table_sizes"`
}
