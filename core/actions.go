package core

import (
	"fmt"

	"github.com/aimarketingflow/pawprint/schema"
)

// Wildcard matches any category, kind or severity in an ActionKey.
const Wildcard = "*"

// ActionKey indexes the recommended-action lookup.
type ActionKey struct {
	Category string
	Kind     string
	Severity string
}

// ActionTable maps keys to recommended actions.
type ActionTable map[ActionKey]string

// GenericAction is used when no table entry matches.
const GenericAction = "Review the change and confirm it is expected."

// Lookup resolves the action for a change, trying the exact key first and
// then progressively wider wildcards.
func (t ActionTable) Lookup(cat schema.CategoryName, kind schema.ChangeKind, sev schema.Severity) (string, bool) {
	c, k, s := string(cat), string(kind), string(sev)
	candidates := []ActionKey{
		{c, k, s},
		{c, k, Wildcard},
		{c, Wildcard, s},
		{c, Wildcard, Wildcard},
		{Wildcard, k, s},
		{Wildcard, k, Wildcard},
		{Wildcard, Wildcard, s},
		{Wildcard, Wildcard, Wildcard},
	}
	for _, key := range candidates {
		if action, ok := t[key]; ok {
			return action, true
		}
	}
	return GenericAction, false
}

// actionResolver wraps a table and records one anomaly per missing key.
type actionResolver struct {
	table  ActionTable
	missed map[ActionKey]struct{}
	anoms  []schema.Anomaly
}

func newActionResolver(t ActionTable) *actionResolver {
	return &actionResolver{table: t, missed: make(map[ActionKey]struct{})}
}

func (r *actionResolver) resolve(cat schema.CategoryName, kind schema.ChangeKind, sev schema.Severity) string {
	action, ok := r.table.Lookup(cat, kind, sev)
	if ok {
		return action
	}
	key := ActionKey{string(cat), string(kind), string(sev)}
	if _, seen := r.missed[key]; !seen {
		r.missed[key] = struct{}{}
		r.anoms = append(r.anoms, schema.Anomaly{
			Code:     schema.AnomalyActionFallback,
			Category: cat,
			Message:  fmt.Sprintf("no recommended action for %s/%s, using generic action", kind, sev),
		})
	}
	return action
}

// DefaultActions returns the built-in action table.
func DefaultActions() ActionTable {
	return ActionTable{
		{Wildcard, string(schema.Added), Wildcard}:     "Confirm the newly measured metric is expected for this source.",
		{Wildcard, string(schema.Removed), Wildcard}:   "Check whether the metric was dropped by the scanner or by the source.",
		{Wildcard, string(schema.Modified), Wildcard}:  "Compare the values and confirm the shift is intended.",
		{Wildcard, string(schema.Unchanged), Wildcard}: "No action needed.",

		{Wildcard, string(schema.Modified), string(schema.SeverityHigh)}:     "Investigate the source of this large shift before accepting the new fingerprint.",
		{Wildcard, string(schema.Modified), string(schema.SeverityCritical)}: "Treat as a regression: block promotion until the shift is explained.",

		{"structure", Wildcard, Wildcard}:                                  "Look for bulk additions, deletions or moved directories.",
		{"content-entropy", string(schema.Modified), Wildcard}:             "Scan recently changed files for packed, encrypted or generated content.",
		{"content-entropy", Wildcard, string(schema.SeverityCritical)}:     "Quarantine high-entropy files and verify their provenance.",
		{"naming", string(schema.Modified), Wildcard}:                      "Check for renamed files or a change in naming conventions.",
		{"timestamps", string(schema.Modified), Wildcard}:                  "Correlate modification times with deployments or backups.",
		{"permissions", Wildcard, Wildcard}:                                "Audit permission changes against the expected access policy.",
		{"permissions", string(schema.Added), string(schema.SeverityCritical)}: "Revoke unexpected permissions immediately and audit who granted them.",
	}
}
