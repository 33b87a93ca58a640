package core

import (
	"fmt"
	"math"

	"github.com/aimarketingflow/pawprint/schema"
)

// Classify assigns a severity to every change and returns a new slice.
// The score vectors drive the optional score-shift escalation.
func (e *Engine) Classify(changes []schema.Change, before, after schema.ScoreVector) ([]schema.Change, []schema.Anomaly) {
	out := make([]schema.Change, len(changes))
	var anoms []schema.Anomaly
	for i, c := range changes {
		spec, _ := e.reg.Category(c.Category)
		sev, ok := classifyOne(c, spec)
		if !ok {
			anoms = append(anoms, schema.Anomaly{
				Code:     schema.AnomalyUnmappedSeverity,
				Category: c.Category,
				Metric:   c.Metric,
				Message:  fmt.Sprintf("magnitude %v is outside every band, defaulting to %s", c.Magnitude, sev),
			})
		}
		if ok && c.Kind == schema.Modified && spec.ScoreShift > 0 {
			shift := math.Abs(after.Get(c.Category) - before.Get(c.Category))
			if shift >= spec.ScoreShift {
				sev = sev.Escalate()
			}
		}
		c.Severity = sev
		out[i] = c
	}
	return out, anoms
}

// classifyOne maps a change onto a tier. It reports false when the
// magnitude fits no band, in which case the tier is medium.
func classifyOne(c schema.Change, spec schema.CategorySpec) (schema.Severity, bool) {
	if c.Kind == schema.Unchanged {
		return schema.SeverityInfo, true
	}
	sev, ok := band(c.Magnitude, spec.Thresholds)
	if !ok {
		return schema.SeverityMedium, false
	}
	if sev != schema.SeverityInfo && (c.Kind == schema.Added || c.Kind == schema.Removed) {
		if ms, found := spec.Metric(c.Metric); found && ms.SecurityRelevant {
			sev = sev.Escalate()
		}
	}
	return sev, true
}

// band looks a magnitude up in the threshold table. Magnitudes above the
// critical bound but still within [0,1] are critical.
func band(m float64, t schema.Thresholds) (schema.Severity, bool) {
	switch {
	case math.IsNaN(m) || m < 0 || m > 1:
		return "", false
	case m == 0:
		return schema.SeverityInfo, true
	case m <= t.Low:
		return schema.SeverityLow, true
	case m <= t.Medium:
		return schema.SeverityMedium, true
	case m <= t.High:
		return schema.SeverityHigh, true
	default:
		return schema.SeverityCritical, true
	}
}
