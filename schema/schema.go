// Package schema has the fingerprint model, the versioned registry and the report types for all parts of pawprint.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// CategoryBlock maps metric name to value for one category.
type CategoryBlock map[string]Value

// Fingerprint is the validated in-memory form of a pawprint document.
// It is immutable after NewFingerprint returns.
type Fingerprint struct {
	SourceID      string                         `json:"source_id"`
	SchemaVersion string                         `json:"schema_version"`
	GeneratedAt   time.Time                      `json:"generated_at"`
	Categories    map[CategoryName]CategoryBlock `json:"categories"`
}

// Document is the raw decoded form of a fingerprint before validation.
type Document struct {
	SourceID      string                    `json:"source_id" yaml:"source_id"`
	SchemaVersion string                    `json:"schema_version" yaml:"schema_version"`
	GeneratedAt   time.Time                 `json:"generated_at" yaml:"generated_at"`
	Categories    map[string]map[string]any `json:"categories" yaml:"categories"`
}

// NewFingerprint validates doc against the registry and builds a Fingerprint.
// Unknown categories or metrics and kind mismatches yield a *SchemaError.
func NewFingerprint(reg *Registry, doc Document) (*Fingerprint, error) {
	if doc.SourceID == "" {
		return nil, &SchemaError{Reason: "source_id is required"}
	}
	version := doc.SchemaVersion
	if version == "" {
		version = reg.Version
	}
	fp := &Fingerprint{
		SourceID:      doc.SourceID,
		SchemaVersion: version,
		GeneratedAt:   doc.GeneratedAt.UTC(),
		Categories:    make(map[CategoryName]CategoryBlock, len(doc.Categories)),
	}
	for rawCat, metrics := range doc.Categories {
		cat := CategoryName(rawCat)
		spec, ok := reg.Category(cat)
		if !ok {
			return nil, &SchemaError{Category: cat, Reason: "unknown category"}
		}
		block := make(CategoryBlock, len(metrics))
		for name, raw := range metrics {
			ms, ok := spec.Metric(name)
			if !ok {
				return nil, &SchemaError{Category: cat, Metric: name, Reason: "unknown metric"}
			}
			v, err := FromAny(raw)
			if err != nil {
				return nil, &SchemaError{Category: cat, Metric: name, Reason: err.Error()}
			}
			if v.IsAbsent() {
				continue
			}
			if v.Kind != ms.Kind {
				return nil, &SchemaError{
					Category: cat,
					Metric:   name,
					Reason:   fmt.Sprintf("expected %s value, got %s", ms.Kind, v.Kind),
				}
			}
			block[name] = v
		}
		fp.Categories[cat] = block
	}
	return fp, nil
}

// DecodeFingerprintJSON decodes and validates a JSON fingerprint document.
func DecodeFingerprintJSON(reg *Registry, data []byte) (*Fingerprint, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, &SchemaError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return NewFingerprint(reg, doc)
}

// Metric returns the value of a metric, or an absent Value and false.
func (f *Fingerprint) Metric(category CategoryName, metric string) (Value, bool) {
	block, ok := f.Categories[category]
	if !ok {
		return Value{}, false
	}
	v, ok := block[metric]
	if !ok || v.IsAbsent() {
		return Value{}, false
	}
	return v, true
}

// Document converts the fingerprint back into its raw form, for storage.
func (f *Fingerprint) Document() Document {
	doc := Document{
		SourceID:      f.SourceID,
		SchemaVersion: f.SchemaVersion,
		GeneratedAt:   f.GeneratedAt,
		Categories:    make(map[string]map[string]any, len(f.Categories)),
	}
	for cat, block := range f.Categories {
		metrics := make(map[string]any, len(block))
		for name, v := range block {
			metrics[name] = v.Any()
		}
		doc.Categories[string(cat)] = metrics
	}
	return doc
}

// Describe returns the report descriptor of the fingerprint.
func (f *Fingerprint) Describe(scores ScoreVector) Descriptor {
	return Descriptor{SourceID: f.SourceID, GeneratedAt: f.GeneratedAt, Scores: scores}
}
