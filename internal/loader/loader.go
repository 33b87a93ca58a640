// Package loader reads registries and fingerprint documents from disk.
package loader

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/schema"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// DocumentSchemaURL identifies the embedded fingerprint JSON Schema.
const DocumentSchemaURL = "https://pawprint.dev/schema/fingerprint.schema.json"

//go:embed fingerprint.schema.json
var documentSchema []byte

// Format is the encoding of a document on disk.
type Format string

// Supported document formats.
const (
	JSONFormat Format = "json"
	YAMLFormat Format = "yaml"
)

// DetectFormat picks the format from the file extension. Anything that is
// not .yaml or .yml is read as JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLFormat
	default:
		return JSONFormat
	}
}

// DocumentSchema returns the raw fingerprint JSON Schema.
func DocumentSchema() []byte {
	out := make([]byte, len(documentSchema))
	copy(out, documentSchema)
	return out
}

// Loader decodes fingerprints and registries. A Loader is safe for concurrent use.
type Loader struct {
	schema *jsonschema.Schema
}

var (
	_ contract.RegistrySource    = &Loader{} // Compile-time check
	_ contract.FingerprintSource = &Loader{} // Compile-time check
)

// New compiles the embedded document schema and returns a Loader.
func New() (*Loader, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(DocumentSchemaURL, bytes.NewReader(documentSchema)); err != nil {
		return nil, fmt.Errorf("failed to add document schema: %w", err)
	}
	compiled, err := compiler.Compile(DocumentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile document schema: %w", err)
	}
	return &Loader{schema: compiled}, nil
}

// LoadRegistry reads a registry file. An empty path returns the built-in registry.
func (l *Loader) LoadRegistry(ctx context.Context, path string) (*schema.Registry, error) {
	if path == "" {
		return schema.DefaultRegistry(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry %s: %w", path, err)
	}
	return DecodeRegistry(data, DetectFormat(path))
}

// DecodeRegistry parses and validates a registry document.
func DecodeRegistry(data []byte, format Format) (*schema.Registry, error) {
	var reg schema.Registry
	switch format {
	case YAMLFormat:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&reg); err != nil {
			return nil, fmt.Errorf("invalid registry YAML: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&reg); err != nil {
			return nil, fmt.Errorf("invalid registry JSON: %w", err)
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid registry: %w", err)
	}
	return &reg, nil
}

// LoadFingerprint reads, structurally validates and decodes one fingerprint file.
func (l *Loader) LoadFingerprint(ctx context.Context, reg *schema.Registry, location string) (*schema.Fingerprint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("failed to read fingerprint %s: %w", location, err)
	}
	fp, err := l.DecodeFingerprint(reg, data, DetectFormat(location))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return fp, nil
}

// DecodeFingerprint validates data against the document schema, then against
// the registry, and returns the fingerprint.
func (l *Loader) DecodeFingerprint(reg *schema.Registry, data []byte, format Format) (*schema.Fingerprint, error) {
	canonical, err := l.Validate(data, format)
	if err != nil {
		return nil, err
	}
	return schema.DecodeFingerprintJSON(reg, canonical)
}

// Validate checks data against the document schema only and returns its JSON form.
// Structural violations are reported as *schema.SchemaError.
func (l *Loader) Validate(data []byte, format Format) ([]byte, error) {
	canonical := data
	if format == YAMLFormat {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, &schema.SchemaError{Reason: fmt.Sprintf("invalid YAML: %v", err)}
		}
		canonical = converted
	}

	dec := json.NewDecoder(bytes.NewReader(canonical))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return nil, &schema.SchemaError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if err := l.schema.Validate(instance); err != nil {
		return nil, &schema.SchemaError{Reason: validationReason(err)}
	}
	return canonical, nil
}

// validationReason flattens the most specific schema violation into one line.
func validationReason(err error) string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	location := leaf.InstanceLocation
	if location == "" {
		location = "/"
	}
	return fmt.Sprintf("document %s: %s", location, leaf.Message)
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("empty document")
	}
	return json.Marshal(doc)
}

// ListFingerprintFiles returns the JSON and YAML files under dir that are not
// excluded, sorted by path.
func ListFingerprintFiles(ctx context.Context, dir string, excludes []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && contract.ShouldIgnore(rel+"/", excludes) {
				return filepath.SkipDir
			}
			return nil
		}
		if contract.ShouldIgnore(rel, excludes) {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
