package contract

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/aimarketingflow/pawprint/schema"
)

// Default values for configuration.
const (
	DefaultPrecision        = 3
	MaxPrecision            = 6
	DefaultClusterThreshold = 3
	DefaultListLimit        = 20
	DefaultFingerprintCache = 256
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// DefaultExcludes are skipped when scanning a directory of fingerprints.
var DefaultExcludes = []string{
	".DS_Store", ".gitignore", ".env",
	"node_modules/", ".git/",
	"*.tmp", "*.swp", "*.bak",
}

// ThresholdsRaw holds the optional severity bands for one category from the YAML config file.
// Missing fields keep the registry's value.
type ThresholdsRaw struct {
	Low      *float64 `mapstructure:"low"`
	Medium   *float64 `mapstructure:"medium"`
	High     *float64 `mapstructure:"high"`
	Critical *float64 `mapstructure:"critical"`
}

// S3RawInput holds object storage settings from the YAML config file or env.
type S3RawInput struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access-key"`
	SecretKey string `mapstructure:"secret-key"`
	UseSSL    bool   `mapstructure:"use-ssl"`
}

// S3Config holds validated object storage settings. Bucket empty means disabled.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	Region    string
	AccessKey string
	SecretKey string // Please use env var as this is plaintext
	UseSSL    bool
}

// Enabled reports whether reports can be written to object storage.
func (c S3Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// Config holds the runtime configuration for a comparison.
// This struct remains the "final, validated" config.
type Config struct {
	Inputs     []string
	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	ChartsFile string // optional CSV export of the report chart data
	Width      int    // Terminal width override (0 = auto-detect)
	UseColors  bool
	Limit      int
	Excludes   []string

	RegistryPath string
	Registry     *schema.Registry // resolved registry with threshold overrides applied

	MinSeverity      schema.Severity
	ClusterThreshold int
	IncludeUnchanged bool

	// Thresholds is the final set of per-category overrides applied to Registry.
	Thresholds map[schema.CategoryName]schema.Thresholds

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext
	Persist        bool   // record comparisons in the store

	S3 S3Config
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	Inputs []string

	// --- Fields from rootCmd.PersistentFlags() ---
	OutputFile     string `mapstructure:"output-file"`
	Workers        int    `mapstructure:"workers"`
	Precision      int    `mapstructure:"precision"`
	Output         string `mapstructure:"output"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`
	Registry       string `mapstructure:"registry"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`

	// --- Fields from compare, batch and score flags ---
	MinSeverity      string `mapstructure:"min-severity"`
	ClusterThreshold int    `mapstructure:"cluster-threshold"`
	IncludeUnchanged bool   `mapstructure:"include-unchanged"`
	ThresholdsStr    string `mapstructure:"thresholds-override"`
	Persist          bool   `mapstructure:"persist"`
	ChartsFile       string `mapstructure:"charts-file"`
	Exclude          string `mapstructure:"exclude"`
	Limit            int    `mapstructure:"limit"`

	// --- Per-category thresholds from config file ---
	Thresholds map[string]ThresholdsRaw `mapstructure:"thresholds"`

	// --- Object storage from config file or env ---
	S3 S3RawInput `mapstructure:"s3"`
}

// Clone returns a deep copy of the Config struct. The registry is shared since it is never mutated.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Inputs != nil {
		clone.Inputs = make([]string, len(c.Inputs))
		copy(clone.Inputs, c.Inputs)
	}
	if c.Excludes != nil {
		clone.Excludes = make([]string, len(c.Excludes))
		copy(clone.Excludes, c.Excludes)
	}
	if c.Thresholds != nil {
		clone.Thresholds = make(map[schema.CategoryName]schema.Thresholds, len(c.Thresholds))
		maps.Copy(clone.Thresholds, c.Thresholds)
	}
	return &clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(ctx context.Context, cfg *Config, source RegistrySource, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processEngineOptions(cfg, input); err != nil {
		return err
	}
	if err := processS3Config(cfg, input); err != nil {
		return err
	}
	if err := resolveRegistry(ctx, cfg, source, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the output and store fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.Inputs = input.Inputs
	cfg.OutputFile = input.OutputFile
	cfg.ChartsFile = input.ChartsFile
	cfg.Width = input.Width
	cfg.Persist = input.Persist
	cfg.RegistryPath = strings.TrimSpace(input.Registry)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, json, csv, html, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 3. Limit Validation ---
	cfg.Limit = input.Limit
	if cfg.Limit < 0 {
		return fmt.Errorf("limit cannot be negative (received %d)", input.Limit)
	}
	if cfg.Limit == 0 {
		cfg.Limit = DefaultListLimit
	}

	// --- 4. Backend Validation ---
	backend := strings.ToLower(input.StoreBackend)
	if backend == "" {
		backend = string(schema.SQLiteBackend)
	}
	cfg.StoreBackend = schema.DatabaseBackend(backend)
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	// --- 5. Excludes Processing ---
	cfg.Excludes = append([]string(nil), DefaultExcludes...)
	if input.Exclude != "" {
		for p := range strings.SplitSeq(input.Exclude, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.Excludes = append(cfg.Excludes, trimmed)
			}
		}
	}

	return nil
}

// processEngineOptions validates the classifier and insight settings.
func processEngineOptions(cfg *Config, input *ConfigRawInput) error {
	cfg.MinSeverity = schema.SeverityLow
	if input.MinSeverity != "" {
		sev, ok := schema.ParseSeverity(strings.ToLower(input.MinSeverity))
		if !ok {
			return fmt.Errorf("invalid min-severity '%s'. must be info, low, medium, high, critical", input.MinSeverity)
		}
		cfg.MinSeverity = sev
	}

	cfg.ClusterThreshold = input.ClusterThreshold
	if cfg.ClusterThreshold < 0 {
		return fmt.Errorf("cluster-threshold cannot be negative (received %d)", input.ClusterThreshold)
	}
	if cfg.ClusterThreshold == 0 {
		cfg.ClusterThreshold = DefaultClusterThreshold
	}
	cfg.IncludeUnchanged = input.IncludeUnchanged
	return nil
}

// processS3Config transfers object storage settings. A bucket without an endpoint is an error.
func processS3Config(cfg *Config, input *ConfigRawInput) error {
	raw := input.S3
	cfg.S3 = S3Config{
		Endpoint:  strings.TrimSpace(raw.Endpoint),
		Bucket:    strings.TrimSpace(raw.Bucket),
		Prefix:    strings.Trim(raw.Prefix, "/ "),
		Region:    raw.Region,
		AccessKey: raw.AccessKey,
		SecretKey: raw.SecretKey,
		UseSSL:    raw.UseSSL,
	}
	if cfg.S3.Bucket != "" && cfg.S3.Endpoint == "" {
		return fmt.Errorf("s3.endpoint is required when s3.bucket is set")
	}
	if strings.HasPrefix(cfg.OutputFile, S3Scheme) && !cfg.S3.Enabled() {
		return fmt.Errorf("output file %q needs s3.endpoint and s3.bucket", cfg.OutputFile)
	}
	return nil
}

// resolveRegistry loads the registry and applies threshold overrides.
// Config file values apply first, then --thresholds-override takes precedence.
func resolveRegistry(ctx context.Context, cfg *Config, source RegistrySource, input *ConfigRawInput) error {
	reg, err := source.LoadRegistry(ctx, cfg.RegistryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	thresholds := make(map[schema.CategoryName]schema.Thresholds)
	for name, raw := range input.Thresholds {
		cat := schema.CategoryName(strings.ToLower(strings.TrimSpace(name)))
		spec, ok := reg.Category(cat)
		if !ok {
			return fmt.Errorf("thresholds configured for unknown category %q", name)
		}
		thresholds[cat] = mergeThresholds(spec.Thresholds, raw)
	}

	if input.ThresholdsStr != "" {
		parsed, err := parseThresholdsString(input.ThresholdsStr)
		if err != nil {
			return fmt.Errorf("invalid --thresholds-override format: %w", err)
		}
		maps.Copy(thresholds, parsed)
	}

	resolved, err := reg.WithThresholds(thresholds)
	if err != nil {
		return err
	}
	cfg.Registry = resolved
	cfg.Thresholds = thresholds
	return nil
}

func mergeThresholds(base schema.Thresholds, raw ThresholdsRaw) schema.Thresholds {
	if raw.Low != nil {
		base.Low = *raw.Low
	}
	if raw.Medium != nil {
		base.Medium = *raw.Medium
	}
	if raw.High != nil {
		base.High = *raw.High
	}
	if raw.Critical != nil {
		base.Critical = *raw.Critical
	}
	return base
}

// parseThresholdsString parses a string like "permissions:0.2/0.5/1/1,naming:0.2/0.4/0.7/1"
// into per-category severity bands (low/medium/high/critical upper bounds).
func parseThresholdsString(s string) (map[schema.CategoryName]schema.Thresholds, error) {
	thresholds := make(map[schema.CategoryName]schema.Thresholds)

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		keyValue := strings.Split(part, ":")
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("invalid threshold format '%s', expected 'category:low/medium/high/critical'", part)
		}

		cat := schema.CategoryName(strings.ToLower(strings.TrimSpace(keyValue[0])))
		if cat == "" {
			return nil, fmt.Errorf("missing category in '%s'", part)
		}
		bands := strings.Split(strings.TrimSpace(keyValue[1]), "/")
		if len(bands) != 4 {
			return nil, fmt.Errorf("category %s needs 4 bands, got %d", cat, len(bands))
		}

		values := make([]float64, len(bands))
		for i, b := range bands {
			v, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid threshold value '%s' for category %s: %w", b, cat, err)
			}
			values[i] = v
		}
		thresholds[cat] = schema.Thresholds{Low: values[0], Medium: values[1], High: values[2], Critical: values[3]}
	}

	return thresholds, nil
}
