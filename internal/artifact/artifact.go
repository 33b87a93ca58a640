// Package artifact writes rendered reports to local files or object storage.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/schema"
)

// ContentType returns the MIME type used when storing a report of the given format.
func ContentType(mode schema.OutputMode) string {
	switch mode {
	case schema.JSONOut:
		return "application/json"
	case schema.CSVOut:
		return "text/csv"
	case schema.HTMLOut:
		return "text/html; charset=utf-8"
	case schema.ParquetOut:
		return "application/vnd.apache.parquet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Open returns the sink for target and the name to write under.
// s3:// targets need an enabled S3 config; everything else is a local path.
func Open(cfg contract.S3Config, target string) (contract.ReportSink, string, error) {
	if key, ok := contract.SplitS3Target(target); ok {
		if !cfg.Enabled() {
			return nil, "", fmt.Errorf("output target %s needs s3.endpoint and s3.bucket", target)
		}
		sink, err := NewS3Sink(cfg)
		if err != nil {
			return nil, "", err
		}
		return sink, key, nil
	}
	return &FileSink{}, target, nil
}

// FileSink writes reports to the local filesystem, relative to Dir when set.
type FileSink struct {
	Dir string
}

var _ contract.ReportSink = &FileSink{} // Compile-time check

// Write creates or truncates the file and returns its path.
func (s *FileSink) Write(ctx context.Context, name string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" {
		return "", fmt.Errorf("report name is required")
	}
	path := name
	if s.Dir != "" && !filepath.IsAbs(name) {
		path = filepath.Join(s.Dir, name)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return path, nil
}
