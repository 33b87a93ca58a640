package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentType(t *testing.T) {
	tests := []struct {
		mode     schema.OutputMode
		expected string
	}{
		{schema.JSONOut, "application/json"},
		{schema.CSVOut, "text/csv"},
		{schema.HTMLOut, "text/html; charset=utf-8"},
		{schema.ParquetOut, "application/vnd.apache.parquet"},
		{schema.TextOut, "text/plain; charset=utf-8"},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.expected, ContentType(tt.mode))
		})
	}
}

func TestFileSinkWrite(t *testing.T) {
	dir := t.TempDir()
	sink := &FileSink{Dir: dir}

	path, err := sink.Write(context.Background(), "runs/report.json", []byte(`{}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "runs", "report.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	abs := filepath.Join(t.TempDir(), "abs.txt")
	path, err = sink.Write(context.Background(), abs, []byte("x"), "")
	require.NoError(t, err)
	assert.Equal(t, abs, path)

	_, err = sink.Write(context.Background(), "", nil, "")
	assert.Error(t, err)
}

func TestFileSinkCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&FileSink{Dir: t.TempDir()}).Write(ctx, "a.txt", nil, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen(t *testing.T) {
	s3 := contract.S3Config{Endpoint: "localhost:9000", Bucket: "reports", Prefix: "pawprint"}

	sink, name, err := Open(contract.S3Config{}, "out/report.html")
	require.NoError(t, err)
	assert.IsType(t, &FileSink{}, sink)
	assert.Equal(t, "out/report.html", name)

	sink, name, err = Open(s3, "s3://runs/report.json")
	require.NoError(t, err)
	assert.IsType(t, &S3Sink{}, sink)
	assert.Equal(t, "runs/report.json", name)

	_, _, err = Open(contract.S3Config{}, "s3://runs/report.json")
	assert.Error(t, err)
}

func TestNewS3Sink(t *testing.T) {
	tests := []struct {
		name    string
		cfg     contract.S3Config
		wantErr string
	}{
		{"missing endpoint", contract.S3Config{Bucket: "b"}, "endpoint is required"},
		{"missing bucket", contract.S3Config{Endpoint: "localhost:9000"}, "bucket is required"},
		{"half credentials", contract.S3Config{Endpoint: "localhost:9000", Bucket: "b", AccessKey: "k"}, "must be set together"},
		{"static credentials", contract.S3Config{Endpoint: "localhost:9000", Bucket: "b", AccessKey: "k", SecretKey: "s"}, ""},
		{"env credentials", contract.S3Config{Endpoint: "localhost:9000", Bucket: "b"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, err := NewS3Sink(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, defaultRegion, sink.region)
		})
	}
}

func TestS3ObjectKey(t *testing.T) {
	sink, err := NewS3Sink(contract.S3Config{Endpoint: "localhost:9000", Bucket: "b", Prefix: "/pawprint/"})
	require.NoError(t, err)
	assert.Equal(t, "pawprint/runs/a.json", sink.objectKey("/runs/a.json"))
	assert.Equal(t, "", sink.objectKey("  "))

	sink.prefix = ""
	assert.Equal(t, "runs/a.json", sink.objectKey("runs/a.json"))

	_, err = sink.Write(context.Background(), "", []byte("x"), "")
	assert.Error(t, err)
}
