package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aimarketingflow/pawprint/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		input    schema.Severity
		expected string
	}{
		{schema.SeverityInfo, "Info"},
		{schema.SeverityLow, "Low"},
		{schema.SeverityMedium, "Medium"},
		{schema.SeverityHigh, "High"},
		{schema.SeverityCritical, "Critical"},
		{"", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.input))
		})
	}
}

func TestGetColorLabel(t *testing.T) {
	for _, sev := range schema.AllSeverities {
		t.Run(string(sev), func(t *testing.T) {
			// Should contain the plain label
			assert.Contains(t, GetColorLabel(sev), GetPlainLabel(sev))
		})
	}
}

func TestGetColorKindAndDivergence(t *testing.T) {
	for _, kind := range schema.AllChangeKinds {
		assert.Contains(t, GetColorKind(kind), string(kind))
	}
	assert.Contains(t, GetColorDivergence(0), "Identical")
	assert.Contains(t, GetColorDivergence(0.05), "Low")
	assert.Contains(t, GetColorDivergence(0.2), "Moderate")
	assert.Contains(t, GetColorDivergence(0.4), "High")
	assert.Contains(t, GetColorDivergence(0.9), "Critical")
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "report.json")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		excludes   []string
		wantIgnore bool
	}{
		{
			name:       "empty excludes",
			path:       "prints/host-a.json",
			excludes:   []string{},
			wantIgnore: false,
		},
		{
			name:       "prefix match",
			path:       "archive/2023/host-a.json",
			excludes:   []string{"archive/"},
			wantIgnore: true,
		},
		{
			name:       "nested directory match",
			path:       "prints/node_modules/x.json",
			excludes:   []string{"node_modules/"},
			wantIgnore: true,
		},
		{
			name:       "suffix match",
			path:       "prints/host-a.json.bak",
			excludes:   []string{".bak"},
			wantIgnore: true,
		},
		{
			name:       "glob match basename",
			path:       "prints/draft.tmp",
			excludes:   []string{"*.tmp"},
			wantIgnore: true,
		},
		{
			name:       "substring match",
			path:       "prints/scratch/host.yaml",
			excludes:   []string{"scratch"},
			wantIgnore: true,
		},
		{
			name:       "no match",
			path:       "prints/host-b.yaml",
			excludes:   DefaultExcludes,
			wantIgnore: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantIgnore, ShouldIgnore(tt.path, tt.excludes))
		})
	}
}

func TestGetStoreDBFilePath(t *testing.T) {
	path := GetStoreDBFilePath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, ".pawprint.db")

	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, homeDir), "path %s should start with home dir %s", path, homeDir)
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "short", TruncatePath("short", 10))
	assert.Equal(t, "...ile.json", TruncatePath("some/long/file.json", 11))
	assert.Equal(t, "abcdef", TruncatePath("abcdef", 3))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := ParseBoolString("")
	assert.Error(t, err)
}

func TestSplitS3Target(t *testing.T) {
	key, ok := SplitS3Target("s3://runs/a.json")
	assert.True(t, ok)
	assert.Equal(t, "runs/a.json", key)

	_, ok = SplitS3Target("/tmp/a.json")
	assert.False(t, ok)
}
