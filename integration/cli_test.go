//go:build basic

package integration

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aimarketingflow/pawprint/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sqliteEnv points the store at a throwaway SQLite file.
func sqliteEnv(t *testing.T) []string {
	t.Helper()
	return []string{
		"PAWPRINT_STORE_BACKEND=sqlite",
		"PAWPRINT_STORE_DB_CONNECT=" + filepath.Join(t.TempDir(), "pawprint.db"),
		"PAWPRINT_COLOR=no",
	}
}

func TestCompareJSON(t *testing.T) {
	out, err := runPawprint(t, sqliteEnv(t), "compare", beforeFixture, afterFixture, "--output", "json")
	require.NoError(t, err)

	// Status lines go to stderr, so find the JSON document in the combined output.
	start := strings.Index(out, "{")
	require.GreaterOrEqual(t, start, 0, out)
	var report schema.Report
	require.NoError(t, json.NewDecoder(strings.NewReader(out[start:])).Decode(&report))
	assert.Equal(t, "host-a", report.Before.SourceID)
	assert.Equal(t, "host-a-later", report.After.SourceID)
	assert.NotEmpty(t, report.Changes)
}

func TestCompareText(t *testing.T) {
	out, err := runPawprint(t, sqliteEnv(t), "compare", beforeFixture, afterFixture)
	require.NoError(t, err)
	assert.Contains(t, out, "host-a → host-a-later")
	assert.Contains(t, out, "Divergence:")
	assert.Contains(t, out, "world_writable")
}

func TestCompareIncompatibleRegistry(t *testing.T) {
	_, err := runPawprint(t, sqliteEnv(t), "compare", beforeFixture, afterFixture, "--registry", registryFixture)
	assert.Error(t, err)
}

func TestScoreAndValidate(t *testing.T) {
	env := sqliteEnv(t)

	out, err := runPawprint(t, env, "score", beforeFixture, afterFixture)
	require.NoError(t, err)
	assert.Contains(t, out, "Scored 2 fingerprints")

	out, err = runPawprint(t, env, "validate", "internal/loader/testdata")
	assert.Contains(t, out, "documents valid")
	// registry.yaml is not a fingerprint, so the directory is not fully valid
	assert.Error(t, err)

	out, err = runPawprint(t, env, "validate", beforeFixture, afterFixture)
	require.NoError(t, err)
	assert.Contains(t, out, "2 of 2 documents valid")
}

func TestSchema(t *testing.T) {
	out, err := runPawprint(t, sqliteEnv(t), "schema", "--thresholds-override", "permissions:0.1/0.2/0.5/1")
	require.NoError(t, err)
	assert.Contains(t, out, "Pawprint Registry (version 1)")
	assert.Contains(t, out, "low ≤ 0.100")

	out, err = runPawprint(t, sqliteEnv(t), "schema", "--document")
	require.NoError(t, err)
	assert.Contains(t, out, `"source_id"`)
}

func TestStoreRoundTrip(t *testing.T) {
	env := sqliteEnv(t)

	_, err := runPawprint(t, env, "store", "import", beforeFixture)
	require.NoError(t, err)

	_, err = runPawprint(t, env, "compare", "store:host-a", afterFixture, "--persist")
	require.NoError(t, err)

	out, err := runPawprint(t, env, "store", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 1 stored comparisons")

	out, err = runPawprint(t, env, "store", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Comparisons: 1")
	assert.Contains(t, out, "Total Fingerprints: 2")
}

func TestVersion(t *testing.T) {
	out, err := runPawprint(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pawprint CLI")
}
