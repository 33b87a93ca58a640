package iocache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aimarketingflow/pawprint/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateStore_NoneBackend(t *testing.T) {
	_, err := MigrateStore(schema.NoneBackend, "", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for NoneBackend")
}

func TestMigrateStore_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	version, err := MigrateStore(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)

	// Running again is a no-op
	version, err = MigrateStore(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	// Roll back everything, then forward to version 1
	version, err = MigrateStore(schema.SQLiteBackend, dbPath, 0)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	version, err = MigrateStore(schema.SQLiteBackend, dbPath, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestMigrateStore_AfterStoreCreatedTables(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "existing.db")
	store, err := NewComparisonStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	version, err := MigrateStore(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestMigrationsEmbeddedForEveryBackend(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		for _, dir := range []string{"up", "down"} {
			_, err := migrationsFS.ReadFile("migrations/" + string(backend) + "/000001_init." + dir + ".sql")
			assert.NoError(t, err, "%s %s", backend, dir)
		}
	}
}
