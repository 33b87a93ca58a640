//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// exerciseStore runs the full store workflow against the configured backend.
func exerciseStore(t *testing.T, env []string) {
	t.Helper()

	_, err := runPawprint(t, env, "store", "clear")
	require.NoError(t, err)

	_, err = runPawprint(t, env, "store", "migrate")
	require.NoError(t, err)

	_, err = runPawprint(t, env, "store", "import", beforeFixture)
	require.NoError(t, err)

	_, err = runPawprint(t, env, "compare", "store:host-a", afterFixture, "--persist")
	require.NoError(t, err)

	_, err = runPawprint(t, env, "batch", beforeFixture, afterFixture, beforeFixture, "--persist")
	require.NoError(t, err)

	out, err := runPawprint(t, env, "store", "list", "--output", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "run_id,before_source,after_source")

	out, err = runPawprint(t, env, "store", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Connected: true")
	assert.Contains(t, out, "Total Comparisons: 3")

	exportBase := t.TempDir() + "/pawprint-data"
	out, err = runPawprint(t, env, "store", "export", "--output-file", exportBase)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 3 comparisons")
}

// TestPawprintWithMySQL tests the pawprint CLI with a MySQL backend.
func TestPawprintWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "pawprint",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/pawprint?parseTime=true", host, port.Port())
	exerciseStore(t, []string{
		"PAWPRINT_STORE_BACKEND=mysql",
		"PAWPRINT_STORE_DB_CONNECT=" + connStr,
		"PAWPRINT_COLOR=no",
	})
}

// TestPawprintWithPostgres tests the pawprint CLI with a PostgreSQL backend.
func TestPawprintWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	exerciseStore(t, []string{
		"PAWPRINT_STORE_BACKEND=postgresql",
		"PAWPRINT_STORE_DB_CONNECT=" + connStr,
		"PAWPRINT_COLOR=no",
	})
}
