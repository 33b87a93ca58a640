package cmd

import (
	"fmt"

	"github.com/aimarketingflow/pawprint/core"
	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/internal/iocache"
	"github.com/aimarketingflow/pawprint/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeBackendFromConfig reads and checks the store settings without the full shared setup.
func storeBackendFromConfig() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	if backend == "" {
		backend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup() error {
	if err := storeBackendFromConfig(); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg.StoreBackend, cfg.StoreDBConnect, viper.GetInt("fingerprint-cache")); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeConfigSetupWrapper checks the store settings but does NOT open the
// stores, so migrations can run on a fresh database.
func storeConfigSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeBackendFromConfig()
}

// storeCmd focused on store management.
//
// Note: Most store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup. This avoids registry loading and complex config
// processing for simple store operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage stored fingerprints and comparison history",
	Long: `Manage the pawprint store.

The store keeps:
- The latest fingerprint per source, so store:<source_id> can be used as an input
- Every persisted comparison run with its flattened changes

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  import  - Validate fingerprints and save them as baselines
  list    - Show recent comparison runs
  status  - Show store statistics and connection info
  clear   - Remove all stored data
  export  - Export comparison history to Parquet
  migrate - Run database schema migrations`,
}

// storeImportCmd saves fingerprints as baselines.
var storeImportCmd = &cobra.Command{
	Use:   "import <fingerprint|dir>...",
	Short: "Validate fingerprints and save them as the latest for their source",
	Long: `Validate each fingerprint and save it under its source_id, replacing any
earlier fingerprint of the same source.

Examples:
  # Import a golden baseline
  pawprint store import golden.json

  # Then compare against it
  pawprint compare store:golden-host today.json`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("store import", core.ExecuteStoreImport)
	},
}

// storeListCmd lists recent comparison runs.
var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the most recent stored comparisons",
	Long: `List persisted comparison runs, newest first, up to --limit.

Examples:
  # Show the last 20 runs
  pawprint store list

  # Export the run list as JSON
  pawprint store list --limit 100 --output json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("store list", core.ExecuteStoreList)
	},
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show detailed information about the pawprint store.

Displays:
- Backend type and connection status
- Number of stored fingerprints and comparisons
- Registry version of the latest comparison
- Last and oldest comparison timestamps
- Table sizes

Examples:
  # Check store status
  pawprint store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.GetStoreStatus(storeManager)
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iocache.PrintStoreStatus(status)
	},
}

// storeClearCmd clears the store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored fingerprints and comparisons",
	Long: `Delete all stored fingerprints, comparison runs and changes.

WARNING: This action cannot be undone. Consider exporting data first.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the store tables

Examples:
  # Export before clearing
  pawprint store export --output-file backup
  pawprint store clear`,
	PreRunE: storeConfigSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := contract.GetStoreDBFilePath()
		if cfg.StoreBackend == schema.SQLiteBackend && cfg.StoreDBConnect != "" {
			dbFilePath = cfg.StoreDBConnect
		}
		if err := iocache.ClearStore(cfg.StoreBackend, dbFilePath, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

// storeExportCmd exports comparison history to Parquet files.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export comparison history to Parquet for BI tools and analytics",
	Long: `Export all stored comparison runs and changes to Parquet.

Writes two files:
- <output-file>.comparisons.parquet - one row per run
- <output-file>.changes.parquet     - one row per change

Requires: --output-file parameter

Examples:
  # Export all data
  pawprint store export --output-file pawprint-data

  # Query with DuckDB
  duckdb -c "SELECT category, count(*) FROM read_parquet('pawprint-data.changes.parquet') GROUP BY 1"`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		result, err := iocache.ExecuteStoreExport(rootCtx, storeManager, cfg.OutputFile)
		if err != nil {
			contract.LogFatal("Failed to export store data", err)
		}
		fmt.Printf("Exported %d comparisons to %s\n", result.Comparisons, result.ComparisonsFile)
		fmt.Printf("Exported %d changes to %s\n", result.Changes, result.ChangesFile)
	},
}

// storeMigrateCmd runs database migrations for the store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the pawprint store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  pawprint store migrate

  # Rollback to initial state
  pawprint store migrate --target-version 0`,
	PreRunE: storeConfigSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		current, err := iocache.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Printf("Store schema is at version %d\n", current)
	},
}
