// Package cmd defines the command-line interface for pawprint.
package cmd

import (
	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeImportCmd)
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("registry", "", "Path to a registry file (YAML or JSON); the built-in registry when empty")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or json or csv or html or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to (s3://key writes to the configured bucket)")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultListLimit, "Number of rows to display")
	rootCmd.PersistentFlags().String("exclude", "", "Comma-separated list of patterns to skip when scanning directories")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("min-severity", string(schema.SeverityLow), "Lowest severity that produces an insight: info or low or medium or high or critical")
	rootCmd.PersistentFlags().Int("cluster-threshold", contract.DefaultClusterThreshold, "High or critical changes in one category before they are reported as a cluster")
	rootCmd.PersistentFlags().Bool("include-unchanged", false, "Also list unchanged metrics and their insights")
	rootCmd.PersistentFlags().String("thresholds-override", "", "Severity bands per category (format: 'permissions:0.2/0.5/1/1,naming:0.1/0.3/0.6/1')")
	rootCmd.PersistentFlags().Bool("persist", false, "Record comparisons and their fingerprints in the store")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of compareCmd to Viper
	compareCmd.Flags().String("charts-file", "", "Optional path to write the chart data as CSV")
	if err := viper.BindPFlags(compareCmd.Flags()); err != nil {
		contract.LogFatal("Error binding compare flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}

	// Bind all flags of schemaCmd to Viper
	schemaCmd.Flags().Bool("document", false, "Print the JSON Schema of fingerprint documents instead of the registry")
	if err := viper.BindPFlags(schemaCmd.Flags()); err != nil {
		contract.LogFatal("Error binding schema flags", err)
	}
}
