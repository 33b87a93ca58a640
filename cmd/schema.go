package cmd

import (
	"os"

	"github.com/aimarketingflow/pawprint/core"
	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/internal/loader"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// schemaCmd displays the registry in effect.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Display the category registry and severity thresholds",
	Long: `Show every category of the registry in effect, with its weight, severity
bands and metrics.

Threshold overrides from .pawprint.yaml and --thresholds-override are applied,
so this is the quickest way to check a configuration.

No fingerprint is read - this is purely informational.

Examples:
  # Show the built-in registry
  pawprint schema

  # Check a custom registry with overrides
  pawprint schema --registry registry.yaml --thresholds-override "permissions:0.1/0.2/0.5/1"

  # Print the JSON Schema of fingerprint documents
  pawprint schema --document`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if viper.GetBool("document") {
			if _, err := os.Stdout.Write(loader.DocumentSchema()); err != nil {
				contract.LogFatal("Cannot print document schema", err)
			}
			return
		}
		runExecutor("registry display", core.ExecuteRegistry)
	},
}
