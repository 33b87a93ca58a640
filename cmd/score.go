package cmd

import (
	"github.com/aimarketingflow/pawprint/core"
	"github.com/spf13/cobra"
)

// scoreCmd scores fingerprints without comparing them.
var scoreCmd = &cobra.Command{
	Use:   "score <fingerprint>...",
	Short: "Score every category of one or more fingerprints",
	Long: `Score each registry category of the given fingerprints in [0, 1].

Numeric metrics are normalized against their reference range, frequency tables
by entropy and sequences by count and diversity. Values outside the expected
range are clamped and reported as warnings.

Examples:
  # Score one fingerprint
  pawprint score host-a.json

  # Score side by side as CSV
  pawprint score a.json b.json --output csv`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("scoring", core.ExecuteScore)
	},
}

// validateCmd validates fingerprint documents.
var validateCmd = &cobra.Command{
	Use:   "validate <fingerprint|dir>...",
	Short: "Validate fingerprint documents against the schema and registry",
	Long: `Check each document against the fingerprint JSON Schema and the registry.

Directories are scanned for .json, .yaml and .yml files. The command exits
non-zero when any document is invalid, which makes it usable as a CI gate.

Examples:
  # Validate a directory of snapshots
  pawprint validate snapshots/

  # Validate against a custom registry
  pawprint validate host.yaml --registry registry.yaml`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("validation", core.ExecuteValidate)
	},
}
