package cmd

import (
	"github.com/aimarketingflow/pawprint/core"
	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/spf13/cobra"
)

// runExecutor runs executeFunc with the global config and exits on failure.
func runExecutor(what string, executeFunc core.ExecutorFunc) {
	if err := executeFunc(rootCtx, cfg, source, storeManager); err != nil {
		contract.LogFatal("Cannot run "+what, err)
	}
}

// compareCmd compares two fingerprints.
var compareCmd = &cobra.Command{
	Use:   "compare <before> <after>",
	Short: "Compare two fingerprints of the same tree",
	Long: `Compare two fingerprints and report every metric that was added, removed or
modified, with a severity, an insight and a recommended action.

Each input is a fingerprint file (JSON or YAML) or store:<source_id> to use the
latest fingerprint imported for that source.

The report includes:
- Per-category scores for both sides and the overall divergence
- Changes ordered by registry, with magnitude and severity
- Insights, clustered when a category has many high or critical changes
- The trend profile and chart data

Examples:
  # Compare two snapshots
  pawprint compare before.json after.yaml

  # Only surface medium and above, as JSON
  pawprint compare before.json after.json --min-severity medium --output json

  # Compare against the stored baseline and keep the run
  pawprint compare store:host-a after.json --persist

  # Write an HTML report and the chart data
  pawprint compare a.json b.json --output html --output-file report.html --charts-file charts.csv`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("comparison", core.ExecuteCompare)
	},
}

// batchCmd compares many fingerprints against one baseline.
var batchCmd = &cobra.Command{
	Use:   "batch <baseline> <target>...",
	Short: "Compare many fingerprints against one baseline",
	Long: `Compare every target against a single baseline fingerprint.

Targets may be files, directories of fingerprints or store:<source_id>.
Pairs run concurrently. A target that fails to load or is incompatible is
reported with its error and does not stop the others.

Examples:
  # Compare a fleet against a golden image
  pawprint batch golden.json fleet/

  # Export the batch summary as CSV
  pawprint batch golden.json fleet/ --output csv --output-file fleet.csv`,
	Args:    cobra.MinimumNArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		runExecutor("batch comparison", core.ExecuteBatch)
	},
}
