package cmd

import (
	"github.com/aimarketingflow/pawprint/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Pawprint MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents compare, score and
validate fingerprints via standard tools.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Handlers suppress header logs themselves since stdio carries the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, source, storeManager)
	},
}
