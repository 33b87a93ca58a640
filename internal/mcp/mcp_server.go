// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/internal/loader"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Pawprint MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, ldr *loader.Loader, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Pawprint Comparison Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		loader:  ldr,
		mgr:     mgr,
	}

	// --- 1. Tool: compare_fingerprints ---
	s.AddTool(mcp.NewTool("compare_fingerprints",
		mcp.WithDescription("Compare two pawprint fingerprints and return the full report: changes, severities, insights, trend and chart data."),
		mcp.WithString("before", mcp.Description("Path to the earlier fingerprint, or store:<source_id>."), mcp.Required()),
		mcp.WithString("after", mcp.Description("Path to the later fingerprint, or store:<source_id>."), mcp.Required()),
		mcp.WithString("min_severity", mcp.Description("Lowest severity that produces an insight."), mcp.Enum("info", "low", "medium", "high", "critical")),
		mcp.WithBoolean("include_unchanged", mcp.Description("Also report unchanged metrics.")),
	), h.handleCompareFingerprints)

	// --- 2. Tool: score_fingerprint ---
	s.AddTool(mcp.NewTool("score_fingerprint",
		mcp.WithDescription("Score every category of one fingerprint in [0, 1]."),
		mcp.WithString("path", mcp.Description("Path to the fingerprint, or store:<source_id>."), mcp.Required()),
	), h.handleScoreFingerprint)

	// --- 3. Tool: validate_fingerprint ---
	s.AddTool(mcp.NewTool("validate_fingerprint",
		mcp.WithDescription("Validate a fingerprint document against the document schema and the registry."),
		mcp.WithString("path", mcp.Description("Path to the fingerprint file.")),
		mcp.WithString("document", mcp.Description("Inline JSON fingerprint document, used when path is empty.")),
	), h.handleValidateFingerprint)

	return s
}

// StartMCPServer starts the Pawprint MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, ldr *loader.Loader, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, ldr, mgr)
	return server.ServeStdio(s)
}
