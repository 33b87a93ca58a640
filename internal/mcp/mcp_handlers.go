package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aimarketingflow/pawprint/core"
	"github.com/aimarketingflow/pawprint/internal/contract"
	"github.com/aimarketingflow/pawprint/internal/loader"
	"github.com/aimarketingflow/pawprint/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	loader  *loader.Loader
	mgr     contract.StoreManager
}

func (h *toolHandler) handleCompareFingerprints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	before := strings.TrimSpace(request.GetString("before", ""))
	after := strings.TrimSpace(request.GetString("after", ""))
	if before == "" || after == "" {
		return mcp.NewToolResultError("both before and after are required"), nil
	}
	cfg.Inputs = []string{before, after}

	if s := request.GetString("min_severity", ""); s != "" {
		sev, ok := schema.ParseSeverity(strings.ToLower(s))
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid min_severity %q", s)), nil
		}
		cfg.MinSeverity = sev
	}
	cfg.IncludeUnchanged = request.GetBool("include_unchanged", cfg.IncludeUnchanged)

	report, err := core.GetCompareResults(core.WithSuppressHeader(ctx), cfg, h.loader, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("comparison failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleScoreFingerprint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	path := strings.TrimSpace(request.GetString("path", ""))
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	cfg.Inputs = []string{path}

	results, err := core.GetScoreResults(core.WithSuppressHeader(ctx), cfg, h.loader, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scoring failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(results[0], "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleValidateFingerprint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	path := strings.TrimSpace(request.GetString("path", ""))
	document := request.GetString("document", "")

	var result schema.ValidationResult
	switch {
	case path != "":
		cfg.Inputs = []string{path}
		results, err := core.GetValidationResults(core.WithSuppressHeader(ctx), cfg, h.loader, h.mgr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("validation failed: %v", err)), nil
		}
		if len(results) != 1 {
			return mcp.NewToolResultError("path must name a single fingerprint file"), nil
		}
		result = results[0]
	case strings.TrimSpace(document) != "":
		result = h.validateInline(cfg, []byte(document))
	default:
		return mcp.NewToolResultError("one of path or document is required"), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// validateInline checks a JSON document passed directly in the request.
func (h *toolHandler) validateInline(cfg *contract.Config, data []byte) schema.ValidationResult {
	result := schema.ValidationResult{Location: "inline"}
	fp, err := h.loader.DecodeFingerprint(cfg.Registry, data, loader.JSONFormat)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Valid = true
	result.SourceID = fp.SourceID
	return result
}
