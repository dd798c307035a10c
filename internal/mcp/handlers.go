package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mmahmad/whatsapp-cli-macos/internal/engine"
)

const maxPageSize = 200

type handlers struct {
	engine *engine.Engine
}

// searchParams builds engine parameters from the shared search tool
// arguments.
func searchParams(args map[string]any) (engine.SearchParams, error) {
	query, _ := args["query"].(string)
	sortStr, _ := args["sort"].(string)
	sortMode, err := engine.ParseSortMode(sortStr)
	if err != nil {
		return engine.SearchParams{}, err
	}

	p := engine.SearchParams{
		Query:    query,
		Sort:     sortMode,
		Page:     intArg(args, "page", 1),
		PageSize: intArg(args, "page_size", 20),
	}
	if v, ok := args["threshold"].(float64); ok {
		if v != math.Trunc(v) || v < 0 || v > 100 {
			return engine.SearchParams{}, fmt.Errorf("threshold must be an integer in [0,100]")
		}
		p = p.WithThreshold(int(v))
	}
	return p, nil
}

func intArg(args map[string]any, key string, def int) int {
	v, ok := args[key].(float64)
	if !ok {
		return def
	}
	if math.IsNaN(v) || v < 1 {
		return def
	}
	if math.IsInf(v, 1) || v > float64(maxPageSize) {
		return maxPageSize
	}
	return int(v)
}

func (h *handlers) searchMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	p, err := searchParams(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := h.engine.Search(ctx, p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(page)
}

func (h *handlers) searchInContact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	contact, _ := args["contact"].(string)
	if contact == "" {
		return mcp.NewToolResultError("contact parameter is required"), nil
	}
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	p, err := searchParams(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := h.engine.SearchInContact(ctx, contact, p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(page)
}

func (h *handlers) viewConversation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	contact, _ := args["contact"].(string)
	if contact == "" {
		return mcp.NewToolResultError("contact parameter is required"), nil
	}

	page, err := h.engine.ViewConversation(ctx, contact,
		intArg(args, "page", 1), intArg(args, "page_size", 20))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("view failed: %v", err)), nil
	}
	return jsonResult(page)
}

func (h *handlers) resolveContact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	res, err := h.engine.ResolveContact(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolve failed: %v", err)), nil
	}
	return jsonResult(res)
}

func (h *handlers) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.engine.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}
	return jsonResult(stats)
}

func (h *handlers) clearCache(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.engine.ClearCache()
	return mcp.NewToolResultText(`{"cleared": true}`), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
