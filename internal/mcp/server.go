// Package mcp exposes the search engine to MCP clients over stdio.
package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mmahmad/whatsapp-cli-macos/internal/engine"
)

// Tool name constants.
const (
	ToolSearchMessages   = "search_messages"
	ToolSearchInContact  = "search_in_contact"
	ToolViewConversation = "view_conversation"
	ToolResolveContact   = "resolve_contact"
	ToolGetStats         = "get_stats"
	ToolClearCache       = "clear_cache"
)

// Common argument helpers for recurring tool option definitions.

func withThreshold() mcp.ToolOption {
	return mcp.WithNumber("threshold",
		mcp.Description("Minimum match score 0-100 (default 60); exact matches are always included"),
	)
}

func withSort() mcp.ToolOption {
	return mcp.WithString("sort",
		mcp.Description("Result order (default relevance)"),
		mcp.Enum("relevance", "time"),
	)
}

func withPage() mcp.ToolOption {
	return mcp.WithNumber("page",
		mcp.Description("Page number, 1-indexed (default 1)"),
	)
}

func withPageSize(defaultDesc string) mcp.ToolOption {
	return mcp.WithNumber("page_size",
		mcp.Description("Results per page (default "+defaultDesc+")"),
	)
}

// Serve creates an MCP server with WhatsApp search tools and serves over
// stdio. It blocks until stdin is closed or the context is cancelled.
func Serve(ctx context.Context, eng *engine.Engine) error {
	s := server.NewMCPServer(
		"wasearch",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	h := &handlers{engine: eng}

	s.AddTool(searchMessagesTool(), h.searchMessages)
	s.AddTool(searchInContactTool(), h.searchInContact)
	s.AddTool(viewConversationTool(), h.viewConversation)
	s.AddTool(resolveContactTool(), h.resolveContact)
	s.AddTool(getStatsTool(), h.getStats)
	s.AddTool(clearCacheTool(), h.clearCache)

	stdio := server.NewStdioServer(s)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func searchMessagesTool() mcp.Tool {
	return mcp.NewTool(ToolSearchMessages,
		mcp.WithDescription("Fuzzy-search WhatsApp messages across all conversations. Tolerates single-character typos and word-order differences."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to search for (e.g. 'pizza tonight')"),
		),
		withThreshold(),
		withSort(),
		withPage(),
		withPageSize("20"),
	)
}

func searchInContactTool() mcp.Tool {
	return mcp.NewTool(ToolSearchInContact,
		mcp.WithDescription("Fuzzy-search messages within one contact's conversation. The contact name is itself resolved fuzzily."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("contact",
			mcp.Required(),
			mcp.Description("Contact name to resolve (e.g. 'basit')"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to search for within the conversation"),
		),
		withThreshold(),
		withSort(),
		withPage(),
		withPageSize("20"),
	)
}

func viewConversationTool() mcp.Tool {
	return mcp.NewTool(ToolViewConversation,
		mcp.WithDescription("View a contact's conversation page by page, most recent page first, messages in chronological order within each page."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("contact",
			mcp.Required(),
			mcp.Description("Contact name to resolve"),
		),
		withPage(),
		withPageSize("20"),
	)
}

func resolveContactTool() mcp.Tool {
	return mcp.NewTool(ToolResolveContact,
		mcp.WithDescription("Resolve a free-text contact name to the best-matching known contact, with scored alternates."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Contact name to resolve"),
		),
	)
}

func getStatsTool() mcp.Tool {
	return mcp.NewTool(ToolGetStats,
		mcp.WithDescription("Get database overview: message, text-message, conversation, and named-conversation counts."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func clearCacheTool() mcp.Tool {
	return mcp.NewTool(ToolClearCache,
		mcp.WithDescription("Clear cached search results, forcing the next search to recompute against the database."),
	)
}
