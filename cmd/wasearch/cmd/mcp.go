package cmd

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/mmahmad/whatsapp-cli-macos/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run MCP server for Claude Desktop integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

This lets Claude Desktop (or any MCP client) search your WhatsApp
messages using tools like search_messages, search_in_contact,
view_conversation, resolve_contact, get_stats, and clear_cache.

Add to Claude Desktop config:
  {
    "mcpServers": {
      "wasearch": {
        "command": "wasearch",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closeStore, err := openEngine()
		if err != nil {
			return err
		}
		defer closeStore()

		return mcpserver.Serve(cmd.Context(), eng)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
