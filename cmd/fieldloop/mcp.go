package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tclarke/fieldloop/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run fieldloop as an MCP (Model Context Protocol) server",
		Long: `Start an MCP server that exposes fieldloop over stdio JSON-RPC:

  • fieldloop_resolve - resolve a raw field against the canonical schema
  • fieldloop_record  - record a human judgment on a suggestion
  • fieldloop_stats   - summarize the feedback history

Example client configuration:

  {
    "mcpServers": {
      "fieldloop": {
        "command": "fieldloop",
        "args": ["mcp-server"],
        "cwd": "${workspaceFolder}"
      }
    }
  }
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "fieldloop",
				Version: version,
				Root:    root,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			if err := server.Run(context.Background()); err != nil {
				return fmt.Errorf("MCP server error: %w", err)
			}
			return nil
		},
	}
}
