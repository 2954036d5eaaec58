package root

import (
	"context"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/claude/repbuddy/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var remote, apiKey string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		Long:  "Runs an MCP server on stdin/stdout. With --remote the data is read from a RepBuddy server's REST API (for example over Tailscale) instead of the local store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol; logs go to stderr.
			log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

			var ds mcp.DataSource
			if remote != "" {
				if apiKey == "" {
					apiKey = os.Getenv("REPBUDDY_API_KEY")
				}
				ds = mcp.NewHTTPClient(remote, apiKey)
			} else {
				store, _, cleanup, err := openStore(context.Background())
				if err != nil {
					return err
				}
				defer cleanup()
				ds = store
			}

			return mcpserver.ServeStdio(mcp.New(ds, Version, log))
		},
	}

	cmd.Flags().StringVar(&remote, "remote", "", "Base URL of a RepBuddy server, e.g. http://repbuddy")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for --remote (defaults to REPBUDDY_API_KEY)")
	return cmd
}
