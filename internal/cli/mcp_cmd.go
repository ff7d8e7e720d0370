package cli

import (
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/claude/liftlog/internal/mcp"
)

// newMCPCmd serves the MCP tools over stdio, forwarding every call to the
// server through the REST API.
func newMCPCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP server on stdio backed by the remote LiftLog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Log.Info("MCP stdio server starting", "version", app.Version)
			return mcpserver.ServeStdio(mcp.New(app.Backend, app.Version, app.Log))
		},
	}
}
