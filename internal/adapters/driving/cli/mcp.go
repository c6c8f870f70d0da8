package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/medterm/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port (or server.port in config, or MCP_PORT) to serve HTTP instead.
HTTP mode exposes:
  /mcp      streamable MCP endpoint
  /metrics  Prometheus metrics
  /healthz  liveness probe

Examples:
  # Stdio mode (default, for Claude Desktop)
  medterm mcp serve

  # HTTP mode
  medterm mcp serve --port 8010

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "medterm": {
        "command": "/path/to/medterm",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use configured port, or stdio)")
	mcpServeCmd.Flags().String("host", "", "HTTP bind address (default from settings)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	host, err := cmd.Flags().GetString("host")
	if err != nil {
		return fmt.Errorf("getting host flag: %w", err)
	}

	listen := serverSettings
	if port > 0 {
		listen.Port = port
	}
	if host != "" {
		listen.Host = host
	}

	ports := &mcp.Ports{
		Lookup:   lookupService,
		Keywords: keywordService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if listen.Port > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s/mcp\n", listen.Addr())
		return server.RunHTTP(cmd.Context(), listen.Addr(), metricsHandler)
	}

	return server.Run(cmd.Context())
}
