package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragcore/internal/adapters/driving/mcp"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the index to MCP clients",
	Long: `Serves ragcore to MCP clients such as desktop assistants and editors.

Tools: query, ingest, delete, stats.
Resources: ragcore://stats, ragcore://documents, ragcore://documents/{id}.

Without flags the server speaks JSON-RPC on stdin/stdout, which is what most
clients expect when they launch ragcore themselves:

  {"command": "/path/to/ragcore", "args": ["mcp", "serve"]}

With --http it listens for the streamable HTTP transport instead, which is
handy for the MCP Inspector or for clients on another machine:

  ragcore mcp serve --http 127.0.0.1:8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "listen for streamable HTTP on this address instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	svc, err := requireRAG(cmd)
	if err != nil {
		return err
	}
	server, err := mcp.NewServer(&mcp.Ports{RAG: svc})
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if mcpHTTPAddr == "" {
		return server.Run(ctx)
	}
	cmd.PrintErrf("MCP server listening on http://%s\n", mcpHTTPAddr)
	return server.RunHTTP(ctx, mcpHTTPAddr)
}
