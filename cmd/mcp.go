package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/docchat/docchat/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing
corpus question-answering and search tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer p.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		// Stdout carries MCP protocol messages; status goes to stderr.
		fmt.Fprintf(os.Stderr, "docchat MCP server started on stdio (%d chunk(s) indexed)\n", p.store.Count())

		srv := mcpserver.NewServer(p.newOrchestrator(), p.store, p.runs)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
