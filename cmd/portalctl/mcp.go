package main

import (
	"fmt"

	"github.com/ladupla/portalsync/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP tool server",
	Long: `Run the MCP (Model Context Protocol) tool server over stdio, exposing
portal data to MCP-compatible analyst agents.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	portal, err := openPortal()
	if err != nil {
		return fmt.Errorf("initialize portal: %w", err)
	}
	defer portal.Close()

	return mcp.NewServer(portal).Run()
}
