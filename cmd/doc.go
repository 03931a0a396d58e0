// Package cmd implements the command-line interface for debrid-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server with stdio, SSE or streamable HTTP transport
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
