package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the debrid-mcp application
var rootCmd = &cobra.Command{
	Use:   "debrid-mcp",
	Short: "MCP server for the Real-Debrid API",
	Long: `debrid-mcp exposes the Real-Debrid API as Model Context Protocol (MCP)
tools for AI assistants.

Users authenticate through the Real-Debrid OAuth device code flow and
receive a session id that all other tools require. Tokens are kept in
memory only and refreshed automatically before they expire.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "debrid-mcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
