package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/guidebook/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing tools to search the book, list its chapters and read its pages.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		exitOnError(err)

		fetcher, root, err := openBook(cfg)
		exitOnError(err)

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "guidebook MCP server started on stdio (book=%s)\n", cfg.Book)

		exitOnError(mcpserver.NewServer(fetcher, root).Serve())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
