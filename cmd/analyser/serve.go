package main

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	appserver "github.com/HendryAvila/analyser/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	Long: `Start the MCP server on stdin/stdout. Every tool acts as the configured
user (ANALYSER_USER, default "local").

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "analyser": {
        "command": "analyser",
        "args": ["serve"]
      }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		s, cleanup, err := appserver.New(cfg, logger)
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}
		defer cleanup()

		logger.Info("mcp server starting", "user", cfg.User, "data_dir", cfg.DataDir, "version", appserver.Version)
		return server.ServeStdio(s)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
