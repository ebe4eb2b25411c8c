package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/analyser/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "analyser",
	Short: "Client engagement advisor",
	Long: `analyser tracks client projects from onboarding to payment.

Commands:
  serve    MCP server over stdio, for AI assistants
  http     HTTP API, for web and mobile clients
  version  Show version information

Configuration is read from ~/.analyser/config.yaml (or --config) and
ANALYSER_* environment variables.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.analyser/config.yaml)")
}

// setup loads configuration and creates the logger. Logs go to stderr so
// the MCP stdio transport keeps stdout to itself.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}
