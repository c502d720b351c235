package main

import (
	"fmt"

	"github.com/nvandessel/coevolve/internal/config"
	"github.com/nvandessel/coevolve/internal/logging"
	"github.com/nvandessel/coevolve/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve coevolve tools over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout.

Tools:
  coevolve_simulate  Run a simulation with optional parameter overrides
  coevolve_runs      List recorded runs or show one with its rounds
  coevolve_export    Export the final network of the latest run

Logs go to stderr so they never interleave with the protocol stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			level := "info"
			if cfg, err := config.Load(); err == nil && cfg.Logging.Level != "" {
				level = cfg.Logging.Level
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "coevolve",
				Version: version,
				Root:    root,
				Logger:  logging.NewLogger(level, cmd.ErrOrStderr()),
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			ctx, stop := withShutdownSignals(cmd.Context())
			defer stop()

			return server.Run(ctx)
		},
	}
}
