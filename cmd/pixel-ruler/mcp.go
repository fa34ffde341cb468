package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/pixel-ruler/internal/capture"
	"github.com/ironsheep/pixel-ruler/internal/logger"
	"github.com/ironsheep/pixel-ruler/internal/server"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ruler tools over MCP on stdin/stdout",
		Long: `Runs an MCP server on stdin/stdout. Logs go to stderr.
Configure it in your MCP client as a stdio server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.WithField("version", Version).Debug("Starting MCP server")

			srv := server.New(
				server.WithCapturer(capture.New(cfg)),
				server.WithDefaults(server.Defaults{
					Threshold: cfg.Threshold,
					Mode:      cfg.Mode,
					Metric:    cfg.Metric,
				}),
				server.WithVersion(Version),
			)
			return srv.Run(ctx)
		},
	}
}
