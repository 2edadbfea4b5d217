package cmd

import (
	"fmt"

	"github.com/mj1618/device-bridge/internal/observability"
	"github.com/mj1618/device-bridge/internal/server"
	"github.com/mj1618/device-bridge/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing the bridge commands",
	Long: `Start a Model Context Protocol (MCP) server that exposes every bridge
command as a tool. The device backend runs for the lifetime of the server;
commands issued while no device is attached fail with NO_SERVICE.

Supported transports:
  stdio             Standard I/O (default)
  streamable-http   Streamable HTTP transport (for remote agents)

Examples:
  device-bridge serve
  device-bridge serve --serial emulator-5554
  device-bridge serve --transport streamable-http --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "stdio", "Transport: stdio, streamable-http")
	serveCmd.Flags().Int("port", 8080, "HTTP port for streamable-http transport")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := observability.GetLogger()
	cfg := appConfig

	s, err := startSession(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to start backend: %w", err)
	}
	defer s.Close()

	srv := server.New(s.bridge, version.Version, logger)
	logger.Info("device bridge serving",
		zap.String("backend", cfg.Backend.Name),
		zap.String("transport", cfg.Server.Transport))
	return srv.Serve(cmd.Context(), server.Config{
		Transport: cfg.Server.Transport,
		Port:      cfg.Server.Port,
		Version:   version.Version,
	})
}
