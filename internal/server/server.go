// Package server exposes the bridge commands as MCP tools.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/device-bridge/internal/bridge"
	"go.uber.org/zap"
)

// Handler runs one named command, as bridge.Bridge does.
type Handler interface {
	Handle(ctx context.Context, name string, args map[string]any) (any, error)
}

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
	Version   string
}

// Server wraps the MCP server around a command handler.
type Server struct {
	handler Handler
	mcp     *mcpserver.MCPServer
	logger  *zap.Logger
}

// New creates an MCP server with one tool per bridge command.
func New(h Handler, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if version == "" {
		version = "dev"
	}
	s := &Server{
		handler: h,
		logger:  logger.Named("mcp"),
	}
	s.mcp = mcpserver.NewMCPServer(
		"device-bridge",
		version,
		mcpserver.WithToolCapabilities(false),
	)
	for _, t := range s.tools() {
		s.mcp.AddTool(t.Tool, t.Handler)
	}
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcpserver.MCPServer { return s.mcp }

// Serve runs the configured transport until it fails or ctx is done.
func (s *Server) Serve(ctx context.Context, cfg Config) error {
	switch cfg.Transport {
	case "stdio", "":
		s.logger.Info("serving MCP over stdio")
		stdio := mcpserver.NewStdioServer(s.mcp)
		err := stdio.Listen(ctx, os.Stdin, os.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case "streamable-http":
		addr := fmt.Sprintf(":%d", cfg.Port)
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Warn("http shutdown", zap.Error(err))
			}
		}()
		s.logger.Info("serving MCP over streamable-http", zap.String("addr", addr))
		if err := httpServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

// tool pairs a tool definition with its handler.
type tool struct {
	Tool    mcp.Tool
	Handler mcpserver.ToolHandlerFunc
}

func (s *Server) tools() []tool {
	return []tool{
		{
			mcp.NewTool(bridge.CmdIsServiceActive,
				mcp.WithDescription("Report whether a device is attached and its state can be read"),
			),
			s.handleCommand(bridge.CmdIsServiceActive),
		},
		{
			mcp.NewTool(bridge.CmdCheckAccessibilityEnabled,
				mcp.WithDescription("Alias of isServiceActive"),
			),
			s.handleCommand(bridge.CmdCheckAccessibilityEnabled),
		},
		{
			mcp.NewTool(bridge.CmdCaptureState,
				mcp.WithDescription("Capture the actionable UI elements and a screenshot of the device. Returns {imagePath, uiTree}; element bounds are [x, y, width, height] in screen pixels."),
				mcp.WithBoolean("includeImage", mcp.Description("Also return the screenshot as PNG image content")),
			),
			s.handleCaptureState,
		},
		{
			mcp.NewTool(bridge.CmdPerformAction,
				mcp.WithDescription("Tap the screen at (x, y). Returns true once the platform reports the tap completed."),
				mcp.WithNumber("x", mcp.Required(), mcp.Description("Horizontal screen coordinate in pixels")),
				mcp.WithNumber("y", mcp.Required(), mcp.Description("Vertical screen coordinate in pixels")),
			),
			s.handleCommand(bridge.CmdPerformAction),
		},
		{
			mcp.NewTool(bridge.CmdStartForegroundService,
				mcp.WithDescription("Start the keep-alive service"),
			),
			s.handleCommand(bridge.CmdStartForegroundService),
		},
		{
			mcp.NewTool(bridge.CmdStopForegroundService,
				mcp.WithDescription("Stop the keep-alive service"),
			),
			s.handleCommand(bridge.CmdStopForegroundService),
		},
		{
			mcp.NewTool(bridge.CmdUpdateForegroundStatus,
				mcp.WithDescription("Replace the keep-alive status text"),
				mcp.WithString("status", mcp.Description("Status text; empty restores the default")),
			),
			s.handleCommand(bridge.CmdUpdateForegroundStatus),
		},
	}
}
