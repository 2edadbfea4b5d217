package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/mj1618/device-bridge/internal/bridge"
	"github.com/mj1618/device-bridge/internal/model"
	"github.com/mj1618/device-bridge/internal/output"
	"go.uber.org/zap"
)

// errorResult renders err as {"code": KIND, "message": ...} text.
func errorResult(err error) *mcp.CallToolResult {
	res := output.ErrorResult{Code: string(bridge.KindOf(err)), Message: err.Error()}
	var be *bridge.Error
	if errors.As(err, &be) {
		res.Message = be.Message
	}
	text, jerr := output.JSON(res)
	if jerr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", res.Code, res.Message))
	}
	return mcp.NewToolResultError(text)
}

// handleCommand forwards the tool arguments to the named bridge command
// and returns its result as JSON text.
func (s *Server) handleCommand(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		v, err := s.handler.Handle(ctx, name, request.GetArguments())
		if err != nil {
			s.logger.Debug("tool failed", zap.String("tool", name), zap.Error(err))
			return errorResult(err), nil
		}
		text, err := output.JSON(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func (s *Server) handleCaptureState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	includeImage := BoolParam(params, "includeImage", false)

	v, err := s.handler.Handle(ctx, bridge.CmdCaptureState, params)
	if err != nil {
		s.logger.Debug("tool failed", zap.String("tool", bridge.CmdCaptureState), zap.Error(err))
		return errorResult(err), nil
	}
	text, err := output.JSON(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result := mcp.NewToolResultText(text)

	snap, ok := v.(model.UiSnapshot)
	if !includeImage || !ok {
		return result, nil
	}
	data, err := os.ReadFile(snap.ImagePath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading capture: %v", err)), nil
	}
	result.Content = append(result.Content, mcp.ImageContent{
		Type:     "image",
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: "image/png",
	})
	return result, nil
}
