// Package mcphost exposes the command registry as MCP tools over stdio.
package mcphost

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/donaldgifford/marketplace/internal/command"
)

// Host serves one MCP tool per registered command.
type Host struct {
	dispatcher *command.Dispatcher
	server     *server.MCPServer
	logger     *slog.Logger
}

// New builds the MCP server and registers every command as a tool.
func New(d *command.Dispatcher, name, version string, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	h := &Host{
		dispatcher: d,
		server: server.NewMCPServer(name, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		logger: logger,
	}

	for _, desc := range d.Registry().Commands() {
		h.server.AddTool(Tool(desc), h.handler(desc.Name))
	}
	return h
}

// Server returns the underlying MCP server.
func (h *Host) Server() *server.MCPServer {
	return h.server
}

// ServeStdio blocks serving MCP on stdin/stdout until the input closes or
// the process is signalled.
func (h *Host) ServeStdio() error {
	h.logger.Info("serving MCP over stdio", "tools", len(h.dispatcher.Registry().Commands()))
	if err := server.ServeStdio(h.server); err != nil {
		return fmt.Errorf("serving MCP stdio: %w", err)
	}
	return nil
}

// Tool converts a descriptor into an MCP tool with a JSON schema built from
// its parameters.
func Tool(desc *command.Descriptor) mcp.Tool {
	props := make(map[string]any, len(desc.Params))
	var required []string

	for _, p := range desc.Params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if p.Type == command.TypeObject {
			prop["additionalProperties"] = map[string]any{"type": "string"}
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop

		if p.Required {
			required = append(required, p.Name)
		}
	}

	return mcp.Tool{
		Name:        desc.Name,
		Description: desc.Description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}
}

func (h *Host) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		env := h.dispatcher.Dispatch(ctx, name, req.GetArguments())

		body, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding envelope: %w", err)
		}

		result := mcp.NewToolResultText(string(body))
		result.IsError = !env.OK()
		return result, nil
	}
}
