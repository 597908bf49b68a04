package core

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// Dispatcher routes call-tool requests to registered tools by name and
// enforces a uniform error envelope: handler errors and panics become
// isError results instead of protocol failures.
type Dispatcher struct {
	tools map[string]Tool
	order []string
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool under its descriptor name. Registration happens
// once at startup, before any request is served.
func (d *Dispatcher) Register(tool Tool) {
	name := tool.Handle().Name
	if _, exists := d.tools[name]; !exists {
		d.order = append(d.order, name)
	}
	d.tools[name] = tool
}

// Tools returns the advertised tool descriptors in registration order.
func (d *Dispatcher) Tools() []mcp.Tool {
	handles := make([]mcp.Tool, 0, len(d.order))
	for _, name := range d.order {
		handles = append(handles, d.tools[name].Handle())
	}
	return handles
}

// Handler is the single entry point bound to every registered tool name
// on the MCP server. It re-routes by the requested name so that unknown
// names and missing arguments get a well-formed error envelope.
func (d *Dispatcher) Handler(ctx context.Context, request mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
	requestID := uuid.NewString()
	started := time.Now()

	log.Info("tool call received", "request_id", requestID, "tool", request.Params.Name)

	defer func() {
		if r := recover(); r != nil {
			log.Error("tool call panicked", "request_id", requestID, "tool", request.Params.Name, "panic", r)
			result = mcp.NewToolResultError(fmt.Sprintf("%v", r))
			err = nil
		}
		log.Info("tool call completed",
			"request_id", requestID,
			"tool", request.Params.Name,
			"is_error", result != nil && result.IsError,
			"elapsed", time.Since(started),
		)
	}()

	if request.Params.Arguments == nil {
		return mcp.NewToolResultError("No arguments provided"), nil
	}

	tool, ok := d.tools[request.Params.Name]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Unknown tool: %s", request.Params.Name)), nil
	}

	result, err = tool.Handler(ctx, request)
	if err != nil {
		log.Error("tool handler failed", "request_id", requestID, "tool", request.Params.Name, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	return result, nil
}
