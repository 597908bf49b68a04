// Package core holds the protocol-facing plumbing shared by every tool:
// the Tool contract and the request dispatcher.
package core

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// Tool pairs an MCP tool descriptor with the handler that executes it.
// Handlers report tool-level failures through the result envelope; a
// non-nil error is reserved for faults the dispatcher must translate.
type Tool interface {
	Handle() mcp.Tool
	Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}
