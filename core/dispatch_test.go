package core

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	. "github.com/smartystreets/goconvey/convey"
)

// stubTool is a minimal Tool implementation for dispatcher tests.
type stubTool struct {
	handle  mcp.Tool
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

func (t *stubTool) Handle() mcp.Tool {
	return t.handle
}

func (t *stubTool) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.handler(ctx, request)
}

func newStubTool(name string, handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)) *stubTool {
	return &stubTool{
		handle:  mcp.NewTool(name, mcp.WithDescription("stub")),
		handler: handler,
	}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args
	return request
}

func resultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	switch content := result.Content[0].(type) {
	case mcp.TextContent:
		return content.Text
	case string:
		return content
	}
	return ""
}

func TestDispatcher(t *testing.T) {
	Convey("Given a dispatcher with one registered tool", t, func() {
		dispatcher := NewDispatcher()
		invoked := false
		dispatcher.Register(newStubTool("echo", func(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			invoked = true
			message, _ := request.Params.Arguments["message"].(string)
			return mcp.NewToolResultText(message), nil
		}))

		Convey("Tools lists the registered descriptors in order", func() {
			handles := dispatcher.Tools()
			So(len(handles), ShouldEqual, 1)
			So(handles[0].Name, ShouldEqual, "echo")
		})

		Convey("A call for a registered tool reaches its handler", func() {
			result, err := dispatcher.Handler(context.Background(), callRequest("echo", map[string]any{"message": "hi"}))
			So(err, ShouldBeNil)
			So(invoked, ShouldBeTrue)
			So(result.IsError, ShouldBeFalse)
			So(resultText(result), ShouldEqual, "hi")
		})

		Convey("An unknown tool name yields an error envelope, not a failure", func() {
			result, err := dispatcher.Handler(context.Background(), callRequest("unsupported-tool", map[string]any{}))
			So(err, ShouldBeNil)
			So(result.IsError, ShouldBeTrue)
			So(resultText(result), ShouldEqual, "Unknown tool: unsupported-tool")
			So(invoked, ShouldBeFalse)
		})

		Convey("Missing arguments yield a generic error envelope", func() {
			result, err := dispatcher.Handler(context.Background(), callRequest("echo", nil))
			So(err, ShouldBeNil)
			So(result.IsError, ShouldBeTrue)
			So(resultText(result), ShouldEqual, "No arguments provided")
			So(invoked, ShouldBeFalse)
		})
	})

	Convey("Given a tool whose handler fails", t, func() {
		dispatcher := NewDispatcher()
		dispatcher.Register(newStubTool("broken", func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, errors.New("collaborator unreachable")
		}))

		Convey("The error is converted into an error envelope", func() {
			result, err := dispatcher.Handler(context.Background(), callRequest("broken", map[string]any{}))
			So(err, ShouldBeNil)
			So(result.IsError, ShouldBeTrue)
			So(resultText(result), ShouldEqual, "collaborator unreachable")
		})
	})

	Convey("Given a tool whose handler panics", t, func() {
		dispatcher := NewDispatcher()
		dispatcher.Register(newStubTool("panicky", func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			panic("unexpected fault")
		}))

		Convey("The panic is recovered into an error envelope", func() {
			result, err := dispatcher.Handler(context.Background(), callRequest("panicky", map[string]any{}))
			So(err, ShouldBeNil)
			So(result.IsError, ShouldBeTrue)
			So(resultText(result), ShouldEqual, "unexpected fault")
		})
	})
}
