package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"
	"github.com/voicelab/mcp-server-voice-bridge/core"
	"github.com/voicelab/mcp-server-voice-bridge/pkg/config"
	"github.com/voicelab/mcp-server-voice-bridge/pkg/services"
	"github.com/voicelab/mcp-server-voice-bridge/pkg/telephony"
	"github.com/voicelab/mcp-server-voice-bridge/pkg/tools/call"
	"github.com/voicelab/mcp-server-voice-bridge/pkg/tunnel"
	"github.com/voicelab/mcp-server-voice-bridge/pkg/webhook"
)

var (
	mcpServer  *server.MCPServer
	dispatcher *core.Dispatcher
)

func init() {
	mcpServer = server.NewMCPServer(
		"Voice Bridge MCP Server",
		"1.0.0",
		server.WithResourceCapabilities(false, false),
		server.WithLogging(),
	)

	dispatcher = core.NewDispatcher()
}

func main() {
	log.Info("starting voice bridge MCP server")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Warn("configuration incomplete", "error", err)
	}

	// Collaborator handles are built lazily on the first call request.
	// They live until process exit, so the tunnel is scoped to a
	// process-lifetime context rather than any request's.
	container := services.NewContainer(
		context.Background(),
		func() (services.TelephonyClient, error) {
			return telephony.NewClient(
				cfg.Twilio.AccountSID,
				cfg.Twilio.AuthToken,
				cfg.Twilio.Number,
				cfg.Twilio.RecordCalls,
			)
		},
		tunnel.NewProvisioner(cfg.Ngrok.AuthToken),
	)

	registerTool(call.New(container, cfg.Server.Port))

	for _, handle := range dispatcher.Tools() {
		log.Info("tool registered", "name", handle.Name)
	}

	// The provider reaches this through the tunnel once it is provisioned.
	go func() {
		if err := webhook.NewServer().Start(cfg.Server.Port); err != nil {
			log.Error("call webhook server stopped", "error", err)
		}
	}()

	switch cfg.Server.Transport {
	case config.TransportSSE:
		serveSSE(cfg)
	default:
		if err := server.ServeStdio(mcpServer); err != nil {
			log.Fatal("stdio server error", "error", err)
		}
	}
}

// registerTool binds a tool's descriptor to the shared dispatcher on the
// MCP server.
func registerTool(tool core.Tool) {
	dispatcher.Register(tool)
	mcpServer.AddTool(tool.Handle(), dispatcher.Handler)
}

// serveSSE runs the networked transport: one SSE stream per client plus
// a companion message-post path, all bound to the shared dispatcher.
// The listener port is its own configuration value so it never collides
// with the call webhook's port.
func serveSSE(cfg *config.Config) {
	addr := fmt.Sprintf(":%d", cfg.Server.SSEPort)
	baseURL := fmt.Sprintf("http://localhost%s", addr)

	sseServer := server.NewSSEServer(mcpServer, baseURL)
	if err := sseServer.Start(addr); err != nil {
		if cfg.Server.SSEBindFatal {
			log.Fatal("SSE server error", "error", err)
		}
		log.Error("SSE server error", "error", err)
		// Keep the webhook running; the provider may still need it for
		// calls placed before the listener failed.
		select {}
	}
}
