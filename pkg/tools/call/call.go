// Package call implements the trigger-call tool: validate the request,
// make sure the collaborator handles exist, and place the call.
package call

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/voicelab/mcp-server-voice-bridge/core"
	"github.com/voicelab/mcp-server-voice-bridge/pkg/services"
	"github.com/voicelab/mcp-server-voice-bridge/pkg/tools/utils"
)

// Result is the JSON envelope returned for every invocation, success or
// failure, inside the tool result's text content.
type Result struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	CallSid     string `json:"callSid,omitempty"`
	ToNumber    string `json:"toNumber,omitempty"`
	CallContext string `json:"callContext,omitempty"`
}

// Tool triggers an outbound phone call with contextual instructions.
type Tool struct {
	handle      mcp.Tool
	services    *services.Container
	webhookPort int
}

// New creates the trigger-call tool. webhookPort is the local port the
// tunnel exposes for the telephony provider's callbacks.
func New(svcs *services.Container, webhookPort int) core.Tool {
	t := &Tool{
		services:    svcs,
		webhookPort: webhookPort,
	}

	t.handle = mcp.NewTool(
		"trigger-call",
		mcp.WithDescription("Triggers an outbound phone call to the given number. The call is driven by the provided context, which describes what the call should accomplish."),
		mcp.WithString(
			"toNumber",
			mcp.Required(),
			mcp.Description("The phone number to call, in E.164 format (e.g. +15551234567)."),
		),
		mcp.WithString(
			"callContext",
			mcp.Description("Optional. Free-text context and instructions for the call."),
		),
	)
	return t
}

// Handle returns the tool's definition.
func (t *Tool) Handle() mcp.Tool {
	return t.handle
}

// Handler executes the tool.
func (t *Tool) Handler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	started := time.Now()

	toNumber, err := utils.GetOptionalStringParam(request, "toNumber")
	if err != nil {
		return utils.HandleParameterError(err), nil
	}
	callContext, err := utils.GetOptionalStringParam(request, "callContext")
	if err != nil {
		return utils.HandleParameterError(err), nil
	}

	log.Info("call request received", "to", toNumber)
	defer func() {
		log.Info("call request handled", "to", toNumber, "elapsed", time.Since(started))
	}()

	if toNumber == "" {
		return errorResult("Phone number is required"), nil
	}
	// Coarse E.164 shape check: leading + and at least ten characters.
	if !strings.HasPrefix(toNumber, "+") || len(toNumber) < 10 {
		return errorResult("Phone number must be in E.164 format"), nil
	}

	client, err := t.services.TelephonyClient()
	if err != nil {
		return errorResult("Failed to trigger call: " + err.Error()), nil
	}

	callbackURL, err := t.services.CallbackURL(t.webhookPort)
	if err != nil {
		return errorResult("Failed to trigger call: " + err.Error()), nil
	}

	callSid, err := client.MakeCall(ctx, callbackURL, toNumber, callContext)
	if err != nil {
		return errorResult("Failed to trigger call: " + err.Error()), nil
	}

	return successResult(Result{
		Status:      "success",
		Message:     "Call triggered successfully",
		CallSid:     callSid,
		ToNumber:    toNumber,
		CallContext: callContext,
	}), nil
}

func successResult(r Result) *mcp.CallToolResult {
	encoded, err := json.Marshal(r)
	if err != nil {
		return mcp.NewToolResultError("internal_error: failed to encode call result")
	}
	return mcp.NewToolResultText(string(encoded))
}

func errorResult(message string) *mcp.CallToolResult {
	encoded, err := json.Marshal(Result{Status: "error", Message: message})
	if err != nil {
		return mcp.NewToolResultError(message)
	}
	return mcp.NewToolResultError(string(encoded))
}
