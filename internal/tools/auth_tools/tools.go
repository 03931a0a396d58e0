package auth_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/debrid-mcp/internal/instrumentation"
	"github.com/teemow/debrid-mcp/internal/oauth"
	"github.com/teemow/debrid-mcp/internal/server"
)

// startResponse is the oauth_start tool result.
type startResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
	Message         string `json:"message"`
	Instructions    string `json:"instructions"`
}

// checkResponse is the oauth_check tool result.
type checkResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
	ExpiresIn int    `json:"expires_in,omitempty"`
}

// RegisterAuthTools registers the OAuth device flow tools with the MCP server.
func RegisterAuthTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	startTool := mcp.NewTool("oauth_start",
		mcp.WithDescription("Start OAuth device code flow - returns a code for the user to enter at real-debrid.com/device"),
	)

	s.AddTool(startTool, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleOAuthStart(ctx, sc)
	})

	checkTool := mcp.NewTool("oauth_check",
		mcp.WithDescription("Check if OAuth authorization is complete and get access token"),
		mcp.WithString("device_code",
			mcp.Required(),
			mcp.Description("Device code from oauth_start"),
		),
	)

	s.AddTool(checkTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})
		deviceCode, _ := args["device_code"].(string)
		return handleOAuthCheck(ctx, sc, deviceCode)
	})

	return nil
}

// handleOAuthStart requests a new device authorization from the upstream and
// returns the user code and verification URL.
func handleOAuthStart(ctx context.Context, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	ti := instrumentation.NewToolInvocation("oauth_start").WithSpanContext(ctx)

	auth, err := sc.OAuth().StartDeviceAuth(ctx)
	if err != nil {
		recordFlowStage(ctx, sc, instrumentation.FlowStageStart, instrumentation.ResultFailure)
		recordInvocation(ctx, sc, ti.CompleteWithError(err))
		return mcp.NewToolResultError(fmt.Sprintf("Failed to start device authorization: %v", err)), nil
	}

	recordFlowStage(ctx, sc, instrumentation.FlowStageStart, instrumentation.ResultSuccess)
	if a := sc.AuditLogger(); a != nil {
		a.LogAuthEvent(ctx, instrumentation.AuditDeviceFlowStarted, "", true, "")
	}
	recordInvocation(ctx, sc, ti.CompleteSuccess())

	result, _ := json.MarshalIndent(startResponse{
		DeviceCode:      auth.DeviceCode,
		UserCode:        auth.UserCode,
		VerificationURL: auth.VerificationURL,
		ExpiresIn:       auth.ExpiresIn,
		Interval:        auth.Interval,
		Message:         fmt.Sprintf("Go to %s and enter code: %s", auth.VerificationURL, auth.UserCode),
		Instructions:    "Then use oauth_check with the device_code to complete authentication",
	}, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

// handleOAuthCheck polls the upstream for the device authorization outcome.
// While the user has not approved yet the result is a pending status, not an
// error; once approved, the credentials and tokens are exchanged and a new
// session created.
func handleOAuthCheck(ctx context.Context, sc *server.ServerContext, deviceCode string) (*mcp.CallToolResult, error) {
	ti := instrumentation.NewToolInvocation("oauth_check").WithSpanContext(ctx)

	if deviceCode == "" {
		err := errors.New("device_code is required")
		recordInvocation(ctx, sc, ti.CompleteWithError(err))
		return mcp.NewToolResultError(err.Error()), nil
	}

	creds, err := sc.OAuth().PollCredentials(ctx, deviceCode)
	if err != nil {
		if errors.Is(err, oauth.ErrAuthorizationPending) {
			recordFlowStage(ctx, sc, instrumentation.FlowStagePoll, instrumentation.ResultPending)
			recordInvocation(ctx, sc, ti.CompleteSuccess())
			return pendingResult("User has not authorized yet. Please complete authorization at real-debrid.com/device"), nil
		}
		recordFlowStage(ctx, sc, instrumentation.FlowStagePoll, instrumentation.ResultFailure)
		recordInvocation(ctx, sc, ti.CompleteWithError(err))
		return mcp.NewToolResultError(fmt.Sprintf("Failed to check authorization: %v", err)), nil
	}
	recordFlowStage(ctx, sc, instrumentation.FlowStagePoll, instrumentation.ResultSuccess)

	tokens, err := sc.OAuth().ExchangeCode(ctx, creds.ClientID, creds.ClientSecret, deviceCode)
	if err != nil {
		if errors.Is(err, oauth.ErrAuthorizationPending) {
			recordFlowStage(ctx, sc, instrumentation.FlowStageExchange, instrumentation.ResultPending)
			recordInvocation(ctx, sc, ti.CompleteSuccess())
			return pendingResult("Authorization in progress. Please try again in a few seconds."), nil
		}
		recordFlowStage(ctx, sc, instrumentation.FlowStageExchange, instrumentation.ResultFailure)
		recordInvocation(ctx, sc, ti.CompleteWithError(err))
		return mcp.NewToolResultError(fmt.Sprintf("Failed to obtain tokens: %v", err)), nil
	}
	recordFlowStage(ctx, sc, instrumentation.FlowStageExchange, instrumentation.ResultSuccess)

	sessionID := sc.Store().Create(*creds, *tokens)

	if m := sc.Metrics(); m != nil {
		m.IncrementActiveSessions(ctx)
	}
	if a := sc.AuditLogger(); a != nil {
		a.LogAuthEvent(ctx, instrumentation.AuditSessionCreated, sessionID, true, "")
	}
	recordInvocation(ctx, sc, ti.WithSession(sessionID).CompleteSuccess())

	result, _ := json.MarshalIndent(checkResponse{
		Status:    "authorized",
		SessionID: sessionID,
		Message:   "Successfully authorized! Use this session_id for all other tools.",
		ExpiresIn: tokens.ExpiresIn,
	}, "", "  ")
	return mcp.NewToolResultText(string(result)), nil
}

func pendingResult(message string) *mcp.CallToolResult {
	result, _ := json.MarshalIndent(checkResponse{
		Status:  "pending",
		Message: message,
	}, "", "  ")
	return mcp.NewToolResultText(string(result))
}

// recordFlowStage records device flow metrics if instrumentation is enabled.
func recordFlowStage(ctx context.Context, sc *server.ServerContext, stage, result string) {
	if m := sc.Metrics(); m != nil {
		m.RecordDeviceFlow(ctx, stage, result)
	}
}

// recordInvocation records tool metrics and audit logging for a finished call.
func recordInvocation(ctx context.Context, sc *server.ServerContext, ti *instrumentation.ToolInvocation) {
	if m := sc.Metrics(); m != nil {
		status := instrumentation.StatusSuccess
		if !ti.Success {
			status = instrumentation.StatusError
		}
		m.RecordToolInvocation(ctx, ti.Tool, status, ti.Duration)
	}
	if a := sc.AuditLogger(); a != nil {
		a.LogToolInvocation(ctx, ti)
	}
}
