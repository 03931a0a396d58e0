package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/debrid-mcp/internal/logging"
)

// Audit event names covering the authentication lifecycle.
const (
	AuditDeviceFlowStarted = "device_flow_started"
	AuditSessionCreated    = "session_created"
	AuditTokenRefreshed    = "token_refreshed"
	AuditReauthRequired    = "reauthentication_required"
	AuditSessionsDropped   = "sessions_dropped"
)

// ToolInvocation captures one MCP tool call for audit logging.
type ToolInvocation struct {
	Tool      string
	SessionID string
	Operation string
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string
	TraceID   string
	SpanID    string
}

// NewToolInvocation creates a ToolInvocation with the start time set to now.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithSession sets the session id associated with the invocation.
func (ti *ToolInvocation) WithSession(sessionID string) *ToolInvocation {
	ti.SessionID = sessionID
	return ti
}

// WithOperation sets the upstream operation performed by the tool.
func (ti *ToolInvocation) WithOperation(operation string) *ToolInvocation {
	ti.Operation = operation
	return ti
}

// WithSpanContext extracts trace and span ids from the context.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		ti.TraceID = spanCtx.TraceID().String()
		ti.SpanID = spanCtx.SpanID().String()
	}
	return ti
}

// CompleteSuccess marks the invocation as successful and records its duration.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = true
	return ti
}

// CompleteWithError marks the invocation as failed and records its duration.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = false
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// AuditLogger writes structured audit records for tool invocations and
// authentication lifecycle events.
type AuditLogger struct {
	logger            *slog.Logger
	enabled           bool
	includeSessionIDs bool
}

// NewAuditLogger creates an audit logger with the given configuration.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:            logger.With(slog.String("log_type", "audit")),
		enabled:           config.Enabled,
		includeSessionIDs: config.IncludeSessionIDs,
	}
}

// sessionAttr renders a session id according to the privacy configuration.
// Hashed by default; raw only when explicitly enabled.
func (a *AuditLogger) sessionAttr(sessionID string) slog.Attr {
	if sessionID == "" {
		return slog.Group("")
	}
	if a.includeSessionIDs {
		return slog.String("session_id", sessionID)
	}
	return logging.SessionHash(sessionID)
}

// LogToolInvocation writes an audit record for a completed tool invocation.
func (a *AuditLogger) LogToolInvocation(ctx context.Context, ti *ToolInvocation) {
	if !a.enabled {
		return
	}

	attrs := []slog.Attr{
		slog.String("event", "tool_invocation"),
		logging.Tool(ti.Tool),
		a.sessionAttr(ti.SessionID),
		slog.Bool("success", ti.Success),
		logging.Duration(ti.Duration),
	}
	if ti.Operation != "" {
		attrs = append(attrs, logging.Operation(ti.Operation))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID), slog.String("span_id", ti.SpanID))
	}

	a.logger.LogAttrs(ctx, slog.LevelInfo, "tool invocation", attrs...)
}

// LogAuthEvent writes an audit record for an authentication lifecycle event.
// Event should be one of the Audit* constants.
func (a *AuditLogger) LogAuthEvent(ctx context.Context, event, sessionID string, success bool, detail string) {
	if !a.enabled {
		return
	}

	attrs := []slog.Attr{
		slog.String("event", event),
		a.sessionAttr(sessionID),
		slog.Bool("success", success),
	}
	if detail != "" {
		attrs = append(attrs, slog.String("detail", detail))
	}

	a.logger.LogAttrs(ctx, slog.LevelInfo, "auth event", attrs...)
}

// Enabled returns true if audit logging is active.
func (a *AuditLogger) Enabled() bool {
	return a.enabled
}
