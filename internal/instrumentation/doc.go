// Package instrumentation provides OpenTelemetry instrumentation for the
// debrid-mcp server.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for HTTP requests, OAuth operations, and Real-Debrid API calls
//   - Distributed tracing for request flows and API calls
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// The package exposes the following metric categories:
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - active_sessions: Gauge of active authenticated sessions
//
// Real-Debrid API Metrics:
//   - debrid_api_operations_total: Counter of API operations by operation and status
//   - debrid_api_operation_duration_seconds: Histogram of API operation durations
//
// OAuth Authentication Metrics:
//   - oauth_device_flow_total: Counter of device flow requests by stage and result
//   - oauth_token_refresh_total: Counter of token refresh attempts by result
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Audit logging
//
// AuditLogger writes structured records for tool invocations and
// authentication lifecycle events (device flow started, session created,
// token refreshed, reauthentication required). Session ids are hashed by
// default; raw ids are logged only when explicitly enabled.
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: debrid-mcp)
//   - AUDIT_LOGGING_ENABLED: Enable/disable audit logging (default: true)
//   - AUDIT_LOGGING_INCLUDE_SESSION_IDS: Log raw session ids (default: false)
//
// # Example Usage
//
//	// Initialize instrumentation
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:    "debrid-mcp",
//		ServiceVersion: "0.1.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	// Get metrics recorder
//	recorder := provider.Metrics()
//
//	// Record an HTTP request
//	recorder.RecordHTTPRequest(ctx, "POST", "/mcp", 200, time.Since(start))
//
//	// Record a Real-Debrid API operation
//	recorder.RecordAPIOperation(ctx, "unrestrict_link", "success", time.Since(start))
//
//	// Record an MCP tool invocation
//	recorder.RecordToolInvocation(ctx, "list_torrents", "success", time.Since(start))
package instrumentation
