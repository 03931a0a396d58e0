// Package server provides the MCP server context, health checks, and the
// HTTP transports for the debrid-mcp application.
//
// # Key Components
//
// ServerContext holds the process-wide state: the in-memory session store,
// the Real-Debrid OAuth and REST clients, and the token refresher. Every MCP
// tool resolves its dependencies through it, and shutting it down drops all
// sessions.
//
// HTTPServer exposes the MCP server over SSE (/sse plus /message) or the
// streamable HTTP transport (/mcp), together with health endpoints and a
// root info endpoint.
//
// HealthChecker serves Kubernetes-style probes:
//   - /healthz: liveness
//   - /readyz: readiness, fails during shutdown
//   - /healthz/detailed: uptime and active session count
//
// MetricsServer serves Prometheus metrics on a dedicated port, isolated from
// application traffic.
package server
