package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/debrid-mcp/internal/instrumentation"
)

// Supported transport types. Stdio has no HTTP server; it is listed here so
// transport selection has a single home.
const (
	ServerTypeStdio          = "stdio"
	ServerTypeSSE            = "sse"
	ServerTypeStreamableHTTP = "streamable-http"
)

// HTTPServerConfig holds configuration for the MCP HTTP server.
type HTTPServerConfig struct {
	// Name is the server name reported on the info endpoint.
	Name string

	// Version is the server version reported on the info endpoint.
	Version string

	// ServerType selects the MCP transport: "sse" or "streamable-http".
	ServerType string
}

// HTTPServer exposes an MCP server over HTTP, either via SSE or the
// streamable HTTP transport, together with health and info endpoints.
type HTTPServer struct {
	mcpServer     *mcpserver.MCPServer
	serverContext *ServerContext
	httpServer    *http.Server
	healthChecker *HealthChecker
	metrics       *instrumentation.Metrics
	config        HTTPServerConfig
}

// NewHTTPServer creates a new HTTP server for the given MCP server.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, sc *ServerContext, config HTTPServerConfig) (*HTTPServer, error) {
	switch config.ServerType {
	case ServerTypeSSE, ServerTypeStreamableHTTP:
	default:
		return nil, fmt.Errorf("unsupported server type: %s", config.ServerType)
	}

	return &HTTPServer{
		mcpServer:     mcpServer,
		serverContext: sc,
		config:        config,
	}, nil
}

// SetHealthChecker attaches a health checker whose endpoints are registered
// when the server starts.
func (s *HTTPServer) SetHealthChecker(h *HealthChecker) {
	s.healthChecker = h
}

// SetMetrics attaches a metrics recorder for HTTP request instrumentation.
func (s *HTTPServer) SetMetrics(m *instrumentation.Metrics) {
	s.metrics = m
}

// InfoResponse is the JSON body served on the root endpoint.
type InfoResponse struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	Transport      string `json:"transport"`
	ActiveSessions int    `json:"active_sessions"`
}

// infoHandler serves basic server information on the root path.
func (s *HTTPServer) infoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The root pattern catches everything; only the exact path is ours
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		response := InfoResponse{
			Name:      s.config.Name,
			Version:   s.config.Version,
			Transport: s.config.ServerType,
		}
		if s.serverContext != nil {
			response.ActiveSessions = s.serverContext.ActiveSessions()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	})
}

// statusRecorder captures the response status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrumentHandler wraps a handler with HTTP request metrics recording.
// The static path label keeps metric cardinality bounded.
func (s *HTTPServer) instrumentHandler(path string, next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, path, recorder.status, time.Since(start))
	})
}

// Start starts the HTTP server in a blocking manner.
func (s *HTTPServer) Start(addr string) error {
	mux := http.NewServeMux()

	// Register MCP endpoints based on server type
	switch s.config.ServerType {
	case ServerTypeSSE:
		sseServer := mcpserver.NewSSEServer(s.mcpServer,
			mcpserver.WithSSEEndpoint("/sse"),
			mcpserver.WithMessageEndpoint("/message"),
		)
		mux.Handle("/sse", s.instrumentHandler("/sse", sseServer))
		mux.Handle("/message", s.instrumentHandler("/message", sseServer))

	case ServerTypeStreamableHTTP:
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcpServer,
			mcpserver.WithEndpointPath("/mcp"),
		)
		mux.Handle("/mcp", s.instrumentHandler("/mcp", httpServer))

	default:
		return fmt.Errorf("unsupported server type: %s", s.config.ServerType)
	}

	if s.healthChecker != nil {
		s.healthChecker.RegisterHealthEndpoints(mux)
	}
	mux.Handle("/", s.instrumentHandler("/", s.infoHandler()))

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Handler returns the underlying HTTP handler. Nil until Start is called.
func (s *HTTPServer) Handler() http.Handler {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Handler
}
