package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

func newTestHTTPServer(t *testing.T, serverType string) *HTTPServer {
	t.Helper()

	sc, err := NewServerContext(context.Background(), WithStaticToken("TOKEN"))
	if err != nil {
		t.Fatalf("NewServerContext() unexpected error: %v", err)
	}

	mcpSrv := mcpserver.NewMCPServer("debrid-mcp", "test",
		mcpserver.WithToolCapabilities(true),
	)

	srv, err := NewHTTPServer(mcpSrv, sc, HTTPServerConfig{
		Name:       "Real-Debrid MCP Server",
		Version:    "test",
		ServerType: serverType,
	})
	if err != nil {
		t.Fatalf("NewHTTPServer() unexpected error: %v", err)
	}
	srv.SetHealthChecker(NewHealthChecker(sc))
	return srv
}

func TestNewHTTPServerRejectsUnknownType(t *testing.T) {
	_, err := NewHTTPServer(nil, nil, HTTPServerConfig{ServerType: "carrier-pigeon"})
	if err == nil {
		t.Fatal("expected error for unsupported server type")
	}
}

func TestInfoHandler(t *testing.T) {
	srv := newTestHTTPServer(t, ServerTypeSSE)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.infoHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp InfoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Name != "Real-Debrid MCP Server" {
		t.Errorf("name = %q, want %q", resp.Name, "Real-Debrid MCP Server")
	}
	if resp.Transport != ServerTypeSSE {
		t.Errorf("transport = %q, want %q", resp.Transport, ServerTypeSSE)
	}
	if resp.ActiveSessions != 1 {
		t.Errorf("active_sessions = %d, want 1", resp.ActiveSessions)
	}
}

func TestInfoHandlerRejectsOtherPaths(t *testing.T) {
	srv := newTestHTTPServer(t, ServerTypeStreamableHTTP)

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	rec := httptest.NewRecorder()
	srv.infoHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d for unknown path, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestInstrumentHandlerWithoutMetrics(t *testing.T) {
	srv := newTestHTTPServer(t, ServerTypeSSE)

	// Without metrics the handler passes through unchanged
	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	srv.instrumentHandler("/sse", inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sse", nil))

	if !called {
		t.Error("inner handler was not called")
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestInstrumentHandlerRecordsMetrics(t *testing.T) {
	srv := newTestHTTPServer(t, ServerTypeStreamableHTTP)
	srv.SetMetrics(createTestProvider(t).Metrics())

	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	rec := httptest.NewRecorder()
	srv.instrumentHandler("/mcp", inner).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
}

func TestHTTPServerShutdownWithoutStart(t *testing.T) {
	srv := newTestHTTPServer(t, ServerTypeSSE)

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() before Start should be a no-op, got error: %v", err)
	}
	if srv.Handler() != nil {
		t.Error("Handler() should be nil before Start")
	}
}
