package server

import (
	"context"
	"testing"

	"github.com/teemow/debrid-mcp/internal/session"
)

func TestNewServerContext(t *testing.T) {
	sc, err := NewServerContext(context.Background())
	if err != nil {
		t.Fatalf("NewServerContext() unexpected error: %v", err)
	}

	if sc.Store() == nil {
		t.Error("Store() returned nil")
	}
	if sc.OAuth() == nil {
		t.Error("OAuth() returned nil")
	}
	if sc.Debrid() == nil {
		t.Error("Debrid() returned nil")
	}
	if sc.Refresher() == nil {
		t.Error("Refresher() returned nil")
	}
	if sc.IsShutdown() {
		t.Error("fresh context reports shutdown")
	}
	if sc.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions() = %d, want 0", sc.ActiveSessions())
	}
}

func TestNewServerContextWithStaticToken(t *testing.T) {
	sc, err := NewServerContext(context.Background(), WithStaticToken("API-TOKEN"))
	if err != nil {
		t.Fatalf("NewServerContext() unexpected error: %v", err)
	}

	sess, ok := sc.Store().Get(session.StaticSessionID)
	if !ok {
		t.Fatal("static session was not seeded")
	}
	if sess.AccessToken != "API-TOKEN" {
		t.Errorf("static session token = %q, want %q", sess.AccessToken, "API-TOKEN")
	}
	if sc.ActiveSessions() != 1 {
		t.Errorf("ActiveSessions() = %d, want 1", sc.ActiveSessions())
	}
}

func TestServerContextShutdownDropsSessions(t *testing.T) {
	sc, err := NewServerContext(context.Background(), WithStaticToken("API-TOKEN"))
	if err != nil {
		t.Fatalf("NewServerContext() unexpected error: %v", err)
	}

	if err := sc.Shutdown(); err != nil {
		t.Fatalf("Shutdown() unexpected error: %v", err)
	}

	if !sc.IsShutdown() {
		t.Error("IsShutdown() = false after Shutdown()")
	}
	if sc.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions() = %d after shutdown, want 0", sc.ActiveSessions())
	}
	select {
	case <-sc.Context().Done():
	default:
		t.Error("server context not cancelled after Shutdown()")
	}

	// Repeated shutdown is a no-op
	if err := sc.Shutdown(); err != nil {
		t.Errorf("second Shutdown() unexpected error: %v", err)
	}
}

func TestServerContextMetricsAndAudit(t *testing.T) {
	sc, err := NewServerContext(context.Background())
	if err != nil {
		t.Fatalf("NewServerContext() unexpected error: %v", err)
	}

	if sc.Metrics() != nil {
		t.Error("Metrics() should be nil before SetMetrics")
	}
	if sc.AuditLogger() != nil {
		t.Error("AuditLogger() should be nil before SetAuditLogger")
	}

	provider := createTestProvider(t)
	sc.SetMetrics(provider.Metrics())
	if sc.Metrics() == nil {
		t.Error("Metrics() returned nil after SetMetrics")
	}

	// The refresh observer must tolerate a nil audit logger
	sc.observeRefresh("session_0_test", "success")
	sc.observeRefresh("session_0_test", "error")
}
