package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, ctx context.Context) *Provider {
	t.Helper()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	return provider
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// Should not panic
	metrics.RecordHTTPRequest(ctx, "GET", "/mcp", 200, 100*time.Millisecond)
	metrics.RecordHTTPRequest(ctx, "POST", "/mcp", 500, 50*time.Millisecond)
}

func TestMetrics_RecordAPIOperation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	// Should not panic
	metrics.RecordAPIOperation(ctx, "user_info", StatusSuccess, 200*time.Millisecond)
	metrics.RecordAPIOperation(ctx, "unrestrict_link", StatusError, 500*time.Millisecond)
	metrics.RecordAPIOperation(ctx, "torrents", StatusSuccess, 100*time.Millisecond)
}

func TestMetrics_RecordDeviceFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	// Should not panic
	metrics.RecordDeviceFlow(ctx, FlowStageStart, ResultSuccess)
	metrics.RecordDeviceFlow(ctx, FlowStagePoll, ResultPending)
	metrics.RecordDeviceFlow(ctx, FlowStageExchange, ResultFailure)
}

func TestMetrics_RecordTokenRefresh(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	// Should not panic
	metrics.RecordTokenRefresh(ctx, ResultSuccess)
	metrics.RecordTokenRefresh(ctx, ResultFailure)
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	// Should not panic
	metrics.RecordToolInvocation(ctx, "list_torrents", StatusSuccess, 150*time.Millisecond)
	metrics.RecordToolInvocation(ctx, "unrestrict_link", StatusError, 75*time.Millisecond)
}

func TestMetrics_ActiveSessions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := newTestProvider(t, ctx).Metrics()

	// Should not panic
	metrics.IncrementActiveSessions(ctx)
	metrics.IncrementActiveSessions(ctx)
	metrics.DecrementActiveSessions(ctx)
}

func TestMetrics_NoOpWhenUninitialized(t *testing.T) {
	ctx := context.Background()
	metrics := &Metrics{}

	// All recorders must tolerate an uninitialized state
	metrics.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
	metrics.RecordAPIOperation(ctx, "user_info", StatusSuccess, time.Millisecond)
	metrics.RecordDeviceFlow(ctx, FlowStageStart, ResultSuccess)
	metrics.RecordTokenRefresh(ctx, ResultSuccess)
	metrics.RecordToolInvocation(ctx, "get_user_info", StatusSuccess, time.Millisecond)
	metrics.IncrementActiveSessions(ctx)
	metrics.DecrementActiveSessions(ctx)
}

func TestProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create disabled provider: %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.Metrics() == nil {
		t.Error("disabled provider must still return a no-op metrics recorder")
	}
	if provider.Tracer("test") == nil {
		t.Error("disabled provider must still return a tracer")
	}
	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("shutdown of disabled provider: %v", err)
	}
}
