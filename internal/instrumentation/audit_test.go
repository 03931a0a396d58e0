package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

const (
	testSessionID = "session_1756500000_deadbeef"
	testTool      = "list_torrents"
)

func newCapturingAuditLogger(config AuditLoggingConfig) (*AuditLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewAuditLogger(logger, config), &buf
}

func TestToolInvocation_NewAndComplete(t *testing.T) {
	ti := NewToolInvocation(testTool)

	if ti.Tool != testTool {
		t.Errorf("Tool = %q, want %q", ti.Tool, testTool)
	}
	if ti.StartTime.IsZero() {
		t.Error("StartTime should not be zero")
	}

	ti.CompleteSuccess()

	if !ti.Success {
		t.Error("Success should be true")
	}
	if ti.Duration < 0 {
		t.Error("Duration should not be negative")
	}
	if ti.Error != "" {
		t.Errorf("Error should be empty, got %q", ti.Error)
	}
}

func TestToolInvocation_CompleteWithError(t *testing.T) {
	ti := NewToolInvocation(testTool)
	err := errors.New("hoster unavailable")

	ti.CompleteWithError(err)

	if ti.Success {
		t.Error("Success should be false")
	}
	if ti.Error != "hoster unavailable" {
		t.Errorf("Error = %q, want %q", ti.Error, "hoster unavailable")
	}
}

func TestToolInvocation_Builders(t *testing.T) {
	ti := NewToolInvocation(testTool).
		WithSession(testSessionID).
		WithOperation("torrents")

	if ti.SessionID != testSessionID {
		t.Errorf("SessionID = %q, want %q", ti.SessionID, testSessionID)
	}
	if ti.Operation != "torrents" {
		t.Errorf("Operation = %q, want %q", ti.Operation, "torrents")
	}
}

func TestAuditLogger_HashesSessionIDByDefault(t *testing.T) {
	audit, buf := newCapturingAuditLogger(AuditLoggingConfig{Enabled: true})

	ti := NewToolInvocation(testTool).WithSession(testSessionID).CompleteSuccess()
	audit.LogToolInvocation(context.Background(), ti)

	out := buf.String()
	if strings.Contains(out, testSessionID) {
		t.Errorf("raw session id leaked into audit log: %s", out)
	}
	if !strings.Contains(out, "session_hash") {
		t.Errorf("expected hashed session id in audit log, got: %s", out)
	}
}

func TestAuditLogger_IncludesSessionIDWhenConfigured(t *testing.T) {
	audit, buf := newCapturingAuditLogger(AuditLoggingConfig{Enabled: true, IncludeSessionIDs: true})

	ti := NewToolInvocation(testTool).WithSession(testSessionID).CompleteSuccess()
	audit.LogToolInvocation(context.Background(), ti)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("audit record is not valid JSON: %v", err)
	}
	if record["session_id"] != testSessionID {
		t.Errorf("session_id = %v, want %q", record["session_id"], testSessionID)
	}
}

func TestAuditLogger_DisabledWritesNothing(t *testing.T) {
	audit, buf := newCapturingAuditLogger(AuditLoggingConfig{Enabled: false})

	ti := NewToolInvocation(testTool).CompleteSuccess()
	audit.LogToolInvocation(context.Background(), ti)
	audit.LogAuthEvent(context.Background(), AuditSessionCreated, testSessionID, true, "")

	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote output: %s", buf.String())
	}
	if audit.Enabled() {
		t.Error("Enabled() should be false")
	}
}

func TestAuditLogger_LogAuthEvent(t *testing.T) {
	audit, buf := newCapturingAuditLogger(AuditLoggingConfig{Enabled: true})

	audit.LogAuthEvent(context.Background(), AuditReauthRequired, testSessionID, false, "refresh token rejected")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("audit record is not valid JSON: %v", err)
	}
	if record["event"] != AuditReauthRequired {
		t.Errorf("event = %v, want %q", record["event"], AuditReauthRequired)
	}
	if record["success"] != false {
		t.Errorf("success = %v, want false", record["success"])
	}
	if record["detail"] != "refresh token rejected" {
		t.Errorf("detail = %v, want %q", record["detail"], "refresh token rejected")
	}
	if record["log_type"] != "audit" {
		t.Errorf("log_type = %v, want %q", record["log_type"], "audit")
	}
}
