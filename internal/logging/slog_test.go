package logging

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeSessionID(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		wantEmpty bool
	}{
		{
			name:      "empty session id",
			sessionID: "",
			wantEmpty: true,
		},
		{
			name:      "regular session id",
			sessionID: "session_1700000000_a1b2c3d4",
			wantEmpty: false,
		},
		{
			name:      "static session id",
			sessionID: "static",
			wantEmpty: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnonymizeSessionID(tt.sessionID)
			if tt.wantEmpty {
				assert.Empty(t, got)
				return
			}
			assert.True(t, strings.HasPrefix(got, "sess:"))
			assert.NotContains(t, got, tt.sessionID)
		})
	}
}

func TestAnonymizeSessionIDStable(t *testing.T) {
	// Hashing the same id twice must allow correlation across log lines
	first := AnonymizeSessionID("session_123_abcd")
	second := AnonymizeSessionID("session_123_abcd")
	assert.Equal(t, first, second)

	other := AnonymizeSessionID("session_456_efgh")
	assert.NotEqual(t, first, other)
}

func TestSanitizeToken(t *testing.T) {
	assert.Equal(t, "<empty>", SanitizeToken(""))

	got := SanitizeToken("super-secret-access-token")
	assert.NotContains(t, got, "secret")
	assert.Equal(t, "[token:25 chars]", got)
}

func TestErrNilSafe(t *testing.T) {
	attr := Err(nil)
	// A nil error must produce an attribute slog omits from output
	assert.Equal(t, slog.KindGroup, attr.Value.Kind())
	assert.Empty(t, attr.Key)
}

func TestAttributeHelpers(t *testing.T) {
	assert.Equal(t, KeyOperation, Operation("oauth.start").Key)
	assert.Equal(t, "oauth.start", Operation("oauth.start").Value.String())

	assert.Equal(t, KeyTool, Tool("get_user_info").Key)
	assert.Equal(t, KeyStatus, Status(StatusSuccess).Key)
	assert.Equal(t, KeyDuration, Duration(2*time.Second).Key)
	assert.Equal(t, "2s", Duration(2*time.Second).Value.String())
}

func TestWithHelpers(t *testing.T) {
	logger := slog.Default()
	assert.NotNil(t, WithOperation(logger, "dispatch"))
	assert.NotNil(t, WithTool(logger, "list_torrents"))
}
