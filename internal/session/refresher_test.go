package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/debrid-mcp/internal/oauth"
)

// newRefreshStub returns a token-endpoint stub counting refresh calls.
func newRefreshStub(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/token", r.URL.Path)
		calls.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestEnsureValidUnknownSession(t *testing.T) {
	srv, calls := newRefreshStub(t, http.StatusOK, `{}`)
	store := NewStore()
	refresher := NewRefresher(store, oauth.NewClient(oauth.WithBaseURL(srv.URL)))

	_, err := refresher.EnsureValid(context.Background(), "session_0_unknown")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	// No upstream call for an unknown session
	assert.EqualValues(t, 0, calls.Load())
}

func TestEnsureValidFreshToken(t *testing.T) {
	srv, calls := newRefreshStub(t, http.StatusOK, `{}`)
	store := NewStore()
	id := store.Create(testCreds(), testToken("AT-fresh", "RT", 3600))

	refresher := NewRefresher(store, oauth.NewClient(oauth.WithBaseURL(srv.URL)))

	token, err := refresher.EnsureValid(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "AT-fresh", token)
	assert.EqualValues(t, 0, calls.Load())
}

func TestEnsureValidRefreshesExpiredToken(t *testing.T) {
	srv, calls := newRefreshStub(t, http.StatusOK,
		`{"access_token": "AT-new", "refresh_token": "RT-new", "expires_in": 3600}`)

	store := NewStore()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	now := base
	store.SetClock(func() time.Time { return now })
	id := store.Create(testCreds(), testToken("AT-old", "RT-old", 60))

	refresher := NewRefresher(store, oauth.NewClient(oauth.WithBaseURL(srv.URL)),
		WithRefreshClock(func() time.Time { return now }))

	now = base.Add(2 * time.Minute) // past expiry

	token, err := refresher.EnsureValid(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "AT-new", token)
	assert.EqualValues(t, 1, calls.Load())

	// The stored triple changed exactly once, consistently
	sess, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, "AT-new", sess.AccessToken)
	assert.Equal(t, "RT-new", sess.RefreshToken)
	assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)

	// A second call finds the token valid and performs no further refresh
	token, err = refresher.EnsureValid(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "AT-new", token)
	assert.EqualValues(t, 1, calls.Load())
}

func TestEnsureValidReauthenticationRequired(t *testing.T) {
	srv, _ := newRefreshStub(t, http.StatusUnauthorized, `{"error": "invalid_grant"}`)

	store := NewStore()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	now := base
	store.SetClock(func() time.Time { return now })
	id := store.Create(testCreds(), testToken("AT", "RT-revoked", 60))

	refresher := NewRefresher(store, oauth.NewClient(oauth.WithBaseURL(srv.URL)),
		WithRefreshClock(func() time.Time { return now }))

	now = base.Add(time.Hour)

	_, err := refresher.EnsureValid(context.Background(), id)
	assert.ErrorIs(t, err, oauth.ErrReauthenticationRequired)

	// The session keeps its old (dead) tokens; no partial update happened
	sess, _ := store.Get(id)
	assert.Equal(t, "AT", sess.AccessToken)
	assert.Equal(t, "RT-revoked", sess.RefreshToken)
}

func TestConcurrentRefreshCollapsesToOneUpstreamCall(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		// Hold the first refresh open long enough for the other callers to
		// pile onto the same flight.
		time.Sleep(50 * time.Millisecond)
		_, _ = w.Write([]byte(`{"access_token": "AT-new", "refresh_token": "RT-new", "expires_in": 3600}`))
	}))
	defer srv.Close()

	store := NewStore()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := base
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	store.SetClock(clock)
	id := store.Create(testCreds(), testToken("AT-old", "RT-old", 60))

	refresher := NewRefresher(store, oauth.NewClient(oauth.WithBaseURL(srv.URL)),
		WithRefreshClock(clock))

	mu.Lock()
	now = base.Add(time.Hour)
	mu.Unlock()

	const workers = 8
	var wg sync.WaitGroup
	tokens := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = refresher.EnsureValid(context.Background(), id)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "AT-new", tokens[i])
	}
	assert.EqualValues(t, 1, calls.Load(), "concurrent refreshes must collapse into one upstream call")
}

func TestRefreshObserver(t *testing.T) {
	srv, _ := newRefreshStub(t, http.StatusOK,
		`{"access_token": "AT-new", "refresh_token": "RT-new", "expires_in": 3600}`)

	store := NewStore()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	now := base
	store.SetClock(func() time.Time { return now })
	id := store.Create(testCreds(), testToken("AT", "RT", 60))

	var observed []string
	refresher := NewRefresher(store, oauth.NewClient(oauth.WithBaseURL(srv.URL)),
		WithRefreshClock(func() time.Time { return now }),
		WithRefreshObserver(func(sessionID, result string) {
			assert.Equal(t, id, sessionID)
			observed = append(observed, result)
		}))

	now = base.Add(time.Hour)
	_, err := refresher.EnsureValid(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"success"}, observed)
}

func TestStaticSessionNeverRefreshes(t *testing.T) {
	srv, calls := newRefreshStub(t, http.StatusOK, `{}`)
	store := NewStore()
	store.SeedStatic("STATIC-TOKEN")

	refresher := NewRefresher(store, oauth.NewClient(oauth.WithBaseURL(srv.URL)))

	token, err := refresher.EnsureValid(context.Background(), StaticSessionID)
	require.NoError(t, err)
	assert.Equal(t, "STATIC-TOKEN", token)
	assert.EqualValues(t, 0, calls.Load())
}
