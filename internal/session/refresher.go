package session

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/teemow/debrid-mcp/internal/logging"
	"github.com/teemow/debrid-mcp/internal/oauth"
)

// RefreshObserver is notified after each upstream refresh attempt with the
// session id and the result ("success" or "error"). It lets the server wire
// metrics and audit logging without this package depending on them.
type RefreshObserver func(sessionID, result string)

// Refresher guarantees callers a currently-valid access token for a session,
// refreshing lazily on first use after expiry.
type Refresher struct {
	store    *Store
	oauth    *oauth.Client
	logger   *slog.Logger
	observer RefreshObserver
	now      func() time.Time

	// group collapses concurrent refreshes for the same session into one
	// upstream call; the upstream may single-use refresh tokens, so
	// redundant refreshes risk invalidating each other.
	group singleflight.Group
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithRefreshLogger sets a custom logger.
func WithRefreshLogger(logger *slog.Logger) RefresherOption {
	return func(r *Refresher) {
		r.logger = logger
	}
}

// WithRefreshObserver registers a callback invoked after each refresh attempt.
func WithRefreshObserver(observer RefreshObserver) RefresherOption {
	return func(r *Refresher) {
		r.observer = observer
	}
}

// WithRefreshClock overrides the time source. Used by tests.
func WithRefreshClock(now func() time.Time) RefresherOption {
	return func(r *Refresher) {
		r.now = now
	}
}

// NewRefresher creates a refresher over the given store and OAuth client.
func NewRefresher(store *Store, oauthClient *oauth.Client, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		store:  store,
		oauth:  oauthClient,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// EnsureValid returns an access token for the session that was valid at the
// time of the check. A still-valid token is returned as-is; an expired one is
// refreshed against the upstream and the session's token triple replaced
// atomically before returning.
//
// Returns ErrSessionNotFound for unknown ids and
// oauth.ErrReauthenticationRequired when the upstream rejects the refresh
// token; the latter is fatal for the session since re-authorization needs
// human interaction.
func (r *Refresher) EnsureValid(ctx context.Context, sessionID string) (string, error) {
	sess, ok := r.store.Get(sessionID)
	if !ok {
		return "", ErrSessionNotFound
	}

	if !sess.Expired(r.now()) {
		return sess.AccessToken, nil
	}

	token, err, _ := r.group.Do(sessionID, func() (interface{}, error) {
		return r.refresh(ctx, sessionID)
	})
	if err != nil {
		return "", err
	}

	return token.(string), nil
}

// refresh performs one upstream refresh for the session. Runs inside the
// singleflight group, so at most one refresh per session is in flight.
func (r *Refresher) refresh(ctx context.Context, sessionID string) (string, error) {
	// Re-read after winning the flight: a concurrent caller may have
	// completed the refresh while this one waited.
	sess, ok := r.store.Get(sessionID)
	if !ok {
		return "", ErrSessionNotFound
	}
	if !sess.Expired(r.now()) {
		return sess.AccessToken, nil
	}

	tok, err := r.oauth.Refresh(ctx, sess.ClientID, sess.ClientSecret, sess.RefreshToken)
	if err != nil {
		r.notify(sessionID, logging.StatusError)
		r.logger.Warn("token refresh failed",
			logging.Operation("session.refresh"),
			logging.SessionHash(sessionID),
			logging.Err(err))
		return "", err
	}

	r.store.UpdateTokens(sessionID, *tok)
	r.notify(sessionID, logging.StatusSuccess)
	r.logger.Info("token refreshed",
		logging.Operation("session.refresh"),
		logging.SessionHash(sessionID),
		slog.Int("expires_in", tok.ExpiresIn))

	return tok.AccessToken, nil
}

func (r *Refresher) notify(sessionID, result string) {
	if r.observer != nil {
		r.observer(sessionID, result)
	}
}
