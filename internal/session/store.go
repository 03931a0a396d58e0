package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/debrid-mcp/internal/oauth"
)

// StaticSessionID is the well-known session id seeded when the server is
// configured with a static API token instead of the OAuth flow.
const StaticSessionID = "static"

// ErrSessionNotFound indicates the caller supplied a session id absent from
// the store: it never existed, or the process restarted since it was issued.
// The caller must re-authenticate; the error is never retried automatically.
var ErrSessionNotFound = errors.New("session not found: authenticate with oauth_start and oauth_check first")

// Session binds a caller-visible session identifier to a live OAuth token
// pair plus the per-device credentials needed to refresh it.
//
// ID, ClientID and ClientSecret are immutable for the session's lifetime.
// AccessToken, RefreshToken and ExpiresAt are only ever replaced together,
// as a unit, by Store.UpdateTokens.
type Session struct {
	ID           string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	ClientID     string
	ClientSecret string
}

// Expired reports whether the access token is stale at the given instant.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Store maps session ids to sessions, in memory, for the life of the process.
// It starts empty and persists nothing; all sessions are lost on restart,
// which is a documented, accepted limitation.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// SetClock overrides the store's time source. Used by tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Create stores a new session for the given device credentials and token
// pair, returning the generated session id. It always succeeds.
func (s *Store) Create(creds oauth.DeviceCredentials, tok oauth.Token) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := newSessionID(now)
	s.sessions[id] = &Session{
		ID:           id,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(tok.ExpiresIn) * time.Second),
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
	}

	return id
}

// SeedStatic stores a session under StaticSessionID backed by a fixed API
// token. The session carries no refresh credentials and is treated as never
// expiring; it exists so a statically configured token and OAuth-flow
// sessions share one code path.
func (s *Store) SeedStatic(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[StaticSessionID] = &Session{
		ID:          StaticSessionID,
		AccessToken: token,
		ExpiresAt:   s.now().AddDate(100, 0, 0),
	}
}

// Get returns a copy of the session for the given id. Returning a copy
// guarantees readers never observe a token paired with the wrong expiry while
// a concurrent refresh replaces the triple.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// UpdateTokens atomically replaces the token triple for an existing session.
// The expiry is derived from the issue instant, so it always corresponds to
// the stored access token. A missing session is a silent no-op; there is no
// external deletion path, so this is defensive only.
func (s *Store) UpdateTokens(id string, tok oauth.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return
	}

	sess.AccessToken = tok.AccessToken
	sess.RefreshToken = tok.RefreshToken
	sess.ExpiresAt = s.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// DropAll removes every session. Called on shutdown; there is no per-session
// revoke operation.
func (s *Store) DropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*Session)
}

// newSessionID generates a collision-resistant identifier with a time
// component and a random component.
func newSessionID(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("session_%d_%s", now.Unix(), random)
}
