package oauth

import (
	"errors"
	"fmt"
)

// DeviceAuth holds the advisory data returned when a device authorization
// attempt is initiated. The device code identifies the attempt on every
// subsequent poll; the remaining fields are for the human approving access.
type DeviceAuth struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// DeviceCredentials are the per-device client credentials issued by the
// authorization server once the user has approved the device code. They are
// unique to this authorization, not a shared application secret.
type DeviceCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Token is the access/refresh token pair returned by the token endpoint.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// ErrAuthorizationPending indicates the user has not completed the
// authorization step yet. This is an expected, frequent outcome of polling,
// not a failure; callers should surface it as a status and keep polling.
var ErrAuthorizationPending = errors.New("authorization pending: user has not approved the device code yet")

// ErrReauthenticationRequired indicates the upstream rejected the refresh
// token. The session is no longer usable and a fresh device flow is required;
// re-authorization needs human interaction and is never attempted
// automatically.
var ErrReauthenticationRequired = errors.New("re-authentication required: refresh token rejected by upstream")

// UnavailableError indicates a transport-level failure reaching the
// authorization server (DNS, connection refused/reset, timeout) or a server
// error response. It is distinct from a rejection of the request itself, so
// callers can decide to retry with backoff.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("authorization server unavailable during %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
