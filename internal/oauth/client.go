package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teemow/debrid-mcp/internal/logging"
)

const (
	// DefaultBaseURL is the Real-Debrid OAuth API base URL.
	DefaultBaseURL = "https://api.real-debrid.com/oauth/v2"

	// DefaultPublicClientID is Real-Debrid's published client id for
	// open-source applications. It carries no secret; the device flow issues
	// fresh per-device credentials instead.
	DefaultPublicClientID = "X245A4XAIBGVM"

	// DefaultHTTPTimeout bounds every call to the authorization server.
	DefaultHTTPTimeout = 30 * time.Second

	// grantTypeDevice is the grant type Real-Debrid uses for both the initial
	// device-code exchange and token refresh (with the refresh token
	// substituted as code).
	grantTypeDevice = "http://oauth.net/grant_type/device/1.0"
)

// Client drives the three-legged OAuth device-code flow against the
// Real-Debrid authorization server. It is stateless; the caller holds the
// device code between polls.
type Client struct {
	baseURL        string
	publicClientID string
	httpClient     *http.Client
	logger         *slog.Logger
}

// ClientOption configures the OAuth client.
type ClientOption func(*Client)

// WithBaseURL sets a custom authorization server base URL. Used by tests to
// point at a stub server.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithPublicClientID overrides the public client id used to initiate the flow.
func WithPublicClientID(clientID string) ClientOption {
	return func(c *Client) {
		c.publicClientID = clientID
	}
}

// NewClient creates a new device-flow client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		publicClientID: DefaultPublicClientID,
		httpClient:     &http.Client{Timeout: DefaultHTTPTimeout},
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// StartDeviceAuth initiates a device authorization attempt. It requests fresh
// per-device credentials so the caller never needs a pre-shared secret.
func (c *Client) StartDeviceAuth(ctx context.Context) (*DeviceAuth, error) {
	q := url.Values{}
	q.Set("client_id", c.publicClientID)
	q.Set("new_credentials", "yes")

	body, status, err := c.get(ctx, "/device/code?"+q.Encode())
	if err != nil {
		return nil, &UnavailableError{Op: "device code request", Err: err}
	}
	if status != http.StatusOK {
		return nil, &UnavailableError{Op: "device code request", Err: fmt.Errorf("unexpected status %d", status)}
	}

	var auth DeviceAuth
	if err := json.Unmarshal(body, &auth); err != nil {
		return nil, &UnavailableError{Op: "device code request", Err: fmt.Errorf("malformed response: %w", err)}
	}

	c.logger.Debug("device authorization started",
		logging.Operation("oauth.device_code"),
		slog.Int("expires_in", auth.ExpiresIn),
		slog.Int("interval", auth.Interval))

	return &auth, nil
}

// PollCredentials asks the authorization server for the per-device client
// credentials. Until the user approves the device code the server answers
// with a client-error status, which is surfaced as ErrAuthorizationPending
// rather than a failure.
func (c *Client) PollCredentials(ctx context.Context, deviceCode string) (*DeviceCredentials, error) {
	if deviceCode == "" {
		return nil, fmt.Errorf("device code cannot be empty")
	}

	q := url.Values{}
	q.Set("client_id", c.publicClientID)
	q.Set("code", deviceCode)

	body, status, err := c.get(ctx, "/device/credentials?"+q.Encode())
	if err != nil {
		return nil, &UnavailableError{Op: "credentials poll", Err: err}
	}

	switch {
	case status == http.StatusOK:
		// approved, credentials issued
	case status >= 400 && status < 500:
		return nil, ErrAuthorizationPending
	default:
		return nil, &UnavailableError{Op: "credentials poll", Err: fmt.Errorf("unexpected status %d", status)}
	}

	var creds DeviceCredentials
	if err := json.Unmarshal(body, &creds); err != nil {
		return nil, &UnavailableError{Op: "credentials poll", Err: fmt.Errorf("malformed response: %w", err)}
	}
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, &UnavailableError{Op: "credentials poll", Err: fmt.Errorf("incomplete credentials in response")}
	}

	return &creds, nil
}

// ExchangeCode exchanges an approved device code for a token pair using the
// per-device credentials from PollCredentials. A client-error status means
// the authorization is still in progress and is reported as
// ErrAuthorizationPending.
func (c *Client) ExchangeCode(ctx context.Context, clientID, clientSecret, deviceCode string) (*Token, error) {
	if deviceCode == "" {
		return nil, fmt.Errorf("device code cannot be empty")
	}

	tok, status, err := c.postToken(ctx, clientID, clientSecret, deviceCode)
	if err != nil {
		return nil, &UnavailableError{Op: "token exchange", Err: err}
	}

	switch {
	case status == http.StatusOK:
		return tok, nil
	case status >= 400 && status < 500:
		return nil, ErrAuthorizationPending
	default:
		return nil, &UnavailableError{Op: "token exchange", Err: fmt.Errorf("unexpected status %d", status)}
	}
}

// Refresh mints a new token pair from a refresh token. The upstream reuses
// the device grant type with the refresh token substituted for the device
// code. A client-error status means the refresh token is no longer valid and
// the session cannot be recovered without a new device flow.
func (c *Client) Refresh(ctx context.Context, clientID, clientSecret, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, ErrReauthenticationRequired
	}

	tok, status, err := c.postToken(ctx, clientID, clientSecret, refreshToken)
	if err != nil {
		return nil, &UnavailableError{Op: "token refresh", Err: err}
	}

	switch {
	case status == http.StatusOK:
		c.logger.Debug("token refreshed", logging.Operation("oauth.refresh"))
		return tok, nil
	case status >= 400 && status < 500:
		return nil, ErrReauthenticationRequired
	default:
		return nil, &UnavailableError{Op: "token refresh", Err: fmt.Errorf("unexpected status %d", status)}
	}
}

// postToken performs a POST to the token endpoint with the device grant type.
func (c *Client) postToken(ctx context.Context, clientID, clientSecret, code string) (*Token, int, error) {
	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("code", code)
	form.Set("grant_type", grantTypeDevice)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var tok Token
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("malformed token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, resp.StatusCode, fmt.Errorf("token response missing access_token")
	}

	return &tok, resp.StatusCode, nil
}

// get performs a GET against the authorization server and returns the body
// and status code. Transport errors are returned as-is for the caller to wrap.
func (c *Client) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, err
	}

	return body, resp.StatusCode, nil
}
