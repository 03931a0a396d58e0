package debrid

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
	// DefaultBaseURL is the Real-Debrid REST API base URL.
	DefaultBaseURL = "https://api.real-debrid.com/rest/1.0"

	// DefaultHTTPTimeout bounds every call to the resource API.
	DefaultHTTPTimeout = 30 * time.Second
)

// successMarker is returned for empty-body success statuses; some upstream
// operations (delete, select files) answer 204 with no content.
var successMarker = json.RawMessage(`{"success": true}`)

// Client dispatches authenticated requests to the Real-Debrid resource API
// and normalizes the outcome. Response payloads are opaque JSON passed
// through unmodified except for error normalization.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures the API client.
type ClientOption func(*Client)

// WithBaseURL sets a custom resource API base URL. Used by tests to point at
// a stub server.
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

// NewClient creates a new Real-Debrid API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Call performs one authenticated request against the resource API.
// Form fields are sent urlencoded for mutating methods. The returned payload
// is the upstream JSON verbatim, or a generic success marker for empty-body
// success responses.
func (c *Client) Call(ctx context.Context, accessToken, method, path string, form url.Values) (json.RawMessage, error) {
	var reqBody io.Reader
	if len(form) > 0 && method != http.MethodGet {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnavailableError{Op: method + " " + path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, &UnavailableError{Op: method + " " + path, Err: err}
	}

	c.logger.Debug("api call completed",
		logging.Operation("debrid.call"),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("http_status", resp.StatusCode),
		logging.Duration(time.Since(start)))

	if resp.StatusCode >= 400 {
		return nil, newAPIError(resp.StatusCode, body)
	}

	if resp.StatusCode == http.StatusNoContent || len(body) == 0 {
		return successMarker, nil
	}

	return json.RawMessage(body), nil
}

// newAPIError builds an APIError from the upstream error fields when present,
// falling back to generic text otherwise.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{
		Message: "unknown error",
		Code:    -1,
		Status:  status,
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		apiErr.Message = parsed.Error
		if parsed.ErrorCode != 0 {
			apiErr.Code = parsed.ErrorCode
		}
	} else if len(body) > 0 {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	return apiErr
}

// UserInfo returns the authenticated user's account information.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (json.RawMessage, error) {
	return c.Call(ctx, accessToken, http.MethodGet, "/user", nil)
}

// Traffic returns the user's traffic details for all hosters.
func (c *Client) Traffic(ctx context.Context, accessToken string) (json.RawMessage, error) {
	return c.Call(ctx, accessToken, http.MethodGet, "/traffic", nil)
}

// UnrestrictLink unrestricts a hoster link. The password is optional, for
// protected files.
func (c *Client) UnrestrictLink(ctx context.Context, accessToken, link, password string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("link", link)
	if password != "" {
		form.Set("password", password)
	}
	return c.Call(ctx, accessToken, http.MethodPost, "/unrestrict/link", form)
}

// UnrestrictCheck checks whether a hoster link is downloadable, without
// consuming the link.
func (c *Client) UnrestrictCheck(ctx context.Context, accessToken, link string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("link", link)
	return c.Call(ctx, accessToken, http.MethodPost, "/unrestrict/check", form)
}

// Torrents lists the user's torrents. Filter may be "active" to list active
// torrents only, or empty for all.
func (c *Client) Torrents(ctx context.Context, accessToken, filter string) (json.RawMessage, error) {
	path := "/torrents"
	if filter != "" {
		path += "?filter=" + url.QueryEscape(filter)
	}
	return c.Call(ctx, accessToken, http.MethodGet, path, nil)
}

// TorrentInfo returns details for a single torrent.
func (c *Client) TorrentInfo(ctx context.Context, accessToken, torrentID string) (json.RawMessage, error) {
	return c.Call(ctx, accessToken, http.MethodGet, "/torrents/info/"+url.PathEscape(torrentID), nil)
}

// AddMagnet adds a magnet link to the user's torrents.
func (c *Client) AddMagnet(ctx context.Context, accessToken, magnet string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("magnet", magnet)
	return c.Call(ctx, accessToken, http.MethodPost, "/torrents/addMagnet", form)
}

// SelectFiles selects which files of a torrent to download. Files is a
// comma-separated list of file ids, or "all".
func (c *Client) SelectFiles(ctx context.Context, accessToken, torrentID, files string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("files", files)
	return c.Call(ctx, accessToken, http.MethodPost, "/torrents/selectFiles/"+url.PathEscape(torrentID), form)
}

// DeleteTorrent removes a torrent from the user's list.
func (c *Client) DeleteTorrent(ctx context.Context, accessToken, torrentID string) (json.RawMessage, error) {
	return c.Call(ctx, accessToken, http.MethodDelete, "/torrents/delete/"+url.PathEscape(torrentID), nil)
}

// Downloads lists the user's previous downloads.
func (c *Client) Downloads(ctx context.Context, accessToken string) (json.RawMessage, error) {
	return c.Call(ctx, accessToken, http.MethodGet, "/downloads", nil)
}

// Hosts lists the supported hosters.
func (c *Client) Hosts(ctx context.Context, accessToken string) (json.RawMessage, error) {
	return c.Call(ctx, accessToken, http.MethodGet, "/hosts", nil)
}
