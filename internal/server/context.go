package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teemow/debrid-mcp/internal/debrid"
	"github.com/teemow/debrid-mcp/internal/instrumentation"
	"github.com/teemow/debrid-mcp/internal/logging"
	"github.com/teemow/debrid-mcp/internal/oauth"
	"github.com/teemow/debrid-mcp/internal/session"
)

// ServerContext holds the shared state of the MCP server: the session store,
// the OAuth and Real-Debrid clients, and the token refresher that keeps
// sessions usable. All tools resolve their dependencies through it.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	store     *session.Store
	oauth     *oauth.Client
	debrid    *debrid.Client
	refresher *session.Refresher

	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	logger  *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// ServerContextOption configures a ServerContext.
type ServerContextOption func(*serverContextConfig)

type serverContextConfig struct {
	staticToken string
	oauthClient *oauth.Client
	debrid      *debrid.Client
	logger      *slog.Logger
}

// WithStaticToken seeds the session store with a pre-authorized API token.
// The token is registered under session.StaticSessionID and never refreshed.
func WithStaticToken(token string) ServerContextOption {
	return func(c *serverContextConfig) {
		c.staticToken = token
	}
}

// WithOAuthClient overrides the default OAuth client. Used by tests.
func WithOAuthClient(client *oauth.Client) ServerContextOption {
	return func(c *serverContextConfig) {
		c.oauthClient = client
	}
}

// WithDebridClient overrides the default Real-Debrid API client. Used by tests.
func WithDebridClient(client *debrid.Client) ServerContextOption {
	return func(c *serverContextConfig) {
		c.debrid = client
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ServerContextOption {
	return func(c *serverContextConfig) {
		c.logger = logger
	}
}

// NewServerContext creates a new server context with its own session store,
// OAuth client and Real-Debrid client.
func NewServerContext(ctx context.Context, opts ...ServerContextOption) (*ServerContext, error) {
	cfg := serverContextConfig{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.oauthClient == nil {
		cfg.oauthClient = oauth.NewClient(oauth.WithLogger(cfg.logger))
	}
	if cfg.debrid == nil {
		cfg.debrid = debrid.NewClient(debrid.WithLogger(cfg.logger))
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		store:  session.NewStore(),
		oauth:  cfg.oauthClient,
		debrid: cfg.debrid,
		logger: cfg.logger,
	}

	sc.refresher = session.NewRefresher(sc.store, sc.oauth,
		session.WithRefreshLogger(cfg.logger),
		session.WithRefreshObserver(sc.observeRefresh))

	if cfg.staticToken != "" {
		sc.store.SeedStatic(cfg.staticToken)
		cfg.logger.Info("static token configured",
			logging.Operation("server.init"),
			slog.String("session_id", session.StaticSessionID))
	}

	return sc, nil
}

// observeRefresh forwards refresh outcomes to metrics and audit logging.
// Registered as the refresher's observer so the session package stays free of
// instrumentation dependencies.
func (sc *ServerContext) observeRefresh(sessionID, result string) {
	sc.mu.RLock()
	metrics, audit := sc.metrics, sc.audit
	sc.mu.RUnlock()

	if metrics != nil {
		if result == logging.StatusSuccess {
			metrics.RecordTokenRefresh(sc.ctx, instrumentation.ResultSuccess)
		} else {
			metrics.RecordTokenRefresh(sc.ctx, instrumentation.ResultFailure)
		}
	}
	if audit != nil {
		if result == logging.StatusSuccess {
			audit.LogAuthEvent(sc.ctx, instrumentation.AuditTokenRefreshed, sessionID, true, "")
		} else {
			audit.LogAuthEvent(sc.ctx, instrumentation.AuditReauthRequired, sessionID, false, "refresh rejected by authorization server")
		}
	}
}

// Context returns the server's lifecycle context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Store returns the session store.
func (sc *ServerContext) Store() *session.Store {
	return sc.store
}

// OAuth returns the OAuth client for the device authorization flow.
func (sc *ServerContext) OAuth() *oauth.Client {
	return sc.oauth
}

// Debrid returns the Real-Debrid API client.
func (sc *ServerContext) Debrid() *debrid.Client {
	return sc.debrid
}

// Refresher returns the token refresher.
func (sc *ServerContext) Refresher() *session.Refresher {
	return sc.refresher
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// SetMetrics sets the metrics recorder for tool instrumentation.
func (sc *ServerContext) SetMetrics(metrics *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = metrics
}

// Metrics returns the metrics recorder, or nil if instrumentation is disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger.
func (sc *ServerContext) SetAuditLogger(audit *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.audit = audit
}

// AuditLogger returns the audit logger, or nil if audit logging is disabled.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.audit
}

// ActiveSessions returns the number of sessions currently held in memory.
func (sc *ServerContext) ActiveSessions() int {
	return sc.store.Len()
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context and drops all in-memory sessions.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	dropped := sc.store.Len()
	sc.store.DropAll()
	if sc.audit != nil && dropped > 0 {
		sc.audit.LogAuthEvent(sc.ctx, instrumentation.AuditSessionsDropped, "", true, "")
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
