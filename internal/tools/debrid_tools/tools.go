package debrid_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/debrid-mcp/internal/instrumentation"
	"github.com/teemow/debrid-mcp/internal/oauth"
	"github.com/teemow/debrid-mcp/internal/server"
	"github.com/teemow/debrid-mcp/internal/session"
)

// getSessionIDFromArgs extracts the session_id argument.
func getSessionIDFromArgs(args map[string]interface{}) string {
	sessionID, _ := args["session_id"].(string)
	return sessionID
}

// resolveAccessToken resolves a session id to a currently-valid access token,
// refreshing it if needed. On failure it returns a user-facing error message.
func resolveAccessToken(ctx context.Context, sc *server.ServerContext, sessionID string) (string, string) {
	if sessionID == "" {
		return "", "session_id is required"
	}

	token, err := sc.Refresher().EnsureValid(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			return "", "Invalid session_id. Please authenticate first using oauth_start and oauth_check."
		case errors.Is(err, oauth.ErrReauthenticationRequired):
			return "", "Session expired and could not be refreshed. Please re-authenticate using oauth_start and oauth_check."
		default:
			return "", fmt.Sprintf("Failed to refresh access token: %v", err)
		}
	}

	return token, ""
}

// apiCall runs one upstream operation with tool and API instrumentation.
// The session is resolved first; an invalid session never reaches the API.
func apiCall(ctx context.Context, sc *server.ServerContext, tool, operation string,
	args map[string]interface{},
	call func(ctx context.Context, accessToken string) (json.RawMessage, error),
) (*mcp.CallToolResult, error) {
	ti := instrumentation.NewToolInvocation(tool).WithOperation(operation).WithSpanContext(ctx)

	sessionID := getSessionIDFromArgs(args)
	ti.WithSession(sessionID)

	token, errMsg := resolveAccessToken(ctx, sc, sessionID)
	if errMsg != "" {
		finish(ctx, sc, ti.CompleteWithError(errors.New(errMsg)))
		return mcp.NewToolResultError(errMsg), nil
	}

	start := time.Now()
	data, err := call(ctx, token)
	if m := sc.Metrics(); m != nil {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		m.RecordAPIOperation(ctx, operation, status, time.Since(start))
	}
	if err != nil {
		finish(ctx, sc, ti.CompleteWithError(err))
		return mcp.NewToolResultError(err.Error()), nil
	}

	finish(ctx, sc, ti.CompleteSuccess())
	return mcp.NewToolResultText(indented(data)), nil
}

// finish records tool metrics and audit logging for a completed invocation.
func finish(ctx context.Context, sc *server.ServerContext, ti *instrumentation.ToolInvocation) {
	if m := sc.Metrics(); m != nil {
		status := instrumentation.StatusSuccess
		if !ti.Success {
			status = instrumentation.StatusError
		}
		m.RecordToolInvocation(ctx, ti.Tool, status, ti.Duration)
	}
	if a := sc.AuditLogger(); a != nil {
		a.LogToolInvocation(ctx, ti)
	}
}

// indented re-renders upstream JSON with indentation for readability.
// Invalid payloads pass through unchanged.
func indented(data json.RawMessage) string {
	var buf json.RawMessage = data
	pretty, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return string(data)
	}
	return string(pretty)
}

// RegisterDebridTools registers all Real-Debrid API tools with the MCP server.
func RegisterDebridTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	registerUserTools(s, sc)
	registerUnrestrictTools(s, sc)
	registerTorrentTools(s, sc)
	registerDownloadTools(s, sc)
	return nil
}

// registerUserTools registers account-level tools.
func registerUserTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	userInfoTool := mcp.NewTool("get_user_info",
		mcp.WithDescription("Get current Real-Debrid user information"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID from oauth_check"),
		),
	)

	s.AddTool(userInfoTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})
		return apiCall(ctx, sc, "get_user_info", "user_info", args,
			func(ctx context.Context, accessToken string) (json.RawMessage, error) {
				return sc.Debrid().UserInfo(ctx, accessToken)
			})
	})

	trafficTool := mcp.NewTool("get_traffic",
		mcp.WithDescription("Get traffic details for all hosters on the account"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID from oauth_check"),
		),
	)

	s.AddTool(trafficTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})
		return apiCall(ctx, sc, "get_traffic", "traffic", args,
			func(ctx context.Context, accessToken string) (json.RawMessage, error) {
				return sc.Debrid().Traffic(ctx, accessToken)
			})
	})

	hostsTool := mcp.NewTool("list_hosts",
		mcp.WithDescription("List supported hosters"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID from oauth_check"),
		),
	)

	s.AddTool(hostsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})
		return apiCall(ctx, sc, "list_hosts", "hosts", args,
			func(ctx context.Context, accessToken string) (json.RawMessage, error) {
				return sc.Debrid().Hosts(ctx, accessToken)
			})
	})
}

// registerUnrestrictTools registers link unrestriction tools.
func registerUnrestrictTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	unrestrictTool := mcp.NewTool("unrestrict_link",
		mcp.WithDescription("Unrestrict a hoster link"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID from OAuth"),
		),
		mcp.WithString("link",
			mcp.Required(),
			mcp.Description("The hoster link to unrestrict"),
		),
		mcp.WithString("password",
			mcp.Description("Optional password for protected files"),
		),
	)

	s.AddTool(unrestrictTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})

		link, ok := args["link"].(string)
		if !ok || link == "" {
			return mcp.NewToolResultError("link is required"), nil
		}
		password, _ := args["password"].(string)

		return apiCall(ctx, sc, "unrestrict_link", "unrestrict_link", args,
			func(ctx context.Context, accessToken string) (json.RawMessage, error) {
				return sc.Debrid().UnrestrictLink(ctx, accessToken, link, password)
			})
	})

	checkTool := mcp.NewTool("unrestrict_check",
		mcp.WithDescription("Check if a hoster link is downloadable without consuming it"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID from OAuth"),
		),
		mcp.WithString("link",
			mcp.Required(),
			mcp.Description("The hoster link to check"),
		),
	)

	s.AddTool(checkTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})

		link, ok := args["link"].(string)
		if !ok || link == "" {
			return mcp.NewToolResultError("link is required"), nil
		}

		return apiCall(ctx, sc, "unrestrict_check", "unrestrict_check", args,
			func(ctx context.Context, accessToken string) (json.RawMessage, error) {
				return sc.Debrid().UnrestrictCheck(ctx, accessToken, link)
			})
	})
}

// registerTorrentTools registers torrent management tools.
func registerTorrentTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	listTool := mcp.NewTool("list_torrents",
		mcp.WithDescription("Get user's torrents list"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID from OAuth"),
		),
		mcp.WithString("filter",
			mcp.Description("Filter: 'active' for active torrents only"),
		),
	)

	s.AddTool(listTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})
		filter, _ := args["filter"].(string)

		return apiCall(ctx, sc, "list_torrents", "torrents", args,
			func(ctx context.Context, accessToken string) (json.RawMessage, error) {
				return sc.Debrid().Torrents(ctx, accessToken, filter)
			})
	})

	infoTool := mcp.NewTool("get_torrent_info",
		mcp.WithDescription("Get details of a specific torrent"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID from OAuth"),
		),
		mcp.WithString("torrent_id",
			mcp.Required(),
			mcp.Description("The ID of the torrent"),
		),
	)

	s.AddTool(infoTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})

		torrentID, ok := args["torrent_id"].(string)
		if !ok || torrentID == "" {
			return mcp.NewToolResultError("torrent_id is required"), nil
		}

		return apiCall(ctx, sc, "get_torrent_info", "torrent_info", args,
			func(ctx context.Context, accessToken string) (json.RawMessage, error) {
				return sc.Debrid().TorrentInfo(ctx, accessToken, torrentID)
			})
	})

	addMagnetTool := mcp.NewTool("add_magnet",
		mcp.WithDescription("Add a magnet link"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID from OAuth"),
		),
		mcp.WithString("magnet",
			mcp.Required(),
			mcp.Description("The magnet link"),
		),
	)

	s.AddTool(addMagnetTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})

		magnet, ok := args["magnet"].(string)
		if !ok || magnet == "" {
			return mcp.NewToolResultError("magnet is required"), nil
		}

		return apiCall(ctx, sc, "add_magnet", "add_magnet", args,
			func(ctx context.Context, accessToken string) (json.RawMessage, error) {
				return sc.Debrid().AddMagnet(ctx, accessToken, magnet)
			})
	})

	selectFilesTool := mcp.NewTool("select_torrent_files",
		mcp.WithDescription("Select which files of a torrent to download"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID from OAuth"),
		),
		mcp.WithString("torrent_id",
			mcp.Required(),
			mcp.Description("The ID of the torrent"),
		),
		mcp.WithString("files",
			mcp.Description("Comma-separated file ids, or 'all' (default: 'all')"),
		),
	)

	s.AddTool(selectFilesTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})

		torrentID, ok := args["torrent_id"].(string)
		if !ok || torrentID == "" {
			return mcp.NewToolResultError("torrent_id is required"), nil
		}
		files, _ := args["files"].(string)
		if files == "" {
			files = "all"
		}

		return apiCall(ctx, sc, "select_torrent_files", "select_files", args,
			func(ctx context.Context, accessToken string) (json.RawMessage, error) {
				return sc.Debrid().SelectFiles(ctx, accessToken, torrentID, files)
			})
	})

	deleteTool := mcp.NewTool("delete_torrent",
		mcp.WithDescription("Delete a torrent from the user's list"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID from OAuth"),
		),
		mcp.WithString("torrent_id",
			mcp.Required(),
			mcp.Description("The ID of the torrent to delete"),
		),
	)

	s.AddTool(deleteTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})

		torrentID, ok := args["torrent_id"].(string)
		if !ok || torrentID == "" {
			return mcp.NewToolResultError("torrent_id is required"), nil
		}

		return apiCall(ctx, sc, "delete_torrent", "delete_torrent", args,
			func(ctx context.Context, accessToken string) (json.RawMessage, error) {
				return sc.Debrid().DeleteTorrent(ctx, accessToken, torrentID)
			})
	})
}

// registerDownloadTools registers download history tools.
func registerDownloadTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	downloadsTool := mcp.NewTool("list_downloads",
		mcp.WithDescription("List the user's previous downloads"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID from OAuth"),
		),
	)

	s.AddTool(downloadsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]interface{})
		return apiCall(ctx, sc, "list_downloads", "downloads", args,
			func(ctx context.Context, accessToken string) (json.RawMessage, error) {
				return sc.Debrid().Downloads(ctx, accessToken)
			})
	})
}
