// Package auth_tools provides the MCP tools for Real-Debrid authentication.
//
// This package implements the OAuth device code flow as two MCP tools:
//
//   - oauth_start: request a device code and user code from Real-Debrid;
//     the user enters the code at real-debrid.com/device
//   - oauth_check: poll for user approval; while the user has not approved
//     the tool returns {status: pending}, once approved it exchanges the
//     device code for tokens and returns {status: authorized, session_id}
//
// The returned session id is the handle all other tools require. Pending is
// an expected status during the flow and is never reported as a tool error.
package auth_tools
