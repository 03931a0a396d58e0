// Package logging provides structured logging utilities for the debrid-mcp
// application.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Credential sanitization (session id hashing, token masking)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "oauth.refresh")
//	logger.Info("token refreshed",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("session resolved",
//	    logging.SessionHash(sessionID))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - Session ids are hashed to prevent credential leakage while allowing correlation
//   - Tokens are never logged directly
package logging
