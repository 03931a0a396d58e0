// Package debrid provides a client for the Real-Debrid REST API.
//
// The client is a transparent relay: response payloads are opaque JSON passed
// through to the caller unmodified. Only the outcome is normalized:
//
//   - empty-body success responses become a generic {"success": true} marker
//   - non-success statuses become an *APIError carrying the upstream's
//     error message and code
//   - transport failures become an *UnavailableError, distinct from APIError,
//     so callers can tell "upstream rejected" from "upstream unreachable"
//
// Every call takes the bearer access token explicitly; token lifecycle is the
// session package's concern.
package debrid
