// Package oauth implements the Real-Debrid OAuth device-code flow.
//
// The flow has three stages, each an independent stateless call:
//
//  1. StartDeviceAuth requests a device code with a publicly known client id,
//     asking the server to issue fresh per-device credentials.
//  2. PollCredentials retrieves the per-device client id/secret once the user
//     has approved the code at the verification URL.
//  3. ExchangeCode trades the device code for an access/refresh token pair
//     using those per-device credentials.
//
// Refresh mints a new token pair later, reusing the same device grant type
// with the refresh token substituted for the device code (the upstream's
// observed contract).
//
// "Not yet approved" is a normal outcome of stages 2 and 3 and is reported as
// ErrAuthorizationPending, never as a failure. The client holds no state
// between calls; abandoned attempts simply expire upstream.
package oauth
