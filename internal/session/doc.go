// Package session holds per-session OAuth credentials in memory and keeps
// their access tokens valid.
//
// The Store maps opaque session ids to sessions. It is the only shared
// mutable state in the server: every tool call resolves its session here, and
// all mutation goes through Create/UpdateTokens, which are internally
// synchronized. Reads return copies, so the access-token/refresh-token/expiry
// triple is always observed consistently.
//
// The Refresher implements the lazy refresh policy: tokens are refreshed on
// first use at or after their expiry, not by a background timer. Concurrent
// refreshes for the same session are collapsed into one upstream call with
// singleflight and the result shared between callers.
//
// Two population strategies exist behind the same store: sessions created by
// the OAuth device flow, and a single static-token session seeded at startup
// (SeedStatic). Nothing is persisted; a process restart drops all sessions.
package session
