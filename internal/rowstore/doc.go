// Package rowstore defines the row-store client the core is written against,
// plus a SQLite implementation of it.
//
// The client is deliberately opaque: callers see tables of rows and filter
// predicates, not typed queries. This mirrors the hosted database client the
// mobile app talks to in production, so every layer above (queue handlers,
// the reconciler) can run unchanged against either the hosted service or the
// local SQLite database used by the CLI and tests.
//
// All failures surface as *RemoteError so callers can treat them uniformly
// as transient remote failures (retry-eligible, queue-eligible).
package rowstore
