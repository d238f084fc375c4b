// Package httpcache provides a fixed-capacity cache that persists entries to
// a remote HTTP endpoint keyed by integer index.
//
// Entry i lives at <base URL><i>: Put issues an HTTP PUT and succeeds only
// on status 201, Get issues a GET where 200 is a hit and 404 a miss. Network
// failures and unexpected statuses are logged as warnings and surfaced as
// boolean failure or absence, never as errors; the cache is a best-effort
// acceleration layer, not a durable store. A miss and a transport failure
// are indistinguishable to the caller.
//
// The base URL carries no user or dataset discriminator of its own: two
// caches sharing a URL and overlapping index ranges collide by design, so
// include user and dataset in the URL.
//
// All requests flow through a process-wide ConnectionPool that detects
// forking and lazily rebuilds its pooled client rather than sharing a
// parent's connections. An optional bearer token is re-read from its file
// when more than a second has passed since the last refresh.
package httpcache
