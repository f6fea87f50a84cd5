// Package morgen is a typed client for the Morgen v3 API.
//
// The client layers three concerns that the rest of the program never sees
// separately: credential resolution (bearer negotiation with API-key
// fallback), rate-limit retries driven by the server's Retry-After hint, and
// a file-backed response cache with per-resource TTLs and prefix
// invalidation on writes.
//
// Multi-source task aggregation lives here too: ListAllTasks merges the
// native task backend with every connected task integration, and EnrichTasks
// normalizes the per-integration label vocabulary into flat source metadata.
package morgen
