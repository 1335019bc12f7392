// Package search orchestrates query execution across the configured
// backends.
//
// # Overview
//
// The Service resolves which entity types the caller may search, consults
// the cache, and executes the query against the active strategy. An index
// engine is preferred when one is configured and reachable at startup;
// otherwise the relational fallback serves all traffic.
//
// # Fallback
//
// When a live index query fails, the request is retried once against the
// relational backend and the index engine is demoted for the remainder of
// the process lifetime. Recovery requires a restart, which re-runs the
// startup probe. A request only fails when both backends are unavailable.
//
// # Events
//
// HandleDomainEvent translates published entity change events into cache
// invalidations via the invalidation service.
package search
