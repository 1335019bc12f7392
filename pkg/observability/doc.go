// Package observability bundles the cross-cutting runtime concerns of the
// search service: structured JSON logging, Prometheus metrics, dependency
// health checks, and graceful shutdown.
package observability
