// Package format normalizes raw backend responses into the canonical result
// shape: index hits are copied through with the engine's relevance score,
// relational rows are scored by field weight and match quality, and all
// free-text output is sanitized against markup injection regardless of which
// backend produced it.
package format
