// Package strategy implements the two search backends behind the global
// search orchestrator: the inverted-index engine strategy and the relational
// substring-search strategy. Both satisfy the Strategy interface; the index
// strategy additionally implements DocumentIndexer. Fallback between the two
// is the orchestrator's job, not this package's.
package strategy
