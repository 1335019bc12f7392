// Package model defines the shared shapes of the global search core: the
// search request/response contract, the canonical indexable document, and the
// domain change events consumed by cache invalidation. All other packages
// depend on this one; it depends on nothing.
package model
