// Package query compiles a raw search request into backend-specific queries:
// a parameterized SQL statement for the relational fallback, or a JSON query
// body for the inverted-index engine. The compilers share the entity
// registry's field-group weights so both backends rank the same fields.
package query
