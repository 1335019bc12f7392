package model

import "time"

// Default and maximum pagination bounds applied to every request.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// SortOrder is the direction of an explicit sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SearchRequest is a unified search query across one or more entity types.
// EntityTypes empty means "every entity the caller may see".
type SearchRequest struct {
	Query             string            `json:"query"`
	EntityTypes       []string          `json:"entity_types,omitempty"`
	Limit             int               `json:"limit"`
	Offset            int               `json:"offset"`
	TenantID          string            `json:"tenant_id,omitempty"`
	CallerRoles       []string          `json:"caller_roles,omitempty"`
	CallerPermissions []string          `json:"caller_permissions,omitempty"`
	Filters           map[string]string `json:"filters,omitempty"`
	SortBy            string            `json:"sort_by,omitempty"`
	SortOrder         SortOrder         `json:"sort_order,omitempty"`
}

// Normalize applies pagination defaults and bounds in place.
func (r *SearchRequest) Normalize() {
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
}

// SearchResult is one normalized hit, regardless of which backend produced it.
// Score is comparable within a single response but never across backends.
type SearchResult struct {
	Type        string                 `json:"type"`
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	URL         string                 `json:"url,omitempty"`
	Icon        string                 `json:"icon,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Score       float64                `json:"score"`
	Highlight   string                 `json:"highlight,omitempty"`
}

// SearchResponse is the ordered result set returned to callers. Results are
// sorted by descending score.
type SearchResponse struct {
	Results     []SearchResult `json:"results"`
	Total       int            `json:"total"`
	ElapsedMs   int64          `json:"elapsed_ms"`
	EngineUsed  string         `json:"engine_used"`
	Suggestions []string       `json:"suggestions,omitempty"`
	Facets      map[string]int `json:"facets,omitempty"`
}

// Clone returns a deep copy of the response. Cached responses are shared
// across requests, so every caller gets its own copy to mutate.
func (r *SearchResponse) Clone() *SearchResponse {
	if r == nil {
		return nil
	}
	out := *r
	if r.Results != nil {
		out.Results = make([]SearchResult, len(r.Results))
		for i, res := range r.Results {
			out.Results[i] = res
			if res.Metadata != nil {
				md := make(map[string]interface{}, len(res.Metadata))
				for k, v := range res.Metadata {
					md[k] = v
				}
				out.Results[i].Metadata = md
			}
		}
	}
	if r.Suggestions != nil {
		out.Suggestions = append([]string(nil), r.Suggestions...)
	}
	if r.Facets != nil {
		facets := make(map[string]int, len(r.Facets))
		for k, v := range r.Facets {
			facets[k] = v
		}
		out.Facets = facets
	}
	return &out
}

// SearchDocument is the canonical payload stored in the inverted index. It is
// produced by the indexing pipeline using the same title/description
// derivation rules the relational compiler selects fields by, so both
// backends stay semantically aligned per entity type.
type SearchDocument struct {
	ID                string                 `json:"id"`
	Type              string                 `json:"type"`
	TenantID          string                 `json:"tenant_id,omitempty"`
	Title             string                 `json:"title"`
	Description       string                 `json:"description,omitempty"`
	Tags              []string               `json:"tags,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	AccessRoles       []string               `json:"access_roles,omitempty"`
	AccessPermissions []string               `json:"access_permissions,omitempty"`
	IndexedAt         time.Time              `json:"indexed_at,omitempty"`
}
