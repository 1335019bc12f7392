package model

// IndexHit is one raw hit returned by the inverted-index engine.
type IndexHit struct {
	Score      float64             `json:"score"`
	Document   SearchDocument      `json:"document"`
	Highlights map[string][]string `json:"highlights,omitempty"`
}

// IndexSearchResult is the raw engine response before normalization.
type IndexSearchResult struct {
	Hits        []IndexHit     `json:"hits"`
	Total       int            `json:"total"`
	Facets      map[string]int `json:"facets,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
}
