package format

import (
	"sort"
	"strings"

	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/registry"
)

// Match-quality levels for relational scoring. Exact beats prefix beats
// substring; a non-matching field contributes nothing.
const (
	qualityExact     = 10
	qualityPrefix    = 7
	qualitySubstring = 4
)

// FromHit normalizes one index-engine hit. Fields are copied 1:1 from the
// stored document and the score is the engine's computed relevance.
func FromHit(hit model.IndexHit, d *registry.EntityDescriptor) model.SearchResult {
	doc := hit.Document
	result := model.SearchResult{
		Type:        doc.Type,
		ID:          doc.ID,
		Title:       Sanitize(doc.Title),
		Description: Sanitize(doc.Description),
		Metadata:    doc.Metadata,
		Score:       hit.Score,
	}
	if d != nil {
		result.Icon = d.Icon
		result.URL = strings.ReplaceAll(d.URLTemplate, "{id}", doc.ID)
	}
	if fragments, ok := hit.Highlights["title"]; ok && len(fragments) > 0 {
		result.Highlight = Sanitize(fragments[0])
	} else if fragments, ok := hit.Highlights["description"]; ok && len(fragments) > 0 {
		result.Highlight = Sanitize(fragments[0])
	}
	return result
}

// FromRecord normalizes one relational row and computes its relevance:
// the weighted sum of per-field match quality over the primary and secondary
// groups, plus twice the entity's priority.
func FromRecord(d *registry.EntityDescriptor, rec Record, query string) model.SearchResult {
	return model.SearchResult{
		Type:        d.Type,
		ID:          rec.ID(d),
		Title:       Sanitize(DeriveTitle(d, rec)),
		Description: Sanitize(DeriveDescription(d, rec)),
		URL:         ExpandURL(d, rec),
		Icon:        d.Icon,
		Metadata:    DeriveMetadata(d, rec),
		Score:       ScoreRecord(d, rec, query),
	}
}

// ScoreRecord computes the relational relevance score for a row.
func ScoreRecord(d *registry.EntityDescriptor, rec Record, query string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	score := 0.0
	for _, f := range d.Fields.Primary {
		score += float64(f.Weight * matchQuality(stringValue(rec[f.Name]), q))
	}
	for _, f := range d.Fields.Secondary {
		score += float64(f.Weight * matchQuality(stringValue(rec[f.Name]), q))
	}
	return score + float64(d.Priority*2)
}

func matchQuality(value, query string) int {
	if value == "" || query == "" {
		return 0
	}
	v := strings.ToLower(value)
	switch {
	case v == query:
		return qualityExact
	case strings.HasPrefix(v, query):
		return qualityPrefix
	case strings.Contains(v, query):
		return qualitySubstring
	default:
		return 0
	}
}

// SortByScore orders results by descending score. The sort is stable so
// same-score results keep their backend order.
func SortByScore(results []model.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// Paginate applies offset/limit to an already-sorted result slice.
func Paginate(results []model.SearchResult, offset, limit int) []model.SearchResult {
	if offset >= len(results) {
		return []model.SearchResult{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}
