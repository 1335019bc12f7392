package query

import (
	"sort"

	"github.com/quartzerp/globalsearch/pkg/model"
)

// Boosts applied per document field group: title is primary, description and
// tags secondary, metadata unboosted.
var indexMatchFields = []string{"title^3", "description^2", "tags^2", "metadata.*"}

// CompileIndex builds the inverted-index query body for a request: a boosted
// multi-field fuzzy match with access filters, a highlight spec, a terms
// aggregation on the document type, and a term suggester on the title for
// "did you mean" corrections. Tenant, role and permission filters use
// match-or-field-absent semantics so legacy documents indexed without access
// scoping stay visible.
func CompileIndex(req model.SearchRequest, entityTypes []string) map[string]interface{} {
	must := []map[string]interface{}{
		{
			"multi_match": map[string]interface{}{
				"query":         req.Query,
				"fields":        indexMatchFields,
				"fuzziness":     "AUTO",
				"prefix_length": 2,
			},
		},
	}

	filter := make([]map[string]interface{}, 0, 4)
	if len(entityTypes) > 0 {
		sorted := append([]string(nil), entityTypes...)
		sort.Strings(sorted)
		filter = append(filter, map[string]interface{}{
			"terms": map[string]interface{}{"type": sorted},
		})
	}
	if req.TenantID != "" {
		filter = append(filter, matchOrAbsent("tenant_id", []string{req.TenantID}))
	}
	if len(req.CallerRoles) > 0 {
		filter = append(filter, matchOrAbsent("access_roles", req.CallerRoles))
	}
	if len(req.CallerPermissions) > 0 {
		filter = append(filter, matchOrAbsent("access_permissions", req.CallerPermissions))
	}
	for _, key := range sortedKeys(req.Filters) {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"metadata." + key: req.Filters[key]},
		})
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
		"from": req.Offset,
		"size": req.Limit,
		"highlight": map[string]interface{}{
			"pre_tags":  []string{"<em>"},
			"post_tags": []string{"</em>"},
			"fields": map[string]interface{}{
				"title":       map[string]interface{}{},
				"description": map[string]interface{}{},
			},
		},
		"aggs": map[string]interface{}{
			"types": map[string]interface{}{
				"terms": map[string]interface{}{"field": "type"},
			},
		},
		"suggest": map[string]interface{}{
			"text": req.Query,
			"spelling": map[string]interface{}{
				"term": map[string]interface{}{"field": "title"},
			},
		},
	}

	if req.SortBy != "" {
		order := "asc"
		if req.SortOrder == model.SortDesc {
			order = "desc"
		}
		body["sort"] = []map[string]interface{}{
			{req.SortBy: map[string]interface{}{"order": order}},
		}
	}

	return body
}

// matchOrAbsent builds a filter that accepts documents whose field matches one
// of the values or that carry no such field at all.
func matchOrAbsent(field string, values []string) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should": []map[string]interface{}{
				{"terms": map[string]interface{}{field: values}},
				{"bool": map[string]interface{}{
					"must_not": map[string]interface{}{
						"exists": map[string]interface{}{"field": field},
					},
				}},
			},
			"minimum_should_match": 1,
		},
	}
}
