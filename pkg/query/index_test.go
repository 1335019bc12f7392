package query

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzerp/globalsearch/pkg/model"
)

func TestCompileIndex_BoostedMultiMatch(t *testing.T) {
	body := CompileIndex(model.SearchRequest{Query: "acier", Limit: 10}, nil)

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]map[string]interface{})
	require.Len(t, must, 1)

	mm := must[0]["multi_match"].(map[string]interface{})
	assert.Equal(t, "acier", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
	assert.Equal(t, 2, mm["prefix_length"])
	assert.Equal(t, []string{"title^3", "description^2", "tags^2", "metadata.*"}, mm["fields"])
}

func TestCompileIndex_AccessFiltersMatchOrAbsent(t *testing.T) {
	body := CompileIndex(model.SearchRequest{
		Query:             "acier",
		TenantID:          "t1",
		CallerRoles:       []string{"sales"},
		CallerPermissions: []string{"articles.read"},
		Limit:             10,
	}, []string{"article"})

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	s := string(raw)

	// Each access filter must accept documents where the field is absent,
	// so unscoped legacy documents remain visible.
	assert.Contains(t, s, `"tenant_id":["t1"]`)
	assert.Contains(t, s, `"access_roles":["sales"]`)
	assert.Contains(t, s, `"access_permissions":["articles.read"]`)
	assert.Equal(t, 3, strings.Count(s, `"exists"`))
}

func TestCompileIndex_TypeFilterSorted(t *testing.T) {
	body := CompileIndex(model.SearchRequest{Query: "x", Limit: 10}, []string{"supplier", "article"})

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filter := boolQuery["filter"].([]map[string]interface{})
	require.NotEmpty(t, filter)

	terms := filter[0]["terms"].(map[string]interface{})
	assert.Equal(t, []string{"article", "supplier"}, terms["type"])
}

func TestCompileIndex_PaginationAndHighlight(t *testing.T) {
	body := CompileIndex(model.SearchRequest{Query: "x", Limit: 25, Offset: 50}, nil)

	assert.Equal(t, 50, body["from"])
	assert.Equal(t, 25, body["size"])

	highlight := body["highlight"].(map[string]interface{})
	assert.Equal(t, []string{"<em>"}, highlight["pre_tags"])

	aggs := body["aggs"].(map[string]interface{})
	types := aggs["types"].(map[string]interface{})["terms"].(map[string]interface{})
	assert.Equal(t, "type", types["field"])
}

func TestCompileIndex_SpellingSuggester(t *testing.T) {
	body := CompileIndex(model.SearchRequest{Query: "acir", Limit: 10}, nil)

	suggest := body["suggest"].(map[string]interface{})
	assert.Equal(t, "acir", suggest["text"])

	spelling := suggest["spelling"].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "title", spelling["field"])
}

func TestCompileIndex_ExplicitSort(t *testing.T) {
	body := CompileIndex(model.SearchRequest{
		Query:     "x",
		Limit:     10,
		SortBy:    "title",
		SortOrder: model.SortDesc,
	}, nil)

	sortSpec := body["sort"].([]map[string]interface{})
	require.Len(t, sortSpec, 1)
	assert.Equal(t, map[string]interface{}{"order": "desc"}, sortSpec[0]["title"])
}
