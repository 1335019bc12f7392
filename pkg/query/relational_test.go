package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/registry"
)

func articleDescriptor() *registry.EntityDescriptor {
	return &registry.EntityDescriptor{
		Type:         "article",
		Database:     "erp",
		Table:        "articles",
		IDColumn:     "id",
		TenantColumn: "tenant_id",
		Fields: registry.FieldGroups{
			Primary: []registry.Field{
				{Name: "reference", Weight: 10, Kind: registry.KindKeyword},
				{Name: "label", Weight: 9, Kind: registry.KindText},
			},
			Secondary: []registry.Field{
				{Name: "description", Weight: 5, Kind: registry.KindText},
			},
			Metadata: []registry.Field{
				{Name: "unit_price", Weight: 1, Kind: registry.KindNumeric},
			},
		},
		Priority: 9,
		Enabled:  true,
	}
}

func TestCompileRelational_SelectsAllDeclaredColumns(t *testing.T) {
	q, err := CompileRelational(articleDescriptor(), model.SearchRequest{Query: "acier"})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "reference", "label", "description", "unit_price"}, q.Columns)
	assert.Contains(t, q.SQL, "SELECT id, reference, label, description, unit_price FROM articles")
}

func TestCompileRelational_PredicatePerMatchField(t *testing.T) {
	q, err := CompileRelational(articleDescriptor(), model.SearchRequest{Query: " Acier "})
	require.NoError(t, err)

	// One LIKE predicate per primary/secondary text or keyword field; the
	// numeric metadata field gets none.
	assert.Contains(t, q.SQL, "LOWER(reference) LIKE $1")
	assert.Contains(t, q.SQL, "LOWER(label) LIKE $2")
	assert.Contains(t, q.SQL, "LOWER(description) LIKE $3")
	assert.NotContains(t, q.SQL, "unit_price) LIKE")

	// Query text is lower-cased and trimmed into the pattern.
	require.Len(t, q.Args, 3)
	for _, arg := range q.Args {
		assert.Equal(t, "%acier%", arg)
	}
}

func TestCompileRelational_EscapesLikeWildcards(t *testing.T) {
	q, err := CompileRelational(articleDescriptor(), model.SearchRequest{Query: `100%_a\b`})
	require.NoError(t, err)

	// "%" and "_" in the query are literals, not wildcards.
	assert.Equal(t, `%100\%\_a\\b%`, q.Args[0])
	assert.Contains(t, q.SQL, `ESCAPE '\'`)
}

func TestCompileRelational_TenantPredicate(t *testing.T) {
	q, err := CompileRelational(articleDescriptor(), model.SearchRequest{Query: "acier", TenantID: "t1"})
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "AND tenant_id = $4")
	assert.Equal(t, "t1", q.Args[3])
}

func TestCompileRelational_NoTenantPredicateWhenUnscoped(t *testing.T) {
	d := articleDescriptor()
	d.TenantColumn = ""

	q, err := CompileRelational(d, model.SearchRequest{Query: "acier", TenantID: "t1"})
	require.NoError(t, err)
	assert.NotContains(t, q.SQL, "tenant_id")
}

func TestCompileRelational_StaticFilters(t *testing.T) {
	d := articleDescriptor()
	d.Table = "partners"
	d.StaticFilters = map[string]string{"partner_type": "customer"}

	q, err := CompileRelational(d, model.SearchRequest{Query: "dupont"})
	require.NoError(t, err)

	assert.Contains(t, q.SQL, "AND partner_type = $4")
	assert.Equal(t, "customer", q.Args[3])
}

func TestCompileRelational_HardRowCeiling(t *testing.T) {
	// The per-entity ceiling stays fixed no matter what the request asks for.
	q, err := CompileRelational(articleDescriptor(), model.SearchRequest{Query: "acier", Limit: 100})
	require.NoError(t, err)
	assert.Contains(t, q.SQL, fmt.Sprintf("LIMIT %d", RelationalRowLimit))
}

func TestCompileRelational_NoSearchableFields(t *testing.T) {
	d := &registry.EntityDescriptor{
		Type:  "counter",
		Table: "counters",
		Fields: registry.FieldGroups{
			Primary: []registry.Field{{Name: "value", Weight: 1, Kind: registry.KindNumeric}},
		},
	}
	_, err := CompileRelational(d, model.SearchRequest{Query: "x"})
	require.Error(t, err)
}
