package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/registry"
)

// fakeIndexClient is an in-memory IndexClient for tests.
type fakeIndexClient struct {
	docs       map[string]model.SearchDocument
	searchResp *model.IndexSearchResult
	searchErr  error
	pingErr    error
	lastBody   map[string]interface{}
}

func newFakeIndexClient() *fakeIndexClient {
	return &fakeIndexClient{docs: make(map[string]model.SearchDocument)}
}

func (c *fakeIndexClient) Search(_ context.Context, body map[string]interface{}) (*model.IndexSearchResult, error) {
	c.lastBody = body
	if c.searchErr != nil {
		return nil, c.searchErr
	}
	if c.searchResp != nil {
		return c.searchResp, nil
	}
	return &model.IndexSearchResult{}, nil
}

func (c *fakeIndexClient) Index(_ context.Context, docType, id string, doc model.SearchDocument) error {
	c.docs[docType+"/"+id] = doc
	return nil
}

func (c *fakeIndexClient) Delete(_ context.Context, docType, id string) error {
	key := docType + "/" + id
	if _, ok := c.docs[key]; !ok {
		return ErrNotFound
	}
	delete(c.docs, key)
	return nil
}

func (c *fakeIndexClient) Ping(_ context.Context) error { return c.pingErr }

func TestIndexEngineSearch_NormalizesHits(t *testing.T) {
	client := newFakeIndexClient()
	client.searchResp = &model.IndexSearchResult{
		Hits: []model.IndexHit{
			{
				Score: 9.2,
				Document: model.SearchDocument{
					ID:    "42",
					Type:  "article",
					Title: "Plaque acier",
				},
				Highlights: map[string][]string{"title": {"Plaque <em>acier</em>"}},
			},
			{
				Score: 3.1,
				Document: model.SearchDocument{
					ID:    "7",
					Type:  "customer",
					Title: "Aciers Dupont",
				},
			},
		},
		Total:  2,
		Facets: map[string]int{"article": 1, "customer": 1},
	}

	reg := registry.Default()
	s := NewIndexEngineStrategy(client, reg)

	resp, err := s.Search(context.Background(), model.SearchRequest{Query: "acier", Limit: 10},
		reg.Enabled())
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, EngineIndex, resp.EngineUsed)
	assert.Equal(t, 9.2, resp.Results[0].Score)
	assert.Equal(t, "/articles/42", resp.Results[0].URL)
	assert.Equal(t, "Plaque <em>acier</em>", resp.Results[0].Highlight)
	assert.Equal(t, map[string]int{"article": 1, "customer": 1}, resp.Facets)
}

func TestIndexEngineSearch_CompilesEntityTypeFilter(t *testing.T) {
	client := newFakeIndexClient()
	reg := registry.Default()
	s := NewIndexEngineStrategy(client, reg)

	_, err := s.Search(context.Background(), model.SearchRequest{Query: "x", Limit: 10},
		[]*registry.EntityDescriptor{reg.ByType("article")})
	require.NoError(t, err)
	require.NotNil(t, client.lastBody)

	boolQuery := client.lastBody["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filter := boolQuery["filter"].([]map[string]interface{})
	require.NotEmpty(t, filter)
	assert.Equal(t, []string{"article"}, filter[0]["terms"].(map[string]interface{})["type"])
}

func TestIndexEngineSearch_PropagatesEngineError(t *testing.T) {
	client := newFakeIndexClient()
	client.searchErr = errors.New("connection refused")

	s := NewIndexEngineStrategy(client, registry.Default())
	_, err := s.Search(context.Background(), model.SearchRequest{Query: "x", Limit: 10}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index search failed")
}

func TestIndexEngineIsAvailable(t *testing.T) {
	healthy := newFakeIndexClient()
	assert.True(t, NewIndexEngineStrategy(healthy, registry.Default()).IsAvailable(context.Background()))

	down := newFakeIndexClient()
	down.pingErr = errors.New("connection refused")
	assert.False(t, NewIndexEngineStrategy(down, registry.Default()).IsAvailable(context.Background()))

	assert.False(t, NewIndexEngineStrategy(nil, registry.Default()).IsAvailable(context.Background()))
}

func TestDeleteDocument_IdempotentOnMissing(t *testing.T) {
	client := newFakeIndexClient()
	s := NewIndexEngineStrategy(client, registry.Default())
	ctx := context.Background()

	require.NoError(t, s.IndexDocument(ctx, "article", "42", model.SearchDocument{ID: "42", Type: "article"}))

	// First delete removes the document, the second finds nothing; both
	// must succeed.
	require.NoError(t, s.DeleteDocument(ctx, "article", "42"))
	require.NoError(t, s.DeleteDocument(ctx, "article", "42"))
}
