package cache

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/observability"
	"github.com/quartzerp/globalsearch/pkg/registry"
)

func testCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	c, err := New(client, registry.Default(), logger, nil, Options{})
	require.NoError(t, err)
	return c, mr
}

// putSync stores an entry through the same write path Put uses, but
// synchronously so tests can assert on store state immediately.
func putSync(c *Cache, req model.SearchRequest, resp *model.SearchResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		panic(err)
	}
	key := Key(req)
	c.l1.Add(key, l1Entry{response: resp.Clone(), expiresAt: time.Now().Add(c.TTLFor(req.EntityTypes))})
	c.write(context.Background(), key, data, c.scopeKeys(req), c.TTLFor(req.EntityTypes))
}

func TestKey_DeterministicAcrossOrdering(t *testing.T) {
	a := model.SearchRequest{
		Query:             "  Acier ",
		EntityTypes:       []string{"article", "customer"},
		CallerRoles:       []string{"sales", "admin"},
		CallerPermissions: []string{"articles.read", "customers.read"},
		Filters:           map[string]string{"family": "steel", "status": "active"},
		Limit:             10,
		TenantID:          "t1",
	}
	b := model.SearchRequest{
		Query:             "acier",
		EntityTypes:       []string{"customer", "article"},
		CallerRoles:       []string{"admin", "sales"},
		CallerPermissions: []string{"customers.read", "articles.read"},
		Filters:           map[string]string{"status": "active", "family": "steel"},
		Limit:             10,
		TenantID:          "t1",
	}

	assert.Equal(t, Key(a), Key(b))
}

func TestKey_TenantsNeverCollide(t *testing.T) {
	a := model.SearchRequest{Query: "acier", Limit: 10, TenantID: "t1"}
	b := model.SearchRequest{Query: "acier", Limit: 10, TenantID: "t2"}

	assert.NotEqual(t, Key(a), Key(b))
	assert.Contains(t, Key(a), "t1:")
}

func TestKey_PaginationAffectsIdentity(t *testing.T) {
	a := model.SearchRequest{Query: "acier", Limit: 10, TenantID: "t1"}
	b := model.SearchRequest{Query: "acier", Limit: 10, Offset: 10, TenantID: "t1"}
	c := model.SearchRequest{Query: "acier", Limit: 20, TenantID: "t1"}

	assert.NotEqual(t, Key(a), Key(b))
	assert.NotEqual(t, Key(a), Key(c))
}

func TestTTLFor_MinimumRule(t *testing.T) {
	c, _ := testCache(t)

	// article is 10m, order is 1m: the most volatile entity wins.
	assert.Equal(t, time.Minute, c.TTLFor([]string{"article", "order"}))
	assert.Equal(t, 10*time.Minute, c.TTLFor([]string{"article"}))

	// No types or only unknown types: global default.
	assert.Equal(t, DefaultTTL, c.TTLFor(nil))
	assert.Equal(t, DefaultTTL, c.TTLFor([]string{"unknown"}))
}

func TestCache_GetPutRoundTrip(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	req := model.SearchRequest{Query: "acier", Limit: 10, TenantID: "t1", EntityTypes: []string{"article"}}
	resp := &model.SearchResponse{
		Results:    []model.SearchResult{{Type: "article", ID: "1", Title: "acier", Score: 118}},
		Total:      1,
		EngineUsed: "relational",
	}

	_, ok := c.Get(ctx, req)
	require.False(t, ok)

	putSync(c, req, resp)

	got, ok := c.Get(ctx, req)
	require.True(t, ok)
	assert.Equal(t, resp.Results, got.Results)
	assert.Equal(t, "relational", got.EngineUsed)

	// Drop L1 to force the redis path.
	c.l1.Purge()
	got, ok = c.Get(ctx, req)
	require.True(t, ok)
	assert.Equal(t, 1, got.Total)
}

func TestCache_InvalidateScope(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	articleReq := model.SearchRequest{Query: "acier", Limit: 10, TenantID: "t1", EntityTypes: []string{"article"}}
	orderReq := model.SearchRequest{Query: "cmd-42", Limit: 10, TenantID: "t1", EntityTypes: []string{"order"}}
	putSync(c, articleReq, &model.SearchResponse{Total: 1})
	putSync(c, orderReq, &model.SearchResponse{Total: 2})

	removed, err := c.InvalidateScope(ctx, "t1", "article")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok := c.Get(ctx, articleReq)
	assert.False(t, ok)

	// The order scope is untouched.
	got, ok := c.Get(ctx, orderReq)
	require.True(t, ok)
	assert.Equal(t, 2, got.Total)
}

func TestCache_InvalidateScopeCoversUnscopedRequests(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	// No explicit entity types: the entry spans every enabled entity, so an
	// article change must clear it.
	req := model.SearchRequest{Query: "acier", Limit: 10, TenantID: "t1"}
	putSync(c, req, &model.SearchResponse{Total: 3})

	removed, err := c.InvalidateScope(ctx, "t1", "article")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok := c.Get(ctx, req)
	assert.False(t, ok)
}

func TestCache_InvalidateTenantIsolation(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	t1 := model.SearchRequest{Query: "acier", Limit: 10, TenantID: "t1", EntityTypes: []string{"article"}}
	t2 := model.SearchRequest{Query: "acier", Limit: 10, TenantID: "t2", EntityTypes: []string{"article"}}
	putSync(c, t1, &model.SearchResponse{Total: 1})
	putSync(c, t2, &model.SearchResponse{Total: 2})

	removed, err := c.InvalidateTenant(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok := c.Get(ctx, t1)
	assert.False(t, ok)

	got, ok := c.Get(ctx, t2)
	require.True(t, ok)
	assert.Equal(t, 2, got.Total)
}

func TestCache_TTLExpiry(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()

	req := model.SearchRequest{Query: "cmd-42", Limit: 10, TenantID: "t1", EntityTypes: []string{"order"}}
	putSync(c, req, &model.SearchResponse{Total: 1})

	c.l1.Purge()
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, req)
	assert.False(t, ok)
}

func TestCache_CorruptEntryIsDropped(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()

	req := model.SearchRequest{Query: "acier", Limit: 10, TenantID: "t1"}
	require.NoError(t, mr.Set(Key(req), "{not json"))

	_, ok := c.Get(ctx, req)
	assert.False(t, ok)
	assert.False(t, mr.Exists(Key(req)))
}

func TestStats_HitRateAndReset(t *testing.T) {
	s := NewStats(0)
	s.RecordHit()
	s.RecordHit()
	s.RecordHit()
	s.RecordMiss()

	snap := s.Snapshot()
	assert.Equal(t, int64(3), snap.Hits)
	assert.Equal(t, int64(1), snap.Misses)
	assert.InDelta(t, 0.75, snap.HitRate, 1e-9)

	s.Reset()
	snap = s.Snapshot()
	assert.Zero(t, snap.Hits)
	assert.Zero(t, snap.Misses)
	assert.Zero(t, snap.HitRate)
}

func TestStats_PopularQueriesPruned(t *testing.T) {
	s := NewStats(2)

	// "acier" is the clear leader, "inox" second.
	for i := 0; i < 5; i++ {
		s.RecordQuery("t1", "acier")
	}
	for i := 0; i < 3; i++ {
		s.RecordQuery("t1", "inox")
	}
	s.RecordQuery("t1", "cuivre")
	s.RecordQuery("t1", "laiton")
	s.RecordQuery("t1", "zinc") // exceeds 2x the limit, triggers pruning

	top := s.PopularQueries("t1", 10)
	require.Len(t, top, 2)
	assert.Equal(t, QueryCount{Query: "acier", Count: 5}, top[0])
	assert.Equal(t, QueryCount{Query: "inox", Count: 3}, top[1])

	// Tenants do not share tables.
	assert.Empty(t, s.PopularQueries("t2", 10))
}

func TestGet_HitsAreIndependentCopies(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	req := model.SearchRequest{Query: "acier", EntityTypes: []string{"article"}, Limit: 10, TenantID: "t1"}
	putSync(c, req, &model.SearchResponse{
		Results: []model.SearchResult{{
			Type:     "article",
			ID:       "1",
			Title:    "Acier brut",
			Metadata: map[string]interface{}{"family": "steel"},
		}},
		Total:      1,
		EngineUsed: "index",
	})

	first, ok := c.Get(ctx, req)
	require.True(t, ok)

	// Mutating one hit must never leak into the cached entry or later hits.
	first.ElapsedMs = 99
	first.Results[0].Title = "mutated"
	first.Results[0].Metadata["family"] = "mutated"

	second, ok := c.Get(ctx, req)
	require.True(t, ok)
	assert.Zero(t, second.ElapsedMs)
	assert.Equal(t, "Acier brut", second.Results[0].Title)
	assert.Equal(t, "steel", second.Results[0].Metadata["family"])
}

func TestPut_CallerKeepsOwnershipOfResponse(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()

	req := model.SearchRequest{Query: "inox", EntityTypes: []string{"article"}, Limit: 10, TenantID: "t1"}
	resp := &model.SearchResponse{
		Results: []model.SearchResult{{Type: "article", ID: "2", Title: "Inox 304"}},
		Total:   1,
	}
	putSync(c, req, resp)

	// The caller may keep mutating its response after the write.
	resp.Results[0].Title = "mutated"

	cached, ok := c.Get(ctx, req)
	require.True(t, ok)
	assert.Equal(t, "Inox 304", cached.Results[0].Title)
}
