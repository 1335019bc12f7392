package strategy

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3" // SQLite stands in for PostgreSQL in tests

	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/observability"
	"github.com/quartzerp/globalsearch/pkg/registry"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

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
			},
			Secondary: []registry.Field{
				{Name: "description", Weight: 5, Kind: registry.KindText},
			},
		},
		URLTemplate: "/articles/{id}",
		Priority:    9,
		Enabled:     true,
	}
}

func setupArticlesDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE articles (
			id INTEGER PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			reference TEXT NOT NULL,
			description TEXT
		);
	`)
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO articles (id, tenant_id, reference, description) VALUES
			(1, 't1', 'acier', 'barre ronde'),
			(2, 't1', 'inox-304', 'tube en acier inoxydable'),
			(3, 't2', 'acier', 'stock autre tenant'),
			(4, 't1', 'cuivre', 'fil de cuivre');
	`)
	require.NoError(t, err)

	return db
}

func TestRelationalSearch_ExactMatchRanksFirst(t *testing.T) {
	db := setupArticlesDB(t)
	s := NewRelationalStrategy(db, testLogger())

	req := model.SearchRequest{
		Query:    "acier",
		Limit:    10,
		TenantID: "t1",
	}
	resp, err := s.Search(context.Background(), req, []*registry.EntityDescriptor{articleDescriptor()})
	require.NoError(t, err)

	// Row 1 matches "reference" exactly; row 2 only contains the query in
	// its description. The exact match must come first.
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "1", resp.Results[0].ID)
	assert.Equal(t, "2", resp.Results[1].ID)
	assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)
	assert.Equal(t, EngineRelational, resp.EngineUsed)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, map[string]int{"article": 2}, resp.Facets)
}

func TestRelationalSearch_TenantScoping(t *testing.T) {
	db := setupArticlesDB(t)
	s := NewRelationalStrategy(db, testLogger())

	resp, err := s.Search(context.Background(), model.SearchRequest{
		Query:    "acier",
		Limit:    10,
		TenantID: "t2",
	}, []*registry.EntityDescriptor{articleDescriptor()})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "3", resp.Results[0].ID)
}

func TestRelationalSearch_ScoreOrderingInvariant(t *testing.T) {
	db := setupArticlesDB(t)
	s := NewRelationalStrategy(db, testLogger())

	resp, err := s.Search(context.Background(), model.SearchRequest{
		Query:    "acier",
		Limit:    10,
		TenantID: "t1",
	}, []*registry.EntityDescriptor{articleDescriptor()})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	for i := 0; i < len(resp.Results)-1; i++ {
		assert.GreaterOrEqual(t, resp.Results[i].Score, resp.Results[i+1].Score)
	}
}

func TestRelationalSearch_WildcardQueryIsLiteral(t *testing.T) {
	db := setupArticlesDB(t)
	_, err := db.Exec(`INSERT INTO articles (id, tenant_id, reference, description) VALUES
		(5, 't1', 'coton-100', '100% coton')`)
	require.NoError(t, err)

	s := NewRelationalStrategy(db, testLogger())
	resp, err := s.Search(context.Background(), model.SearchRequest{
		Query:    "100%",
		Limit:    10,
		TenantID: "t1",
	}, []*registry.EntityDescriptor{articleDescriptor()})
	require.NoError(t, err)

	// "%" matches literally; an unescaped pattern would return every row.
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "5", resp.Results[0].ID)
}

func TestRelationalSearch_MissingTableIsSkipped(t *testing.T) {
	db := setupArticlesDB(t)
	s := NewRelationalStrategy(db, testLogger())

	ghost := articleDescriptor()
	ghost.Type = "phantom"
	ghost.Table = "phantoms"

	resp, err := s.Search(context.Background(), model.SearchRequest{
		Query:    "acier",
		Limit:    10,
		TenantID: "t1",
	}, []*registry.EntityDescriptor{ghost, articleDescriptor()})
	require.NoError(t, err)

	// The phantom entity is skipped; article results still come back.
	assert.Len(t, resp.Results, 2)
}

func TestRelationalSearch_Pagination(t *testing.T) {
	db := setupArticlesDB(t)
	s := NewRelationalStrategy(db, testLogger())

	resp, err := s.Search(context.Background(), model.SearchRequest{
		Query:    "acier",
		Limit:    1,
		Offset:   1,
		TenantID: "t1",
	}, []*registry.EntityDescriptor{articleDescriptor()})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "2", resp.Results[0].ID)
	assert.Equal(t, 2, resp.Total)
}

func TestRelationalSearch_QueryErrorFailsSearch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, reference, description FROM articles").
		WillReturnError(errors.New("connection reset by peer"))

	s := NewRelationalStrategy(db, testLogger())
	_, err = s.Search(context.Background(), model.SearchRequest{
		Query: "acier",
		Limit: 10,
	}, []*registry.EntityDescriptor{articleDescriptor()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to search entity article")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationalIsAvailable(t *testing.T) {
	db := setupArticlesDB(t)

	assert.True(t, NewRelationalStrategy(db, testLogger()).IsAvailable(context.Background()))
	assert.False(t, NewRelationalStrategy(nil, testLogger()).IsAvailable(context.Background()))
}
