package strategy

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quartzerp/globalsearch/pkg/format"
	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/observability"
	"github.com/quartzerp/globalsearch/pkg/query"
	"github.com/quartzerp/globalsearch/pkg/registry"
)

var relationalTracer = otel.Tracer("globalsearch/strategy/relational")

// RelationalStrategy answers searches with case-insensitive substring scans
// against the source-of-truth rows. It is the fallback backend: always
// correct, never fast.
type RelationalStrategy struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewRelationalStrategy creates the relational strategy.
func NewRelationalStrategy(db *sql.DB, logger *observability.Logger) *RelationalStrategy {
	return &RelationalStrategy{db: db, logger: logger}
}

// Name implements Strategy.
func (s *RelationalStrategy) Name() string { return EngineRelational }

// IsAvailable reports whether the connection pool is initialized and
// reachable.
func (s *RelationalStrategy) IsAvailable(ctx context.Context) bool {
	if s.db == nil {
		return false
	}
	return s.db.PingContext(ctx) == nil
}

// Search runs the compiled substring query per entity, scores and merges the
// rows, then paginates. An entity whose backing table does not exist is
// skipped with a warning; any other database error fails the search.
func (s *RelationalStrategy) Search(ctx context.Context, req model.SearchRequest, entities []*registry.EntityDescriptor) (*model.SearchResponse, error) {
	ctx, span := relationalTracer.Start(ctx, "RelationalSearch",
		trace.WithAttributes(
			attribute.String("query", req.Query),
			attribute.Int("entity_count", len(entities)),
		),
	)
	defer span.End()

	var all []model.SearchResult
	for _, d := range entities {
		results, err := s.searchEntity(ctx, d, req)
		if err != nil {
			if IsMissingTable(err) {
				s.logger.WithField("entity", d.Type).WithField("table", d.Table).
					Warn("Backing table does not exist, skipping entity")
				continue
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "relational search failed")
			return nil, fmt.Errorf("failed to search entity %s: %w", d.Type, err)
		}
		all = append(all, results...)
	}

	format.SortByScore(all)
	facets := make(map[string]int, len(entities))
	for _, r := range all {
		facets[r.Type]++
	}

	page := format.Paginate(all, req.Offset, req.Limit)

	span.SetAttributes(attribute.Int("result_count", len(page)))
	span.SetStatus(codes.Ok, "search completed")

	return &model.SearchResponse{
		Results:    page,
		Total:      len(all),
		EngineUsed: EngineRelational,
		Facets:     facets,
	}, nil
}

func (s *RelationalStrategy) searchEntity(ctx context.Context, d *registry.EntityDescriptor, req model.SearchRequest) ([]model.SearchResult, error) {
	compiled, err := query.CompileRelational(d, req)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, compiled.SQL, compiled.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.SearchResult
	for rows.Next() {
		values := make([]interface{}, len(compiled.Columns))
		scanTargets := make([]interface{}, len(compiled.Columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			s.logger.WithError(err).WithField("entity", d.Type).Warn("Skipping unscannable row")
			continue
		}

		rec := make(format.Record, len(compiled.Columns))
		for i, col := range compiled.Columns {
			rec[col] = values[i]
		}
		results = append(results, format.FromRecord(d, rec, req.Query))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// IsMissingTable recognizes the "relation/table does not exist" class of
// errors across the drivers in use (postgres 42P01, sqlite "no such table").
// The reindex sweep uses it for the same soft-skip the search path applies.
func IsMissingTable(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "42P01"
	}
	msg := err.Error()
	return strings.Contains(msg, "does not exist") || strings.Contains(msg, "no such table")
}
