package strategy

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quartzerp/globalsearch/pkg/format"
	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/query"
	"github.com/quartzerp/globalsearch/pkg/registry"
)

var indexTracer = otel.Tracer("globalsearch/strategy/index")

// IndexEngineStrategy answers searches from the inverted index.
type IndexEngineStrategy struct {
	client   IndexClient
	registry *registry.Registry
}

// NewIndexEngineStrategy creates the index-engine strategy over an opaque
// client.
func NewIndexEngineStrategy(client IndexClient, reg *registry.Registry) *IndexEngineStrategy {
	return &IndexEngineStrategy{client: client, registry: reg}
}

// Name implements Strategy.
func (s *IndexEngineStrategy) Name() string { return EngineIndex }

// IsAvailable probes the engine. Used at startup to decide the active
// strategy.
func (s *IndexEngineStrategy) IsAvailable(ctx context.Context) bool {
	if s.client == nil {
		return false
	}
	return s.client.Ping(ctx) == nil
}

// Search compiles and executes a boosted multi-field query and normalizes the
// hits. The engine returns hits already ranked; their relative order is kept.
func (s *IndexEngineStrategy) Search(ctx context.Context, req model.SearchRequest, entities []*registry.EntityDescriptor) (*model.SearchResponse, error) {
	ctx, span := indexTracer.Start(ctx, "IndexSearch",
		trace.WithAttributes(
			attribute.String("query", req.Query),
			attribute.Int("entity_count", len(entities)),
		),
	)
	defer span.End()

	types := make([]string, 0, len(entities))
	for _, d := range entities {
		types = append(types, d.Type)
	}

	body := query.CompileIndex(req, types)
	raw, err := s.client.Search(ctx, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "index search failed")
		return nil, fmt.Errorf("index search failed: %w", err)
	}

	results := make([]model.SearchResult, 0, len(raw.Hits))
	for _, hit := range raw.Hits {
		results = append(results, format.FromHit(hit, s.registry.ByType(hit.Document.Type)))
	}

	span.SetAttributes(attribute.Int("result_count", len(results)))
	span.SetStatus(codes.Ok, "search completed")

	return &model.SearchResponse{
		Results:     results,
		Total:       raw.Total,
		EngineUsed:  EngineIndex,
		Suggestions: raw.Suggestions,
		Facets:      raw.Facets,
	}, nil
}

// IndexDocument upserts a document into the engine.
func (s *IndexEngineStrategy) IndexDocument(ctx context.Context, docType, id string, doc model.SearchDocument) error {
	if err := s.client.Index(ctx, docType, id, doc); err != nil {
		return fmt.Errorf("failed to index %s/%s: %w", docType, id, err)
	}
	return nil
}

// DeleteDocument removes a document. Deleting a document that is already
// absent is a success, so repeated deletes are safe.
func (s *IndexEngineStrategy) DeleteDocument(ctx context.Context, docType, id string) error {
	err := s.client.Delete(ctx, docType, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete %s/%s: %w", docType, id, err)
	}
	return nil
}
