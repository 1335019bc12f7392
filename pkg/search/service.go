package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quartzerp/globalsearch/pkg/cache"
	"github.com/quartzerp/globalsearch/pkg/indexing"
	"github.com/quartzerp/globalsearch/pkg/invalidation"
	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/observability"
	"github.com/quartzerp/globalsearch/pkg/registry"
	"github.com/quartzerp/globalsearch/pkg/strategy"
)

var tracer = otel.Tracer("globalsearch/search")

// Status describes the service for diagnostics.
type Status struct {
	Engine    string                 `json:"engine"`
	Available bool                   `json:"available"`
	Info      map[string]interface{} `json:"info"`
}

// Service is the unified search entry point. It holds one active strategy,
// selected by a startup probe; an index-engine failure during a live request
// demotes the service to the relational strategy for the rest of the process
// lifetime. There is no automatic recovery.
type Service struct {
	registry     *registry.Registry
	index        *strategy.IndexEngineStrategy
	relational   *strategy.RelationalStrategy
	cache        *cache.Cache
	invalidation *invalidation.Service
	pipeline     *indexing.Pipeline
	logger       *observability.Logger
	metrics      *observability.Metrics

	mu     sync.RWMutex
	active strategy.Strategy
}

// NewService wires the service and runs the startup probe: the index engine
// is preferred, the relational strategy is the fallback. cache, invalidation,
// pipeline and metrics may each be nil when the deployment does not use them.
func NewService(ctx context.Context, reg *registry.Registry, index *strategy.IndexEngineStrategy, relational *strategy.RelationalStrategy, c *cache.Cache, inv *invalidation.Service, pipeline *indexing.Pipeline, logger *observability.Logger, metrics *observability.Metrics) *Service {
	s := &Service{
		registry:     reg,
		index:        index,
		relational:   relational,
		cache:        c,
		invalidation: inv,
		pipeline:     pipeline,
		logger:       logger,
		metrics:      metrics,
	}

	if index != nil && index.IsAvailable(ctx) {
		s.active = index
		logger.WithField("engine", index.Name()).Info("Search engine selected")
	} else {
		s.active = relational
		logger.WithField("engine", relational.Name()).
			Warn("Index engine unavailable at startup, using relational fallback")
	}
	return s
}

// Search answers a request: cache first, then the active strategy, with one
// fallback to the relational strategy if the index engine fails mid-request.
// Only both backends failing surfaces an error to the caller.
func (s *Service) Search(ctx context.Context, req model.SearchRequest) (*model.SearchResponse, error) {
	req.Normalize()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("query", req.Query),
			attribute.String("tenant", req.TenantID),
		),
	)
	defer span.End()

	entities := s.resolveEntities(req)
	if req.Query == "" || len(entities) == 0 {
		span.SetStatus(codes.Ok, "nothing to search")
		return &model.SearchResponse{
			Results:    []model.SearchResult{},
			EngineUsed: s.activeStrategy().Name(),
			ElapsedMs:  time.Since(start).Milliseconds(),
		}, nil
	}

	if s.cache != nil {
		if resp, ok := s.cache.Get(ctx, req); ok {
			resp.ElapsedMs = time.Since(start).Milliseconds()
			s.countRequest(resp.EngineUsed, true)
			span.SetAttributes(attribute.Bool("cached", true))
			span.SetStatus(codes.Ok, "cache hit")
			return resp, nil
		}
	}

	active := s.activeStrategy()
	resp, err := active.Search(ctx, req, entities)
	if err != nil && active.Name() == strategy.EngineIndex {
		s.logger.WithError(err).Warn("Index engine failed, falling back to relational search")
		if s.metrics != nil {
			s.metrics.SearchFallbacksTotal.Inc()
		}
		s.demote()
		resp, err = s.relational.Search(ctx, req, entities)
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.SearchErrorsTotal.WithLabelValues(s.activeStrategy().Name()).Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "all backends failed")
		return nil, fmt.Errorf("search failed: %w", err)
	}

	resp.ElapsedMs = time.Since(start).Milliseconds()
	if s.cache != nil {
		s.cache.Put(req, resp)
	}
	s.countRequest(resp.EngineUsed, false)
	if s.metrics != nil {
		s.metrics.SearchDuration.WithLabelValues(resp.EngineUsed).Observe(time.Since(start).Seconds())
	}
	span.SetAttributes(attribute.Int("result_count", len(resp.Results)))
	span.SetStatus(codes.Ok, "search completed")
	return resp, nil
}

// ErrNoIndexEngine is returned by indexing operations when the deployment
// runs relational-only.
var ErrNoIndexEngine = errors.New("no index engine configured")

// IndexDocument upserts one document into the inverted index.
func (s *Service) IndexDocument(ctx context.Context, docType, id string, doc model.SearchDocument) error {
	if s.pipeline == nil {
		return ErrNoIndexEngine
	}
	return s.pipeline.IndexDocument(ctx, docType, id, doc)
}

// DeleteDocument removes one document; an absent document is a success.
func (s *Service) DeleteDocument(ctx context.Context, docType, id string) error {
	if s.pipeline == nil {
		return ErrNoIndexEngine
	}
	return s.pipeline.DeleteDocument(ctx, docType, id)
}

// ReindexAll sweeps every enabled entity into the index and returns the
// per-entity report. It is administrative and potentially long-running.
func (s *Service) ReindexAll(ctx context.Context, tenantID string) (*indexing.ReindexReport, error) {
	if s.pipeline == nil {
		return nil, ErrNoIndexEngine
	}
	return s.pipeline.ReindexAll(ctx, tenantID), nil
}

// HandleDomainEvent feeds a published domain event into cache invalidation.
// Unrecognized names are ignored; "search.reindex.started" is observability
// only.
func (s *Service) HandleDomainEvent(name, tenantID, entityID string) {
	if name == "search.reindex.started" {
		s.logger.WithField("tenant", tenantID).Info("Reindex started elsewhere")
		return
	}
	ev, ok := invalidation.ParseDomainEvent(name, tenantID, entityID)
	if !ok {
		s.logger.WithField("event", name).Debug("Ignoring domain event")
		return
	}
	if s.invalidation != nil {
		s.invalidation.Publish(ev)
	}
}

// Status reports the active engine and component diagnostics.
func (s *Service) Status(ctx context.Context) Status {
	active := s.activeStrategy()
	info := map[string]interface{}{
		"relational_available": s.relational.IsAvailable(ctx),
	}
	if s.index != nil {
		info["index_available"] = s.index.IsAvailable(ctx)
	}
	if s.cache != nil {
		info["cache"] = s.cache.Stats().Snapshot()
	}
	if s.invalidation != nil {
		info["invalidations"] = s.invalidation.Stats()
	}
	return Status{
		Engine:    active.Name(),
		Available: active.IsAvailable(ctx),
		Info:      info,
	}
}

// ActiveEngine returns the name of the strategy currently serving requests.
func (s *Service) ActiveEngine() string {
	return s.activeStrategy().Name()
}

// resolveEntities narrows the catalog to what the caller may see, then to the
// requested entity types.
func (s *Service) resolveEntities(req model.SearchRequest) []*registry.EntityDescriptor {
	accessible := s.registry.AccessibleTo(req.CallerRoles, req.CallerPermissions)
	if len(req.EntityTypes) == 0 {
		return accessible
	}

	wanted := make(map[string]bool, len(req.EntityTypes))
	for _, t := range req.EntityTypes {
		wanted[t] = true
	}
	var out []*registry.EntityDescriptor
	for _, d := range accessible {
		if wanted[d.Type] {
			out = append(out, d)
		}
	}
	return out
}

func (s *Service) activeStrategy() strategy.Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// demote switches the service to the relational strategy for the rest of the
// process lifetime. The reverse transition never happens automatically.
func (s *Service) demote() {
	s.mu.Lock()
	s.active = s.relational
	s.mu.Unlock()
}

func (s *Service) countRequest(engine string, cached bool) {
	if s.metrics == nil {
		return
	}
	cachedLabel := "false"
	if cached {
		cachedLabel = "true"
	}
	s.metrics.SearchRequestsTotal.WithLabelValues(engine, cachedLabel).Inc()
}
