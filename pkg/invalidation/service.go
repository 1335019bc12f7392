package invalidation

import (
	"context"
	"sync"

	"github.com/quartzerp/globalsearch/pkg/cache"
	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/observability"
)

// Notification names emitted to the observer after a scope is cleared.
const (
	EventCacheInvalidated       = "cache.invalidated"
	EventCacheTenantInvalidated = "cache.tenant.invalidated"
)

// DefaultBuffer is the event channel capacity.
const DefaultBuffer = 256

// Notifier receives the notifications produced after an invalidation, for
// audit by outer layers. May be nil.
type Notifier func(event string, payload map[string]interface{})

// StatsSnapshot is a point-in-time copy of the invalidation counters.
type StatsSnapshot struct {
	Total        int64            `json:"total"`
	ByEntityType map[string]int64 `json:"byEntityType"`
}

// Service consumes entity-change events and clears the matching cache scope.
// Events arrive on an explicit channel; Run drains it until the context ends.
// Eviction of untouched entries is TTL-driven, the service never sweeps.
type Service struct {
	cache   *cache.Cache
	logger  *observability.Logger
	metrics *observability.Metrics
	notify  Notifier
	events  chan model.InvalidationEvent

	mu     sync.Mutex
	total  int64
	byType map[string]int64
}

// New creates the invalidation service. metrics and notify may be nil.
func New(c *cache.Cache, logger *observability.Logger, metrics *observability.Metrics, notify Notifier) *Service {
	return &Service{
		cache:   c,
		logger:  logger,
		metrics: metrics,
		notify:  notify,
		events:  make(chan model.InvalidationEvent, DefaultBuffer),
		byType:  make(map[string]int64),
	}
}

// Publish queues an event for processing. Events are fire-and-forget: when
// the buffer is full the event is dropped with a warning rather than blocking
// the publisher, and the affected entries age out by TTL instead.
func (s *Service) Publish(ev model.InvalidationEvent) {
	select {
	case s.events <- ev:
	default:
		s.logger.WithField("entity_type", ev.EntityType).
			WithField("tenant", ev.TenantID).
			Warn("Invalidation event dropped, buffer full")
	}
}

// Run drains the event channel until the context is canceled.
func (s *Service) Run(ctx context.Context) {
	s.logger.Info("Invalidation service started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Invalidation service stopped")
			return
		case ev := <-s.events:
			s.handle(ctx, ev)
		}
	}
}

func (s *Service) handle(ctx context.Context, ev model.InvalidationEvent) {
	if ev.TenantWide() {
		if _, err := s.InvalidateTenant(ctx, ev.TenantID); err != nil {
			s.logger.WithError(err).WithField("tenant", ev.TenantID).
				Error("Tenant invalidation failed")
		}
		return
	}
	if _, err := s.InvalidateEntity(ctx, ev.TenantID, ev.EntityType); err != nil {
		s.logger.WithError(err).
			WithField("tenant", ev.TenantID).
			WithField("entity_type", ev.EntityType).
			Error("Entity invalidation failed")
	}
}

// InvalidateEntity clears the cache scope for one tenant and entity type. A
// query touching several entity types may embed this entity's data, so the
// whole scope goes, not a single key.
func (s *Service) InvalidateEntity(ctx context.Context, tenantID, entityType string) (int, error) {
	removed, err := s.cache.InvalidateScope(ctx, tenantID, entityType)
	if err != nil {
		return 0, err
	}

	s.record(entityType)
	s.logger.WithField("tenant", tenantID).
		WithField("entity_type", entityType).
		WithField("removed", removed).
		Debug("Cache scope invalidated")

	if s.notify != nil {
		s.notify(EventCacheInvalidated, map[string]interface{}{
			"tenantId":   tenantID,
			"entityType": entityType,
			"removed":    removed,
		})
	}
	return removed, nil
}

// InvalidateTenant clears every cached entry of a tenant.
func (s *Service) InvalidateTenant(ctx context.Context, tenantID string) (int, error) {
	removed, err := s.cache.InvalidateTenant(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	s.record("tenant")
	s.logger.WithField("tenant", tenantID).
		WithField("removed", removed).
		Debug("Tenant cache invalidated")

	if s.notify != nil {
		s.notify(EventCacheTenantInvalidated, map[string]interface{}{
			"tenantId": tenantID,
			"removed":  removed,
		})
	}
	return removed, nil
}

// WithInvalidation runs fn and, only when it succeeds, publishes the event.
// Callers wrap their entity mutations with it so cache clearing follows the
// write instead of being woven into it.
func (s *Service) WithInvalidation(ctx context.Context, ev model.InvalidationEvent, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	s.Publish(ev)
	return nil
}

// Stats returns the invalidation counters.
func (s *Service) Stats() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	byType := make(map[string]int64, len(s.byType))
	for k, v := range s.byType {
		byType[k] = v
	}
	return StatsSnapshot{Total: s.total, ByEntityType: byType}
}

// LogHitRate is the scheduled cleanup hook. It only reports cache
// effectiveness, entry eviction is left to TTL expiry.
func (s *Service) LogHitRate() {
	snap := s.cache.Stats().Snapshot()
	s.logger.WithField("hits", snap.Hits).
		WithField("misses", snap.Misses).
		WithField("hit_rate", snap.HitRate).
		Info("Search cache hit rate")
}

func (s *Service) record(entityType string) {
	s.mu.Lock()
	s.total++
	s.byType[entityType]++
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.InvalidationsTotal.WithLabelValues(entityType).Inc()
	}
}
