package invalidation

import (
	"strings"
	"time"

	"github.com/quartzerp/globalsearch/pkg/model"
)

// ParseDomainEvent maps a published domain event name, e.g. "article.updated"
// or "tenant.settings_changed", to an invalidation event. The second return
// is false for names that do not affect cached search results.
func ParseDomainEvent(name, tenantID, entityID string) (model.InvalidationEvent, bool) {
	subject, action, ok := strings.Cut(name, ".")
	if !ok {
		return model.InvalidationEvent{}, false
	}

	ev := model.InvalidationEvent{
		TenantID:   tenantID,
		EntityID:   entityID,
		OccurredAt: time.Now(),
	}

	if subject == "tenant" {
		switch action {
		case "updated", "settings_changed":
			ev.Operation = model.OpTenantWide
			return ev, true
		}
		return model.InvalidationEvent{}, false
	}

	switch action {
	case "created":
		ev.Operation = model.OpCreate
	case "updated":
		ev.Operation = model.OpUpdate
	case "deleted":
		ev.Operation = model.OpDelete
	case "bulk_updated":
		ev.Operation = model.OpBulkUpdate
	case "bulk_deleted":
		ev.Operation = model.OpBulkDelete
	default:
		return model.InvalidationEvent{}, false
	}
	ev.EntityType = subject
	return ev, true
}
