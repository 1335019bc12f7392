package model

import "time"

// Operation is the kind of domain change that occurred.
type Operation string

const (
	OpCreate     Operation = "create"
	OpUpdate     Operation = "update"
	OpDelete     Operation = "delete"
	OpBulkUpdate Operation = "bulk_update"
	OpBulkDelete Operation = "bulk_delete"
	OpTenantWide Operation = "tenant_wide"
)

// InvalidationEvent describes a domain write that may have made cached search
// results stale. Events are fire-and-forget and never persisted. A tenant-wide
// event carries an empty EntityType.
type InvalidationEvent struct {
	TenantID   string    `json:"tenant_id"`
	EntityType string    `json:"entity_type,omitempty"`
	EntityID   string    `json:"entity_id,omitempty"`
	Operation  Operation `json:"operation"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TenantWide reports whether the event invalidates the whole tenant scope
// rather than a single entity type.
func (e InvalidationEvent) TenantWide() bool {
	return e.Operation == OpTenantWide || e.EntityType == ""
}
