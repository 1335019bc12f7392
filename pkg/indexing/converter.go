package indexing

import (
	"time"

	"github.com/quartzerp/globalsearch/pkg/format"
	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/registry"
)

// Converter turns raw source records into index documents. It applies the
// same title/description/tags/metadata derivation the relational formatter
// uses, so a record presents identically no matter which backend served it.
type Converter struct {
	now func() time.Time
}

// NewConverter creates a converter.
func NewConverter() *Converter {
	return &Converter{now: time.Now}
}

// ToDocument builds the canonical index document for one record. Access
// scoping comes from the entity descriptor: documents inherit the entity's
// required roles and permission so the engine-side filters can enforce them.
func (c *Converter) ToDocument(d *registry.EntityDescriptor, rec format.Record) model.SearchDocument {
	doc := model.SearchDocument{
		ID:          rec.ID(d),
		Type:        d.Type,
		Title:       format.DeriveTitle(d, rec),
		Description: format.DeriveDescription(d, rec),
		Tags:        format.DeriveTags(d, rec),
		Metadata:    format.DeriveMetadata(d, rec),
		AccessRoles: d.RequiredRoles,
		IndexedAt:   c.now(),
	}
	if d.TenantScoped() {
		doc.TenantID = format.StringValue(rec[d.TenantColumn])
	}
	if d.RequiredPermission != "" {
		doc.AccessPermissions = []string{d.RequiredPermission}
	}
	return doc
}
