// Package registry holds the static catalog of searchable business entities.
// The catalog is built once at process start and is read-only afterwards; all
// lookup and filter operations are side-effect free.
package registry

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML duration strings
// such as "5m" or "1h30m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// FieldKind classifies how a field participates in matching.
type FieldKind string

const (
	KindText    FieldKind = "text"
	KindKeyword FieldKind = "keyword"
	KindNumeric FieldKind = "numeric"
	KindDate    FieldKind = "date"
)

// Field is one searchable column/attribute with its relevance weight (1-10).
type Field struct {
	Name   string    `yaml:"name"`
	Weight int       `yaml:"weight"`
	Kind   FieldKind `yaml:"kind"`
}

// FieldGroups partitions an entity's fields by relevance tier. Primary fields
// carry the strongest boost, metadata fields the weakest.
type FieldGroups struct {
	Primary   []Field `yaml:"primary"`
	Secondary []Field `yaml:"secondary"`
	Metadata  []Field `yaml:"metadata"`
}

// EntityDescriptor describes one searchable entity type: where its rows live,
// which fields match with what weight, how to build a link to it, and who may
// see it. Descriptors are immutable after registry construction.
type EntityDescriptor struct {
	Type               string            `yaml:"type"`
	Database           string            `yaml:"database"`
	Table              string            `yaml:"table"`
	IDColumn           string            `yaml:"id_column"`
	TenantColumn       string            `yaml:"tenant_column,omitempty"`
	Fields             FieldGroups       `yaml:"fields"`
	StaticFilters      map[string]string `yaml:"static_filters,omitempty"`
	URLTemplate        string            `yaml:"url_template"`
	Icon               string            `yaml:"icon,omitempty"`
	RequiredPermission string            `yaml:"required_permission,omitempty"`
	RequiredRoles      []string          `yaml:"required_roles,omitempty"`
	Priority           int               `yaml:"priority"`
	CacheTTL           Duration          `yaml:"cache_ttl"`
	Enabled            bool              `yaml:"enabled"`
}

// TenantScoped reports whether the entity's rows are partitioned by tenant.
func (d *EntityDescriptor) TenantScoped() bool {
	return d.TenantColumn != ""
}

// MatchFields returns the primary and secondary text/keyword fields, in that
// order. These are the fields substring predicates are generated for.
func (d *EntityDescriptor) MatchFields() []Field {
	fields := make([]Field, 0, len(d.Fields.Primary)+len(d.Fields.Secondary))
	for _, f := range d.Fields.Primary {
		if f.Kind == KindText || f.Kind == KindKeyword {
			fields = append(fields, f)
		}
	}
	for _, f := range d.Fields.Secondary {
		if f.Kind == KindText || f.Kind == KindKeyword {
			fields = append(fields, f)
		}
	}
	return fields
}

// AllFields returns every declared field across the three groups.
func (d *EntityDescriptor) AllFields() []Field {
	fields := make([]Field, 0, len(d.Fields.Primary)+len(d.Fields.Secondary)+len(d.Fields.Metadata))
	fields = append(fields, d.Fields.Primary...)
	fields = append(fields, d.Fields.Secondary...)
	fields = append(fields, d.Fields.Metadata...)
	return fields
}

// Registry is the process-wide catalog of entity descriptors, keyed by type.
type Registry struct {
	byType  map[string]*EntityDescriptor
	ordered []*EntityDescriptor
}

// New builds a registry from descriptors. Descriptor types must be unique and
// field weights must be within 1-10.
func New(descriptors []EntityDescriptor) (*Registry, error) {
	r := &Registry{
		byType:  make(map[string]*EntityDescriptor, len(descriptors)),
		ordered: make([]*EntityDescriptor, 0, len(descriptors)),
	}
	for i := range descriptors {
		d := descriptors[i]
		if d.Type == "" {
			return nil, fmt.Errorf("descriptor %d has no type", i)
		}
		if _, exists := r.byType[d.Type]; exists {
			return nil, fmt.Errorf("duplicate entity type %q", d.Type)
		}
		for _, f := range d.AllFields() {
			if f.Weight < 1 || f.Weight > 10 {
				return nil, fmt.Errorf("entity %q field %q has weight %d, must be 1-10", d.Type, f.Name, f.Weight)
			}
		}
		if d.IDColumn == "" {
			d.IDColumn = "id"
		}
		r.byType[d.Type] = &d
		r.ordered = append(r.ordered, &d)
	}
	return r, nil
}

// LoadFile builds a registry from a YAML descriptor file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}
	var spec struct {
		Entities []EntityDescriptor `yaml:"entities"`
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse registry file: %w", err)
	}
	return New(spec.Entities)
}

// ByType returns the descriptor for an entity type, or nil when unknown.
func (r *Registry) ByType(entityType string) *EntityDescriptor {
	return r.byType[entityType]
}

// All returns every descriptor in registration order.
func (r *Registry) All() []*EntityDescriptor {
	return r.ordered
}

// Enabled returns every enabled descriptor in registration order.
func (r *Registry) Enabled() []*EntityDescriptor {
	out := make([]*EntityDescriptor, 0, len(r.ordered))
	for _, d := range r.ordered {
		if d.Enabled {
			out = append(out, d)
		}
	}
	return out
}

// EnabledForDatabase returns the enabled descriptors stored in the given
// logical database.
func (r *Registry) EnabledForDatabase(database string) []*EntityDescriptor {
	out := make([]*EntityDescriptor, 0, len(r.ordered))
	for _, d := range r.ordered {
		if d.Enabled && d.Database == database {
			out = append(out, d)
		}
	}
	return out
}

// AccessibleTo filters the enabled descriptors down to those the caller may
// search: the entity requires no permission or the caller holds it, and the
// entity requires no role or the caller holds at least one of them.
func (r *Registry) AccessibleTo(roles, permissions []string) []*EntityDescriptor {
	roleSet := toSet(roles)
	permSet := toSet(permissions)

	out := make([]*EntityDescriptor, 0, len(r.ordered))
	for _, d := range r.ordered {
		if !d.Enabled {
			continue
		}
		if d.RequiredPermission != "" && !permSet[d.RequiredPermission] {
			continue
		}
		if len(d.RequiredRoles) > 0 && !intersects(roleSet, d.RequiredRoles) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func intersects(set map[string]bool, values []string) bool {
	for _, v := range values {
		if set[v] {
			return true
		}
	}
	return false
}
