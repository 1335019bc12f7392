package indexing

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/quartzerp/globalsearch/pkg/format"
	"github.com/quartzerp/globalsearch/pkg/registry"
)

// ReindexBatchLimit caps how many records one reindex sweep reads per entity.
const ReindexBatchLimit = 1000

// RecordSource streams the raw records of an entity for reindexing.
type RecordSource interface {
	Fetch(ctx context.Context, d *registry.EntityDescriptor, tenantID string) ([]format.Record, error)
}

// SQLRecordSource reads records straight from the relational source of truth.
type SQLRecordSource struct {
	db *sql.DB
}

// NewSQLRecordSource creates a record source over a connection pool.
func NewSQLRecordSource(db *sql.DB) *SQLRecordSource {
	return &SQLRecordSource{db: db}
}

// Fetch reads up to ReindexBatchLimit records for the entity, honoring its
// static filters and, when a tenant id is given, its tenant scoping.
func (s *SQLRecordSource) Fetch(ctx context.Context, d *registry.EntityDescriptor, tenantID string) ([]format.Record, error) {
	columns := []string{d.IDColumn}
	for _, f := range d.AllFields() {
		columns = append(columns, f.Name)
	}
	if d.TenantScoped() {
		columns = append(columns, d.TenantColumn)
	}

	var (
		predicates []string
		args       []interface{}
	)
	staticKeys := make([]string, 0, len(d.StaticFilters))
	for k := range d.StaticFilters {
		staticKeys = append(staticKeys, k)
	}
	sort.Strings(staticKeys)
	for _, k := range staticKeys {
		args = append(args, d.StaticFilters[k])
		predicates = append(predicates, fmt.Sprintf("%s = $%d", k, len(args)))
	}
	if d.TenantScoped() && tenantID != "" {
		args = append(args, tenantID)
		predicates = append(predicates, fmt.Sprintf("%s = $%d", d.TenantColumn, len(args)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(columns, ", "), d.Table)
	if len(predicates) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(predicates, " AND "))
	}
	fmt.Fprintf(&b, " LIMIT %d", ReindexBatchLimit)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []format.Record
	for rows.Next() {
		values := make([]interface{}, len(columns))
		scanTargets := make([]interface{}, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", d.Type, err)
		}

		rec := make(format.Record, len(columns))
		for i, col := range columns {
			rec[col] = values[i]
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
