package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quartzerp/globalsearch/pkg/model"
	"github.com/quartzerp/globalsearch/pkg/registry"
)

// RelationalRowLimit is the hard ceiling on rows fetched per entity. It bounds
// the fan-out cost of LIKE scans and is deliberately independent of the
// request's limit; pagination happens after scoring, over at most this many
// rows per entity.
const RelationalRowLimit = 20

// RelationalQuery is a compiled, parameterized SQL query for one entity.
type RelationalQuery struct {
	SQL     string
	Args    []interface{}
	Columns []string
	Entity  *registry.EntityDescriptor
}

// CompileRelational builds the substring-search query for one entity: id plus
// every declared field is selected, each primary/secondary text or keyword
// field gets a case-insensitive LIKE predicate, and tenant and static filters
// are appended as hard predicates.
func CompileRelational(d *registry.EntityDescriptor, req model.SearchRequest) (*RelationalQuery, error) {
	matchFields := d.MatchFields()
	if len(matchFields) == 0 {
		return nil, fmt.Errorf("entity %q has no searchable fields", d.Type)
	}

	columns := []string{d.IDColumn}
	for _, f := range d.AllFields() {
		columns = append(columns, f.Name)
	}

	var (
		sb   strings.Builder
		args []interface{}
	)
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(d.Table)
	sb.WriteString(" WHERE (")

	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(req.Query))) + "%"
	predicates := make([]string, 0, len(matchFields))
	for _, f := range matchFields {
		args = append(args, pattern)
		predicates = append(predicates, fmt.Sprintf(`LOWER(%s) LIKE $%d ESCAPE '\'`, f.Name, len(args)))
	}
	sb.WriteString(strings.Join(predicates, " OR "))
	sb.WriteString(")")

	if d.TenantScoped() && req.TenantID != "" {
		args = append(args, req.TenantID)
		sb.WriteString(fmt.Sprintf(" AND %s = $%d", d.TenantColumn, len(args)))
	}

	for _, col := range sortedKeys(d.StaticFilters) {
		args = append(args, d.StaticFilters[col])
		sb.WriteString(fmt.Sprintf(" AND %s = $%d", col, len(args)))
	}

	sb.WriteString(fmt.Sprintf(" LIMIT %d", RelationalRowLimit))

	return &RelationalQuery{
		SQL:     sb.String(),
		Args:    args,
		Columns: columns,
		Entity:  d,
	}, nil
}

// likeEscaper neutralizes LIKE wildcards in user input so a query such as
// "100%" matches the literal text instead of everything.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Stable predicate order keeps compiled SQL deterministic.
	sort.Strings(keys)
	return keys
}
