package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/quartzerp/globalsearch/pkg/model"
)

// KeyPrefix namespaces all search cache entries in the shared store.
const KeyPrefix = "search:"

// Key derives the deterministic cache key for a request:
// prefix + tenantID + ":" + md5(canonical form). The tenant id stays outside
// the hash so entries group by tenant and different tenants can never collide.
func Key(req model.SearchRequest) string {
	sum := md5.Sum([]byte(canonicalize(req)))
	return KeyPrefix + req.TenantID + ":" + hex.EncodeToString(sum[:])
}

// canonicalize renders the request fields that affect the response into a
// stable string. The query is trimmed and lower-cased; every slice and the
// filter keys are sorted, so logically identical requests that differ only in
// ordering produce the same key. Limit, offset and sort are part of result
// identity and are kept.
func canonicalize(req model.SearchRequest) string {
	var b strings.Builder

	b.WriteString("q=")
	b.WriteString(strings.ToLower(strings.TrimSpace(req.Query)))

	b.WriteString("|t=")
	b.WriteString(sortedJoin(req.EntityTypes))

	b.WriteString("|r=")
	b.WriteString(sortedJoin(req.CallerRoles))

	b.WriteString("|p=")
	b.WriteString(sortedJoin(req.CallerPermissions))

	b.WriteString("|f=")
	keys := make([]string, 0, len(req.Filters))
	for k := range req.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(req.Filters[k])
	}

	fmt.Fprintf(&b, "|l=%d|o=%d|s=%s|d=%s", req.Limit, req.Offset, req.SortBy, req.SortOrder)

	return b.String()
}

func sortedJoin(values []string) string {
	if len(values) == 0 {
		return ""
	}
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// ScopeKey names the redis set that indexes cache keys for one tenant and
// entity type. Invalidation deletes the members of this set, so hashed cache
// keys never need pattern scanning.
func ScopeKey(tenantID, entityType string) string {
	return KeyPrefix + "scope:" + tenantID + ":" + entityType
}

// TenantScopeKey names the redis set that indexes every cache key of a tenant.
func TenantScopeKey(tenantID string) string {
	return KeyPrefix + "scope:" + tenantID
}
