package cache

import (
	"sort"
	"sync"
)

// DefaultPopularLimit bounds the per-tenant popular-query table. The table
// holds at most twice this many entries and is pruned back to the top entries
// by frequency when the cap is exceeded.
const DefaultPopularLimit = 10

// QueryCount is one popular-query entry.
type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// StatsSnapshot is a point-in-time copy of the cache counters.
type StatsSnapshot struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// Stats tracks process-wide hit/miss counters and per-tenant query
// popularity.
type Stats struct {
	mu           sync.Mutex
	hits         int64
	misses       int64
	popular      map[string]map[string]int
	popularLimit int
}

// NewStats creates empty statistics with the given popularity table limit.
// A non-positive limit falls back to DefaultPopularLimit.
func NewStats(popularLimit int) *Stats {
	if popularLimit <= 0 {
		popularLimit = DefaultPopularLimit
	}
	return &Stats{
		popular:      make(map[string]map[string]int),
		popularLimit: popularLimit,
	}
}

// RecordHit counts a cache hit.
func (s *Stats) RecordHit() {
	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
}

// RecordMiss counts a cache miss.
func (s *Stats) RecordMiss() {
	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
}

// RecordQuery counts one execution of a query for a tenant. When the tenant's
// table exceeds twice the limit it is pruned to the top entries by frequency,
// so a burst of one-off queries cannot grow the table without bound.
func (s *Stats) RecordQuery(tenantID, query string) {
	if query == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.popular[tenantID]
	if table == nil {
		table = make(map[string]int)
		s.popular[tenantID] = table
	}
	table[query]++

	if len(table) > 2*s.popularLimit {
		s.popular[tenantID] = pruneToTop(table, s.popularLimit)
	}
}

// PopularQueries returns a tenant's queries ordered by descending frequency,
// at most n entries.
func (s *Stats) PopularQueries(tenantID string, n int) []QueryCount {
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.popular[tenantID]
	if len(table) == 0 {
		return nil
	}

	out := make([]QueryCount, 0, len(table))
	for q, c := range table {
		out = append(out, QueryCount{Query: q, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Query < out[j].Query
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{Hits: s.hits, Misses: s.misses}
	if total := s.hits + s.misses; total > 0 {
		snap.HitRate = float64(s.hits) / float64(total)
	}
	return snap
}

// Reset zeroes all counters and popularity tables.
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = 0
	s.misses = 0
	s.popular = make(map[string]map[string]int)
}

func pruneToTop(table map[string]int, n int) map[string]int {
	entries := make([]QueryCount, 0, len(table))
	for q, c := range table {
		entries = append(entries, QueryCount{Query: q, Count: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Query < entries[j].Query
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	pruned := make(map[string]int, len(entries))
	for _, e := range entries {
		pruned[e.Query] = e.Count
	}
	return pruned
}
