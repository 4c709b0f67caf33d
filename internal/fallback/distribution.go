package fallback

import (
	"strings"

	"go.uber.org/zap"
)

// quota tracks how many selected candidates each city or path already holds.
type quota struct {
	enabled bool
	target  int
	counts  map[string]int
}

func newQuota(keys []string, maxMatches int) *quota {
	if len(keys) == 0 {
		return &quota{}
	}
	return &quota{
		enabled: true,
		target:  maxMatches / len(keys),
		counts:  make(map[string]int, len(keys)),
	}
}

// hasRoom is always true for an axis without user selections.
func (q *quota) hasRoom(key string) bool {
	if !q.enabled {
		return true
	}
	if key == "" {
		return false
	}
	return q.counts[strings.ToLower(key)] < q.target
}

func (q *quota) take(key string) {
	if !q.enabled || key == "" {
		return
	}
	q.counts[strings.ToLower(key)]++
}

// distribute picks up to maxMatches candidates from a list sorted by score.
// Round one admits a candidate only when both its city and path quotas have
// room, round two fills the remaining slots by score. The output keeps the
// score order of the input.
func (s *Scorer) distribute(candidates []Match, cities, paths []string, maxMatches int) []Match {
	limit := min(maxMatches, len(candidates))
	if limit <= 0 {
		return []Match{}
	}

	cityQuota := newQuota(cities, maxMatches)
	pathQuota := newQuota(paths, maxMatches)

	used := make([]bool, len(candidates))
	taken := 0

	for i, c := range candidates {
		if taken == limit {
			break
		}
		if !cityQuota.hasRoom(c.City) || !pathQuota.hasRoom(c.Path) {
			continue
		}
		cityQuota.take(c.City)
		pathQuota.take(c.Path)
		used[i] = true
		taken++
	}

	balanced := taken

	for i := range candidates {
		if taken == limit {
			break
		}
		if !used[i] {
			used[i] = true
			taken++
		}
	}

	out := make([]Match, 0, limit)
	for i, c := range candidates {
		if used[i] {
			out = append(out, c)
		}
	}

	s.logger.Debug("fallback balanced distribution",
		zap.Int("balanced", balanced),
		zap.Int("backfilled", taken-balanced),
		zap.Int("city_target", cityQuota.target),
		zap.Int("path_target", pathQuota.target),
		zap.Any("city_counts", cityQuota.counts),
		zap.Any("path_counts", pathQuota.counts),
	)

	return out
}
