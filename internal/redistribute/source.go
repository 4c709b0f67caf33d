package redistribute

import (
	"sort"
	"strings"

	"github.com/spigell/job-matcher/internal/score"
)

const SourceDiversityName = "source-diversity"

// SourceDiversity splits results between the two most frequent job sources.
type SourceDiversity struct {
	toggle
}

func NewSourceDiversity() *SourceDiversity { return &SourceDiversity{} }

func (s *SourceDiversity) Name() string { return SourceDiversityName }

func (s *SourceDiversity) Apply(matches []score.MatchResult, _ Input, size int) ([]score.MatchResult, Step, bool) {
	if len(matches) < 3 || size < 3 {
		return matches, Step{}, false
	}

	top := topSources(matches)
	if len(top) < 2 {
		return matches, Step{}, false
	}
	top = top[:2]

	buckets := make([][]int, 2)
	for i, m := range matches {
		src := sourceOf(m)
		for k, name := range top {
			if src == name {
				buckets[k] = append(buckets[k], i)
			}
		}
	}

	n := min(size, len(matches))
	targets := []int{(n + 1) / 2, n / 2}
	out, backfilled := assemble(matches, buckets, targets, size, true)

	return out, Step{
		Initial:    len(matches),
		Left:       len(out),
		Backfilled: backfilled,
		Targets:    targetsOf(top, targets),
		Counts:     countsOf(top, out, sourceOf),
	}, true
}

// topSources orders distinct sources by frequency, earlier first appearance
// winning ties. Results without a source are never balanced; they only
// serve as backfill.
func topSources(matches []score.MatchResult) []string {
	counts := make(map[string]int)
	var order []string
	for _, m := range matches {
		src := sourceOf(m)
		if src == "" {
			continue
		}
		if _, seen := counts[src]; !seen {
			order = append(order, src)
		}
		counts[src]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}

func sourceOf(m score.MatchResult) string {
	if m.Job == nil {
		return ""
	}
	return strings.TrimSpace(m.Job.Source)
}
