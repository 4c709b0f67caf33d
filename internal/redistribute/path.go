package redistribute

import (
	"github.com/spigell/job-matcher/internal/careerpath"
	"github.com/spigell/job-matcher/internal/score"
)

const CareerPathBalanceName = "career-path-balance"

// CareerPathBalance splits premium results between exactly two career paths.
type CareerPathBalance struct {
	toggle
	table *careerpath.Table
}

func NewCareerPathBalance() *CareerPathBalance {
	return &CareerPathBalance{table: careerpath.Default}
}

func (c *CareerPathBalance) Name() string { return CareerPathBalanceName }

func (c *CareerPathBalance) Apply(matches []score.MatchResult, in Input, size int) ([]score.MatchResult, Step, bool) {
	if !in.IsPremium || len(in.Paths) != 2 || len(matches) < 2 {
		return matches, Step{}, false
	}

	attribute := func(m score.MatchResult) string {
		if m.Job == nil {
			return ""
		}
		return c.table.FirstMatch(m.Job.Categories, in.Paths)
	}

	buckets := make([][]int, 2)
	for i, m := range matches {
		switch attribute(m) {
		case in.Paths[0]:
			buckets[0] = append(buckets[0], i)
		case in.Paths[1]:
			buckets[1] = append(buckets[1], i)
		}
	}

	n := min(size, len(matches))
	targets := []int{(n + 1) / 2, n / 2}
	out, backfilled := assemble(matches, buckets, targets, size, false)

	return out, Step{
		Initial:    len(matches),
		Left:       len(out),
		Backfilled: backfilled,
		Targets:    targetsOf(in.Paths, targets),
		Counts:     countsOf(in.Paths, out, attribute),
	}, true
}
