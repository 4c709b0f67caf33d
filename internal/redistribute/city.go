package redistribute

import (
	"strings"

	"github.com/spigell/job-matcher/internal/score"
)

const CityBalanceName = "city-balance"

// CityBalance spreads results evenly over two or three target cities.
type CityBalance struct {
	toggle
}

func NewCityBalance() *CityBalance { return &CityBalance{} }

func (c *CityBalance) Name() string { return CityBalanceName }

func (c *CityBalance) Apply(matches []score.MatchResult, in Input, size int) ([]score.MatchResult, Step, bool) {
	if len(in.Cities) < 2 || len(in.Cities) > 3 || len(matches) == 0 {
		return matches, Step{}, false
	}

	attribute := func(m score.MatchResult) string { return cityOf(m, in.Cities) }

	buckets := make([][]int, len(in.Cities))
	for i, m := range matches {
		city := attribute(m)
		for k, target := range in.Cities {
			if city == target {
				buckets[k] = append(buckets[k], i)
				break
			}
		}
	}

	targets := splitEven(min(size, len(matches)), len(in.Cities))
	out, backfilled := assemble(matches, buckets, targets, size, false)

	return out, Step{
		Initial:    len(matches),
		Left:       len(out),
		Backfilled: backfilled,
		Targets:    targetsOf(in.Cities, targets),
		Counts:     countsOf(in.Cities, out, attribute),
	}, true
}

// cityOf picks the user city a result belongs to: an exact city match wins,
// otherwise the first user city found in the job's city or location text.
func cityOf(m score.MatchResult, cities []string) string {
	if m.Job == nil {
		return ""
	}
	for _, city := range cities {
		if strings.EqualFold(strings.TrimSpace(m.Job.City), city) {
			return city
		}
	}
	haystack := strings.ToLower(m.Job.City + " " + m.Job.Location)
	for _, city := range cities {
		if strings.Contains(haystack, strings.ToLower(city)) {
			return city
		}
	}
	return ""
}
