package fallback

import (
	"fmt"

	"github.com/spigell/job-matcher/internal/score"
)

// ToResult converts a rule-based match into the unified contract. Timing
// averages location fit and recency.
func (m Match) ToResult() score.MatchResult {
	b := m.Breakdown
	return score.MatchResult{
		Job: m.Job,
		UnifiedScore: score.UnifiedScore{
			Overall: m.Score,
			Components: score.ClampComponents(score.Components{
				Relevance:   b.Skills,
				Quality:     b.CareerPath,
				Opportunity: b.Experience,
				Timing:      (b.Location + b.Recency) / 2,
			}),
			Confidence: m.Confidence,
			Method:     score.MethodRule,
			Explanation: fmt.Sprintf("Rule-based score %.1f (%s): skills %.0f, experience %.0f, location %.0f, career path %.0f, recency %.0f",
				m.Score, m.Quality, b.Skills, b.Experience, b.Location, b.CareerPath, b.Recency),
		},
		MatchReason: m.Reason,
	}
}

func ToResults(matches []Match) []score.MatchResult {
	out := make([]score.MatchResult, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.ToResult())
	}
	return out
}
