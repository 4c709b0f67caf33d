// Package score holds the result contract shared by every scoring strategy.
// Any two UnifiedScore values are comparable through Overall alone.
package score

import (
	"math"
	"sort"

	"github.com/spigell/job-matcher/internal/model"
)

type Method string

const (
	MethodAI   Method = "ai"
	MethodRule Method = "rule"
)

// Components are the four canonical sub-scores, each in [0,100].
type Components struct {
	Relevance   float64 `json:"relevance"`
	Quality     float64 `json:"quality"`
	Opportunity float64 `json:"opportunity"`
	Timing      float64 `json:"timing"`
}

type UnifiedScore struct {
	Overall     float64    `json:"overall"`
	Components  Components `json:"components"`
	Confidence  float64    `json:"confidence"`
	Method      Method     `json:"method"`
	Explanation string     `json:"explanation,omitempty"`
}

// MatchResult is created once per scoring pass and never mutated afterwards.
type MatchResult struct {
	Job          *model.Job   `json:"job"`
	UnifiedScore UnifiedScore `json:"unifiedScore"`
	MatchReason  string       `json:"matchReason"`
}

// Clamp bounds v to [0,100]. NaN becomes 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// ClampComponents clamps every component.
func ClampComponents(c Components) Components {
	return Components{
		Relevance:   Clamp(c.Relevance),
		Quality:     Clamp(c.Quality),
		Opportunity: Clamp(c.Opportunity),
		Timing:      Clamp(c.Timing),
	}
}

// SortByOverall orders results by Overall descending, keeping input order for ties.
func SortByOverall(results []MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].UnifiedScore.Overall > results[j].UnifiedScore.Overall
	})
}

// JobHash returns the identity of the job behind a result, empty when absent.
func (m MatchResult) JobHash() string {
	if m.Job == nil {
		return ""
	}
	return m.Job.JobHash
}
