package semantic

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/job-matcher/internal/errs"
	"github.com/spigell/job-matcher/internal/score"
)

const (
	defaultConfidence = 50
	defaultReason     = "Recommended by AI analysis"
)

// Proportions used to derive components when the response has no breakdown.
const (
	shareRelevance   = 0.4
	shareQuality     = 0.3
	shareOpportunity = 0.2
	shareTiming      = 0.1
)

type rawBreakdown struct {
	Skills     *float64 `mapstructure:"skills"`
	Company    *float64 `mapstructure:"company"`
	Experience *float64 `mapstructure:"experience"`
	Location   *float64 `mapstructure:"location"`
}

type rawMatch struct {
	JobIndex        int           `mapstructure:"jobIndex"`
	MatchScore      *float64      `mapstructure:"matchScore"`
	ConfidenceScore *float64      `mapstructure:"confidenceScore"`
	MatchReason     string        `mapstructure:"matchReason"`
	ScoreBreakdown  *rawBreakdown `mapstructure:"scoreBreakdown"`
}

// scored is a parsed entry bound to a zero-based position in its batch. It is
// also the cached form of a batch result.
type scored struct {
	Index  int                `json:"index"`
	Score  score.UnifiedScore `json:"score"`
	Reason string             `json:"reason"`
}

// parseResponse decodes {"matches":[...]} and keeps entries whose 1-based
// jobIndex falls inside the batch. Later duplicates of an index are dropped.
func parseResponse(raw string, batchSize int) ([]scored, error) {
	cleaned := extractJSON(raw)

	var doc map[string]any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, errs.InvalidResponse("parse response json", err)
	}

	rawMatches, ok := doc["matches"]
	if !ok {
		return nil, errs.InvalidResponse("response has no matches key", nil)
	}
	entries, ok := rawMatches.([]any)
	if !ok {
		if rawMatches == nil {
			return []scored{}, nil
		}
		return nil, errs.InvalidResponse(fmt.Sprintf("matches is %T, not a list", rawMatches), nil)
	}

	seen := make(map[int]struct{}, len(entries))
	out := make([]scored, 0, len(entries))
	for _, entry := range entries {
		var m rawMatch
		if err := decode(entry, &m); err != nil {
			continue
		}

		idx := m.JobIndex - 1
		if idx < 0 || idx >= batchSize {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}

		out = append(out, toScored(idx, m))
	}

	return out, nil
}

func decode(input any, out *rawMatch) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func toScored(idx int, m rawMatch) scored {
	overall := score.Clamp(valueOr(m.MatchScore, 0))
	confidence := score.Clamp(valueOr(m.ConfidenceScore, defaultConfidence))

	derived := score.Components{
		Relevance:   overall * shareRelevance,
		Quality:     overall * shareQuality,
		Opportunity: overall * shareOpportunity,
		Timing:      overall * shareTiming,
	}
	components := derived
	if b := m.ScoreBreakdown; b != nil {
		components = score.Components{
			Relevance:   valueOr(b.Skills, derived.Relevance),
			Quality:     valueOr(b.Company, derived.Quality),
			Opportunity: valueOr(b.Experience, derived.Opportunity),
			Timing:      valueOr(b.Location, derived.Timing),
		}
	}
	components = score.ClampComponents(components)

	reason := strings.TrimSpace(m.MatchReason)
	if reason == "" {
		reason = defaultReason
	}

	return scored{
		Index: idx,
		Score: score.UnifiedScore{
			Overall:     overall,
			Components:  components,
			Confidence:  confidence,
			Method:      score.MethodAI,
			Explanation: explain(overall, confidence, components, m.ScoreBreakdown != nil),
		},
		Reason: reason,
	}
}

func explain(overall, confidence float64, c score.Components, hasBreakdown bool) string {
	source := "derived from overall"
	if hasBreakdown {
		source = "model breakdown"
	}
	return fmt.Sprintf("AI score %.0f/100 with %.0f%% confidence (%s): skills %.0f, company %.0f, experience %.0f, location %.0f",
		overall, confidence, source, c.Relevance, c.Quality, c.Opportunity, c.Timing)
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return fallback
	}
	return *v
}

// extractJSON strips code fences and any prose around the outermost object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	if !strings.HasPrefix(raw, "{") {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start != -1 && end > start {
			raw = raw[start : end+1]
		}
	}
	return raw
}
