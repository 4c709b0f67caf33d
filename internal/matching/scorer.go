package matching

import (
	"context"

	"github.com/spigell/job-matcher/internal/fallback"
	"github.com/spigell/job-matcher/internal/model"
	"github.com/spigell/job-matcher/internal/score"
	"github.com/spigell/job-matcher/internal/semantic"
)

// Scorer turns a candidate pool into ranked results for one user.
type Scorer interface {
	Method() score.Method
	Score(ctx context.Context, user *model.UserPreferences, jobs []*model.Job, maxMatches int) ([]score.MatchResult, error)
}

type SemanticScorer struct {
	service *semantic.Service
}

func NewSemanticScorer(service *semantic.Service) *SemanticScorer {
	return &SemanticScorer{service: service}
}

func (s *SemanticScorer) Method() score.Method { return score.MethodAI }

func (s *SemanticScorer) Score(ctx context.Context, user *model.UserPreferences, jobs []*model.Job, maxMatches int) ([]score.MatchResult, error) {
	return s.service.FindMatches(ctx, user, jobs, semantic.FindOptions{MaxMatches: maxMatches})
}

type RuleScorer struct {
	scorer *fallback.Scorer
}

func NewRuleScorer(scorer *fallback.Scorer) *RuleScorer {
	return &RuleScorer{scorer: scorer}
}

func (r *RuleScorer) Method() score.Method { return score.MethodRule }

// Score never fails; the error is part of the Scorer contract only.
func (r *RuleScorer) Score(_ context.Context, user *model.UserPreferences, jobs []*model.Job, maxMatches int) ([]score.MatchResult, error) {
	return fallback.ToResults(r.scorer.Score(jobs, user, maxMatches)), nil
}

var (
	_ Scorer = (*SemanticScorer)(nil)
	_ Scorer = (*RuleScorer)(nil)
)
