// Package matching selects a scoring strategy for a candidate pool and
// reshapes the ranked results with the preference redistributor.
package matching

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/job-matcher/internal/errs"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/model"
	"github.com/spigell/job-matcher/internal/redistribute"
	"github.com/spigell/job-matcher/internal/score"
)

type Mode string

const (
	// ModeAuto prefers the semantic scorer and degrades to the rule scorer.
	ModeAuto     Mode = "auto"
	ModeRule     Mode = "rule"
	ModeSemantic Mode = "semantic"
	// ModeCompare runs both scorers, logs how much they agree and returns
	// the semantic results when there are any.
	ModeCompare Mode = "compare"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeRule, ModeSemantic, ModeCompare:
		return m, nil
	default:
		return "", errs.Config(fmt.Sprintf("unsupported matching mode %q", s), nil)
	}
}

type Options struct {
	Mode Mode `mapstructure:"mode"`
	// MaxMatches bounds each scorer's output. Zero keeps every candidate.
	MaxMatches int `mapstructure:"max-matches"`
}

type Engine struct {
	semantic    Scorer
	rule        Scorer
	distributor *redistribute.Distributor
	opts        Options
	logger      *zap.Logger
	newRunID    func() string
}

// New wires the engine. semantic may be nil when no reasoning client is
// configured; the rule scorer is then used for every request unless the
// mode demands semantic scoring.
func New(semantic, rule Scorer, distributor *redistribute.Distributor, log *zap.Logger, opts Options) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if rule == nil {
		return nil, errs.Config("matching requires a rule scorer", nil)
	}

	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	if semantic == nil && (mode == ModeSemantic || mode == ModeCompare) {
		return nil, errs.Config(fmt.Sprintf("matching mode %q requires a semantic scorer", mode), nil)
	}
	opts.Mode = mode

	if distributor == nil {
		distributor = redistribute.New(log, redistribute.Options{})
	}

	return &Engine{
		semantic:    semantic,
		rule:        rule,
		distributor: distributor,
		opts:        opts,
		logger:      log,
		newRunID:    uuid.NewString,
	}, nil
}

func (e *Engine) Mode() Mode { return e.opts.Mode }

// Match scores jobs for the user and applies the redistribution passes.
func (e *Engine) Match(ctx context.Context, user *model.UserPreferences, jobs []*model.Job) ([]score.MatchResult, error) {
	if user == nil {
		user = &model.UserPreferences{}
	}

	start := time.Now()
	log := logger.WithMatchFields(e.logger, user.Email, string(user.SubscriptionTier), e.newRunID())
	log.Info("matching started", zap.String("mode", string(e.opts.Mode)), zap.Int("jobs", len(jobs)))

	var (
		results []score.MatchResult
		err     error
	)

	switch e.opts.Mode {
	case ModeRule:
		results, err = e.rule.Score(ctx, user, jobs, e.opts.MaxMatches)
	case ModeSemantic:
		results, err = e.semantic.Score(ctx, user, jobs, e.opts.MaxMatches)
	case ModeCompare:
		results, err = e.compare(ctx, log, user, jobs)
	default:
		results, err = e.auto(ctx, log, user, jobs)
	}
	if err != nil {
		return nil, err
	}

	results = e.distributor.ApplyAll(results, user.Cities(), user.Paths(), user.IsPremium())

	log.Info("matching completed",
		zap.String(logger.FieldMethod, string(methodOf(results))),
		zap.Int("matches", len(results)),
		zap.Duration("duration", time.Since(start)),
	)

	return results, nil
}

func (e *Engine) auto(ctx context.Context, log *zap.Logger, user *model.UserPreferences, jobs []*model.Job) ([]score.MatchResult, error) {
	if e.semantic == nil {
		log.Info("semantic scorer is not configured, using rule scorer")
		return e.rule.Score(ctx, user, jobs, e.opts.MaxMatches)
	}

	results, err := e.semantic.Score(ctx, user, jobs, e.opts.MaxMatches)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warn("semantic scoring failed, falling back to rule scorer", zap.Error(err))
		return e.rule.Score(ctx, user, jobs, e.opts.MaxMatches)
	}

	if len(results) == 0 && len(jobs) > 0 {
		log.Warn("semantic scoring returned no matches, falling back to rule scorer")
		return e.rule.Score(ctx, user, jobs, e.opts.MaxMatches)
	}

	return results, nil
}

func (e *Engine) compare(ctx context.Context, log *zap.Logger, user *model.UserPreferences, jobs []*model.Job) ([]score.MatchResult, error) {
	var semanticResults, ruleResults []score.MatchResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		semanticResults, err = e.semantic.Score(gctx, user, jobs, e.opts.MaxMatches)
		return err
	})
	g.Go(func() error {
		var err error
		ruleResults, err = e.rule.Score(gctx, user, jobs, e.opts.MaxMatches)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	shared := Overlap(semanticResults, ruleResults)
	log.Info("scorer comparison",
		zap.Int("semantic", len(semanticResults)),
		zap.Int("rule", len(ruleResults)),
		zap.Int("shared", shared),
	)

	if len(semanticResults) == 0 {
		return ruleResults, nil
	}
	return semanticResults, nil
}

// Overlap counts the jobs present in both result lists.
func Overlap(a, b []score.MatchResult) int {
	seen := make(map[string]struct{}, len(a))
	for _, m := range a {
		if h := m.JobHash(); h != "" {
			seen[h] = struct{}{}
		}
	}
	n := 0
	for _, m := range b {
		if _, ok := seen[m.JobHash()]; ok {
			n++
			delete(seen, m.JobHash())
		}
	}
	return n
}

func methodOf(results []score.MatchResult) score.Method {
	if len(results) == 0 {
		return ""
	}
	return results[0].UnifiedScore.Method
}
