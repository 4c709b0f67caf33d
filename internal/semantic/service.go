// Package semantic scores jobs with an external reasoning model.
package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spigell/job-matcher/internal/ai"
	"github.com/spigell/job-matcher/internal/cache"
	"github.com/spigell/job-matcher/internal/errs"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/model"
	"github.com/spigell/job-matcher/internal/score"
	"github.com/spigell/job-matcher/internal/telemetry"
	"github.com/spigell/job-matcher/internal/utils"
)

var tracer = telemetry.GetTracer("github.com/spigell/job-matcher/internal/semantic")

type Options struct {
	BatchSize    int           `mapstructure:"batch-size"`
	BatchDelay   time.Duration `mapstructure:"batch-delay"`
	MaxTokens    int           `mapstructure:"max-tokens"`
	Temperature  *float64      `mapstructure:"temperature"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	// CacheTTL is applied to every stored batch. Zero uses the backend default.
	CacheTTL time.Duration `mapstructure:"-"`
}

func DefaultOptions() Options {
	return Options{
		BatchSize:    5,
		BatchDelay:   500 * time.Millisecond,
		MaxTokens:    2000,
		Temperature:  float64Ptr(0.3),
		MaxLogLength: 200,
	}
}

func float64Ptr(v float64) *float64 { return &v }

type FindOptions struct {
	// MaxMatches truncates the sorted output. Zero keeps every match.
	MaxMatches int
}

type Service struct {
	reasoner ai.Reasoner
	cache    cache.Cache
	group    singleflight.Group
	opts     Options
	logger   *zap.Logger
}

// New fails when no reasoning client is configured. c may be nil to disable caching.
func New(reasoner ai.Reasoner, c cache.Cache, log *zap.Logger, opts Options) (*Service, error) {
	if reasoner == nil {
		return nil, errs.Config("semantic matching requires a reasoning client", nil)
	}

	defaults := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaults.BatchSize
	}
	if opts.BatchDelay < 0 {
		opts.BatchDelay = 0
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaults.MaxTokens
	}
	// Zero is a valid temperature; only a missing or negative one falls back.
	if opts.Temperature == nil || *opts.Temperature < 0 {
		opts.Temperature = defaults.Temperature
	}
	if opts.MaxLogLength <= 0 {
		opts.MaxLogLength = defaults.MaxLogLength
	}

	return &Service{
		reasoner: reasoner,
		cache:    c,
		opts:     opts,
		logger:   logger.WithModel(log, "", reasoner.Model()),
	}, nil
}

// FindMatches scores jobs batch by batch. A failed batch is logged and
// contributes nothing; the only returned error is cancellation of ctx.
func (s *Service) FindMatches(ctx context.Context, user *model.UserPreferences, jobs []*model.Job, opts FindOptions) ([]score.MatchResult, error) {
	if user == nil {
		user = &model.UserPreferences{}
	}

	pool := make([]*model.Job, 0, len(jobs))
	for _, job := range jobs {
		if job != nil {
			pool = append(pool, job)
		}
	}

	total := (len(pool) + s.opts.BatchSize - 1) / s.opts.BatchSize
	results := make([]score.MatchResult, 0, len(pool))
	failed := 0

	for i := 0; i < total; i++ {
		if i > 0 {
			if err := utils.WaitFor(ctx, s.opts.BatchDelay); err != nil {
				return nil, err
			}
		}

		start := i * s.opts.BatchSize
		batch := pool[start:min(start+s.opts.BatchSize, len(pool))]

		matches, err := s.processBatch(ctx, user, batch, i)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			failed++
			s.logger.Warn("semantic batch failed, skipping",
				zap.Int("batch", i+1),
				zap.Int("batches", total),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			continue
		}

		results = append(results, matches...)
	}

	score.SortByOverall(results)
	if opts.MaxMatches > 0 && len(results) > opts.MaxMatches {
		results = results[:opts.MaxMatches]
	}

	s.logger.Debug("semantic matching completed",
		zap.Int("jobs", len(pool)),
		zap.Int("batches", total),
		zap.Int("failed_batches", failed),
		zap.Int("matches", len(results)),
	)

	return results, nil
}

func (s *Service) processBatch(ctx context.Context, user *model.UserPreferences, batch []*model.Job, index int) ([]score.MatchResult, error) {
	ctx, span := tracer.Start(ctx, "semantic.batch")
	defer span.End()
	span.SetAttributes(
		telemetry.Int("batch.index", index),
		telemetry.Int("batch.size", len(batch)),
		telemetry.Bool("user.premium", user.IsPremium()),
	)

	called := false
	load := func(ctx context.Context) ([]byte, error) {
		called = true
		entries, err := s.score(ctx, user, batch, index)
		if err != nil {
			return nil, err
		}
		return json.Marshal(entries)
	}

	var (
		payload []byte
		err     error
	)
	if s.cache != nil {
		payload, err = cache.GetOrLoad(ctx, s.cache, &s.group, cache.MatchKey(user, batch), s.opts.CacheTTL, load)
	} else {
		payload, err = load(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch failed")
		return nil, err
	}

	cacheResult := "miss"
	if !called {
		cacheResult = "hit"
	}
	span.SetAttributes(telemetry.String("cache.result", cacheResult))

	var entries []scored
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, errs.InvalidResponse("decode cached batch", err)
	}

	out := make([]score.MatchResult, 0, len(entries))
	for _, e := range entries {
		if e.Index < 0 || e.Index >= len(batch) {
			continue
		}
		out = append(out, score.MatchResult{
			Job:          batch[e.Index],
			UnifiedScore: e.Score,
			MatchReason:  e.Reason,
		})
	}

	s.logger.Debug("semantic batch scored",
		zap.Int("batch", index+1),
		zap.Int("batch_size", len(batch)),
		zap.Int("matches", len(out)),
		zap.String("cache", cacheResult),
	)

	return out, nil
}

func (s *Service) score(ctx context.Context, user *model.UserPreferences, batch []*model.Job, index int) ([]scored, error) {
	prompt := builderFor(user).Build(user, batch)

	s.logger.Debug("semantic generate request",
		zap.Int("batch", index+1),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.opts.MaxLogLength)),
	)

	raw, err := s.reasoner.Generate(ctx, ai.Request{
		System:      systemInstruction,
		Prompt:      prompt,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate batch %d: %w", index+1, err)
	}

	s.logger.Debug("semantic generate response",
		zap.Int("batch", index+1),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.opts.MaxLogLength)),
	)

	entries, err := parseResponse(raw, len(batch))
	if err != nil {
		return nil, fmt.Errorf("parse batch %d: %w", index+1, err)
	}
	return entries, nil
}

