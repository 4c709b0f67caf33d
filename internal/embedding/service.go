// Package embedding generates per-job vectors and hands them to a vector store.
package embedding

import (
	"context"
	"encoding/json"
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
	"github.com/spigell/job-matcher/internal/telemetry"
)

// minSignatureLength is the shortest job signature worth embedding, in runes.
const minSignatureLength = 10

var tracer = telemetry.GetTracer("github.com/spigell/job-matcher/internal/embedding")

type Service struct {
	embedder ai.Embedder
	store    Store
	cache    cache.Cache
	cacheTTL time.Duration
	group    singleflight.Group
	logger   *zap.Logger
}

type Option func(*Service)

// WithStore replaces the default CountingStore.
func WithStore(store Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCache reuses vectors for identical job signatures.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func New(embedder ai.Embedder, log *zap.Logger, opts ...Option) (*Service, error) {
	if embedder == nil {
		return nil, errs.Config("embedding requires an embedding client", nil)
	}

	s := &Service{
		embedder: embedder,
		store:    &CountingStore{},
		logger:   logger.WithModel(log, "", embedder.Model()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// BatchGenerateJobEmbeddings embeds jobs one at a time. Jobs with a short
// signature or a failed call are left out of the result.
func (s *Service) BatchGenerateJobEmbeddings(ctx context.Context, jobs []*model.Job) map[string][]float32 {
	out := make(map[string][]float32, len(jobs))
	skipped, failed := 0, 0

	for _, job := range jobs {
		if ctx.Err() != nil {
			s.logger.Warn("embedding generation interrupted", zap.Int("generated", len(out)), zap.Error(ctx.Err()))
			break
		}
		if job == nil || job.JobHash == "" {
			skipped++
			continue
		}

		signature := job.Signature()
		if utf8.RuneCountInString(signature) < minSignatureLength {
			skipped++
			s.logger.Debug("job signature too short, skipping embedding",
				logger.JobHash(job.JobHash),
				zap.Int("signature_length", utf8.RuneCountInString(signature)),
			)
			continue
		}

		vec, err := s.embed(ctx, job.JobHash, signature)
		if err != nil {
			failed++
			s.logger.Warn("job embedding failed, skipping",
				logger.JobHash(job.JobHash),
				zap.Error(err),
			)
			continue
		}

		out[job.JobHash] = vec
	}

	s.logger.Info("job embeddings generated",
		zap.Int("jobs", len(jobs)),
		zap.Int("generated", len(out)),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	return out
}

func (s *Service) embed(ctx context.Context, hash, signature string) ([]float32, error) {
	ctx, span := tracer.Start(ctx, "embedding.generate")
	defer span.End()
	span.SetAttributes(telemetry.String("job.hash", hash))

	vec, err := s.load(ctx, signature)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return nil, err
	}
	span.SetAttributes(telemetry.Int("embedding.dimensions", len(vec)))
	return vec, nil
}

func (s *Service) load(ctx context.Context, signature string) ([]float32, error) {
	if s.cache == nil {
		return s.embedder.Embed(ctx, signature)
	}

	payload, err := cache.GetOrLoad(ctx, s.cache, &s.group, cache.EmbeddingKey(signature), s.cacheTTL, func(ctx context.Context) ([]byte, error) {
		vec, err := s.embedder.Embed(ctx, signature)
		if err != nil {
			return nil, err
		}
		return json.Marshal(vec)
	})
	if err != nil {
		return nil, err
	}

	var vec []float32
	if err := json.Unmarshal(payload, &vec); err != nil {
		return nil, errs.InvalidResponse("decode cached embedding", err)
	}
	return vec, nil
}

// StoreEmbeddings persists vectors through the configured store and returns
// how many were written.
func (s *Service) StoreEmbeddings(ctx context.Context, vectors map[string][]float32) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}

	n, err := s.store.Upsert(ctx, vectors)
	if err != nil {
		return n, err
	}

	s.logger.Info("job embeddings stored", zap.Int("count", n))
	return n, nil
}

// Similar returns the nearest stored jobs to vector. Stores without search
// support return an InvalidInput error.
func (s *Service) Similar(ctx context.Context, vector []float32, limit int) ([]Neighbor, error) {
	searcher, ok := s.store.(Searcher)
	if !ok {
		return nil, errs.InvalidInput("configured embedding store does not support similarity search", nil)
	}
	return searcher.Similar(ctx, vector, limit)
}

// SimilarToText embeds text and returns its nearest stored jobs.
func (s *Service) SimilarToText(ctx context.Context, text string, limit int) ([]Neighbor, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return s.Similar(ctx, vec, limit)
}
