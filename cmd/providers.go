package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/ai"
	"github.com/spigell/job-matcher/internal/ai/gemini"
	"github.com/spigell/job-matcher/internal/ai/openrouter"
	"github.com/spigell/job-matcher/internal/cache"
	rediscache "github.com/spigell/job-matcher/internal/cache/redis"
	"github.com/spigell/job-matcher/internal/errs"
	"github.com/spigell/job-matcher/internal/secrets"
)

const databaseURLEnv = "DATABASE_URL"

// client covers both provider capabilities; every provider implements both.
type client interface {
	ai.Reasoner
	ai.Embedder
}

func newCache(ctx context.Context, opts cache.Options, logger *zap.Logger) (cache.Cache, error) {
	switch backend := strings.ToLower(strings.TrimSpace(opts.Backend)); backend {
	case "", cache.BackendMemory:
		logger.Debug("using in-memory cache", zap.Duration("ttl", opts.DefaultTTL))
		return cache.NewMemory(opts.DefaultTTL), nil
	case cache.BackendRedis:
		c, err := rediscache.New(ctx, opts)
		if err != nil {
			return nil, errs.Unavailable("connect redis cache", err)
		}
		logger.Debug("using redis cache", zap.Duration("ttl", opts.DefaultTTL))
		return c, nil
	default:
		return nil, errs.Config(fmt.Sprintf("unsupported cache backend %q", opts.Backend), nil)
	}
}

func newAIClient(ctx context.Context, cfg AIConfig, logger *zap.Logger) (client, error) {
	switch provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); provider {
	case "", ai.ProviderGemini:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			Env:   "GEMINI_API_KEY",
			File:  cfg.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, err
		}
		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini, logger)
		if err != nil {
			return nil, err
		}
		return generator, nil
	case ai.ProviderOpenRouter:
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openrouter api key",
			Value: cfg.OpenRouter.APIKey,
			Env:   "OPENROUTER_API_KEY",
			File:  cfg.OpenRouter.APIKeyFile,
		})
		if err != nil {
			return nil, err
		}
		c, err := openrouter.New(apiKey, cfg.OpenRouter, nil, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, errs.Config(fmt.Sprintf("unsupported ai provider %q", cfg.Provider), nil)
	}
}

// databaseURL returns an empty string when no vector database is configured.
func databaseURL(cfg EmbeddingConfig) (string, error) {
	if cfg.DatabaseURL == "" && cfg.DatabaseURLFile == "" && os.Getenv(databaseURLEnv) == "" {
		return "", nil
	}
	return secrets.Load(secrets.Source{
		Name:  "database url",
		Value: cfg.DatabaseURL,
		Env:   databaseURLEnv,
		File:  cfg.DatabaseURLFile,
	})
}
