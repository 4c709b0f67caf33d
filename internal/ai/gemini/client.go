package gemini

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/job-matcher/internal/ai"
	"github.com/spigell/job-matcher/internal/errs"
	"github.com/spigell/job-matcher/internal/logger"
	"github.com/spigell/job-matcher/internal/utils"
)

const (
	defaultModel          = "gemini-2.5-pro"
	defaultEmbeddingModel = "gemini-embedding-001"
	defaultMaxRetries     = 3
	baseRetryDelay        = time.Second
	maxRetryDelay         = 30 * time.Second
)

var wait = utils.WaitFor

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) ([0-9]+(?:\.[0-9]+)?)\s*s`)

// models is the subset of genai.Models used by the Generator.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type Config struct {
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding-model"`
	MaxRetries     int    `mapstructure:"max-retries"`
}

// Generator wraps the Google GenAI client for prompt and embedding calls.
type Generator struct {
	models         models
	model          string
	embeddingModel string
	maxRetries     int
	logger         *zap.Logger
}

var (
	_ ai.Reasoner = (*Generator)(nil)
	_ ai.Embedder = (*Generator)(nil)
)

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errs.Config("gemini api key is required", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errs.Config("create genai client", err)
	}

	return newGenerator(client.Models, cfg, log), nil
}

func newGenerator(m models, cfg Config, log *zap.Logger) *Generator {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	embeddingModel := strings.TrimSpace(cfg.EmbeddingModel)
	if embeddingModel == "" {
		embeddingModel = defaultEmbeddingModel
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	return &Generator{
		models:         m,
		model:          model,
		embeddingModel: embeddingModel,
		maxRetries:     retries,
		logger:         logger.WithModel(log, ai.ProviderGemini, model),
	}
}

// Generate sends the prompt to Gemini and returns the joined text parts of
// the response.
func (g *Generator) Generate(ctx context.Context, req ai.Request) (string, error) {
	if g == nil || g.models == nil {
		return "", errs.Config("gemini generator is not initialized", nil)
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errs.InvalidInput("prompt must not be empty", nil)
	}

	config := &genai.GenerateContentConfig{}
	if system := strings.TrimSpace(req.System); system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		temperature := float32(*req.Temperature)
		config.Temperature = &temperature
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	var output string
	err := g.withRetry(ctx, "generate content", func() error {
		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
		if err != nil {
			return err
		}
		output = responseText(resp)
		return nil
	})
	if err != nil {
		return "", err
	}

	if output == "" {
		return "", errs.InvalidResponse("gemini api returned empty response", nil)
	}
	return output, nil
}

// Embed returns the embedding vector for text.
func (g *Generator) Embed(ctx context.Context, text string) ([]float32, error) {
	if g == nil || g.models == nil {
		return nil, errs.Config("gemini generator is not initialized", nil)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.InvalidInput("embedding text must not be empty", nil)
	}

	var values []float32
	err := g.withRetry(ctx, "embed content", func() error {
		resp, err := g.models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), nil)
		if err != nil {
			return err
		}
		if resp != nil && len(resp.Embeddings) > 0 && resp.Embeddings[0] != nil {
			values = resp.Embeddings[0].Values
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(values) == 0 {
		return nil, errs.InvalidResponse("gemini api returned empty embedding", nil)
	}
	return values, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) withRetry(ctx context.Context, op string, call func() error) error {
	for attempt := 1; ; attempt++ {
		err := call()
		if err == nil {
			return nil
		}

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt >= g.maxRetries {
			return errs.Unavailable("gemini "+op, err)
		}
		if delay > maxRetryDelay {
			g.logger.Warn("gemini retry delay too long, giving up",
				zap.String("operation", op),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			return errs.Unavailable("gemini "+op, err)
		}

		g.logger.Warn("gemini temporary error, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return err
		}
	}
}

// retryDelay reports whether err is temporary and how long to wait. A delay
// hinted by the API wins over exponential backoff.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		var ptr *genai.APIError
		if !errors.As(err, &ptr) || ptr == nil {
			return 0, false
		}
		apiErr = *ptr
	}

	if apiErr.Code != http.StatusTooManyRequests && apiErr.Code < http.StatusInternalServerError {
		return 0, false
	}

	if m := retryAfterPattern.FindStringSubmatch(apiErr.Message); len(m) == 2 {
		if secs, perr := strconv.ParseFloat(m[1], 64); perr == nil {
			return time.Duration(secs * float64(time.Second)), true
		}
	}

	return baseRetryDelay << (attempt - 1), true
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

