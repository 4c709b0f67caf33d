// Package openrouter is a minimal OpenAI-compatible client for chat
// completions and embeddings.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/ai"
	"github.com/spigell/job-matcher/internal/errs"
	"github.com/spigell/job-matcher/internal/logger"
)

const (
	defaultBaseURL        = "https://openrouter.ai/api/v1"
	defaultModel          = "openai/gpt-4o-mini"
	defaultEmbeddingModel = "openai/text-embedding-3-small"
	defaultTimeout        = 60 * time.Second
	appTitle              = "job-matcher"
)

type Config struct {
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	BaseURL        string `mapstructure:"base-url"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding-model"`
}

type Client struct {
	apiKey         string
	baseURL        string
	model          string
	embeddingModel string
	http           *http.Client
	logger         *zap.Logger
}

var (
	_ ai.Reasoner = (*Client)(nil)
	_ ai.Embedder = (*Client)(nil)
)

func New(apiKey string, cfg Config, httpClient *http.Client, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errs.Config("openrouter api key is required", nil)
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	embeddingModel := strings.TrimSpace(cfg.EmbeddingModel)
	if embeddingModel == "" {
		embeddingModel = defaultEmbeddingModel
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		apiKey:         apiKey,
		baseURL:        base,
		model:          model,
		embeddingModel: embeddingModel,
		http:           httpClient,
		logger:         logger.WithModel(log, ai.ProviderOpenRouter, model),
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *Client) Generate(ctx context.Context, req ai.Request) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", errs.InvalidInput("prompt must not be empty", nil)
	}

	body := chatRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if system := strings.TrimSpace(req.System); system != "" {
		body.Messages = append(body.Messages, message{Role: "system", Content: system})
	}
	body.Messages = append(body.Messages, message{Role: "user", Content: prompt})
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	var out chatResponse
	if err := c.post(ctx, "/chat/completions", body, &out); err != nil {
		return "", err
	}

	if len(out.Choices) == 0 {
		return "", errs.InvalidResponse("no choices returned by model", nil)
	}
	content := strings.TrimSpace(out.Choices[0].Message.Content)
	if content == "" {
		return "", errs.InvalidResponse("model returned empty content", nil)
	}

	c.logger.Debug("openrouter chat completion",
		zap.String("finish_reason", out.Choices[0].FinishReason),
		zap.Int("response_length", len(content)),
	)
	return content, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.InvalidInput("embedding text must not be empty", nil)
	}

	var out embeddingResponse
	if err := c.post(ctx, "/embeddings", embeddingRequest{Model: c.embeddingModel, Input: text}, &out); err != nil {
		return nil, err
	}

	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, errs.InvalidResponse("no embedding returned by model", nil)
	}
	return out.Data[0].Embedding, nil
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", appTitle)

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.Unavailable("openrouter request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errs.Unavailable(fmt.Sprintf("openrouter http %d", resp.StatusCode), fmt.Errorf("%s", strings.TrimSpace(string(snippet))))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.InvalidResponse("decode openrouter response", err)
	}
	return nil
}
