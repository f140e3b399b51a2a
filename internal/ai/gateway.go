// Package ai abstracts one or more model backends behind a single
// "generate text for a prompt" capability. Backends speak the
// OpenAI-compatible chat-completions protocol; which one is used is a
// configuration choice, not a code path.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/cs2central/analytics-api/internal/config"
)

var aiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cs2_ai_requests_total",
	Help: "Total AI backend calls by backend and outcome",
}, []string{"backend", "outcome"})

// Generator is the single capability the prediction engine depends on.
type Generator interface {
	Name() string
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Gateway routes generation requests to the configured backend.
type Gateway struct {
	backend Generator
	logger  *zap.SugaredLogger
}

// New selects a backend from config. It returns nil when the selected
// backend has no credentials, which callers treat as "AI unavailable" and
// route to the statistical fallback.
func New(cfg *config.Config, logger *zap.Logger) *Gateway {
	sugar := logger.Sugar()

	var backend Generator
	switch cfg.AIProvider {
	case config.AIProviderOpenAI:
		if cfg.OpenAIAPIKey != "" {
			backend = newChatBackend("openai", cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, "gpt-4o-mini")
		}
	case config.AIProviderDeepSeek:
		if cfg.DeepSeekAPIKey != "" {
			backend = newChatBackend("deepseek", cfg.DeepSeekBaseURL, cfg.DeepSeekAPIKey, "deepseek-chat")
		}
	default:
		sugar.Warnw("Unknown AI provider", "provider", cfg.AIProvider)
	}

	if backend == nil {
		sugar.Warnw("AI backend not configured, predictions will use statistical fallback",
			"provider", cfg.AIProvider)
		return nil
	}

	sugar.Infow("AI gateway initialized", "backend", backend.Name())
	return &Gateway{backend: backend, logger: sugar}
}

func (g *Gateway) Name() string {
	return g.backend.Name()
}

// Generate submits a prompt pair to the backend and returns its raw text.
func (g *Gateway) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	text, err := g.backend.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		aiRequests.WithLabelValues(g.backend.Name(), "error").Inc()
		g.logger.Warnw("AI generation failed", "backend", g.backend.Name(), "error", err)
		return "", err
	}
	aiRequests.WithLabelValues(g.backend.Name(), "ok").Inc()
	return text, nil
}

// chatBackend is an OpenAI-compatible chat-completions client.
type chatBackend struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func newChatBackend(name, baseURL, apiKey, model string) *chatBackend {
	return &chatBackend{
		name:       name,
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *chatBackend) Name() string { return b.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (b *chatBackend) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: b.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
		MaxTokens:   600,
	})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", b.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("calling %s: status %d: %s", b.name, resp.StatusCode, body)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding %s response: %w", b.name, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from %s", b.name)
	}

	return parsed.Choices[0].Message.Content, nil
}
