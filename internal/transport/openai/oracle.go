package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/itemradar/internal/domain"
	"github.com/kailas-cloud/itemradar/internal/metrics"
)

// Oracle generates text via OpenAI-compatible chat completions.
type Oracle struct {
	client *openai.Client
	cfg    *Config
	model  string
	logger *zap.Logger
}

// OracleConfig holds the chat completion settings.
type OracleConfig struct {
	Config
	Model  string
	Logger *zap.Logger
}

// NewOracle creates an OpenAI-compatible chat completion provider.
func NewOracle(cfg *OracleConfig) *Oracle {
	return &Oracle{
		client: newClient(&cfg.Config),
		cfg:    &cfg.Config,
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Generate implements domain.Oracle. Runs a single-turn chat completion.
func (o *Oracle) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	start := time.Now()

	resp, err := withRetry(ctx, o.cfg, func(ctx context.Context) (openai.ChatCompletionResponse, error) {
		return o.client.CreateChatCompletion(ctx, req)
	})

	duration := time.Since(start)

	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues("chat", o.model, "error").Inc()
		metrics.AIErrorsTotal.WithLabelValues("chat", o.model, "api_error").Inc()
		return domain.GenerationResult{}, parseAPIError(err, domain.ErrOracleUnavailable)
	}

	if len(resp.Choices) == 0 {
		metrics.AIRequestsTotal.WithLabelValues("chat", o.model, "error").Inc()
		metrics.AIErrorsTotal.WithLabelValues("chat", o.model, "empty_response").Inc()
		return domain.GenerationResult{}, fmt.Errorf("empty chat response: %w", domain.ErrOracleUnavailable)
	}

	metrics.AIRequestsTotal.WithLabelValues("chat", o.model, "success").Inc()
	metrics.AIRequestDuration.WithLabelValues("chat", o.model).Observe(duration.Seconds())

	totalTokens := resp.Usage.TotalTokens
	promptTokens := resp.Usage.PromptTokens
	if totalTokens > 0 {
		metrics.AITokensTotal.WithLabelValues("chat", o.model, "prompt").Add(float64(promptTokens))
		metrics.AITokensTotal.WithLabelValues("chat", o.model, "total").Add(float64(totalTokens))
	}

	return domain.GenerationResult{
		Text:         resp.Choices[0].Message.Content,
		PromptTokens: promptTokens,
		TotalTokens:  totalTokens,
	}, nil
}
