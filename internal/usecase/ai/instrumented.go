package ai

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/itemradar/internal/domain"
	"github.com/kailas-cloud/itemradar/internal/metrics"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
}

// InstrumentedEmbedder wraps Embedder with budget enforcement and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
// This layer owns budget tracking and budget-related metrics only.
type InstrumentedEmbedder struct {
	inner  domain.Embedder
	model  string
	budget BudgetChecker
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with budget and observability.
func NewInstrumentedEmbedder(inner domain.Embedder, model string, budget BudgetChecker, logger *zap.Logger) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{inner: inner, model: model, budget: budget, logger: logger}
}

// Embed checks budget, delegates to the inner embedder, and records usage.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.logger.Error("Budget exceeded",
				zap.String("model", p.model),
				zap.Error(err),
			)
			return domain.EmbeddingResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()

	result, err := p.inner.Embed(ctx, text)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	recordBudget(p.budget, result.TotalTokens)

	p.logger.Debug("Embedding request completed",
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// InstrumentedOracle wraps Oracle with the same budget enforcement the
// embedder gets; both share one BudgetTracker.
type InstrumentedOracle struct {
	inner  domain.Oracle
	model  string
	budget BudgetChecker
	logger *zap.Logger
}

// NewInstrumentedOracle wraps an oracle with budget and observability.
func NewInstrumentedOracle(inner domain.Oracle, model string, budget BudgetChecker, logger *zap.Logger) *InstrumentedOracle {
	return &InstrumentedOracle{inner: inner, model: model, budget: budget, logger: logger}
}

// Generate checks budget, delegates to the inner oracle, and records usage.
func (p *InstrumentedOracle) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	if p.budget != nil {
		if err := p.budget.Check(ctx); err != nil {
			p.logger.Error("Budget exceeded",
				zap.String("model", p.model),
				zap.Error(err),
			)
			return domain.GenerationResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()

	result, err := p.inner.Generate(ctx, prompt)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Oracle request failed",
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.GenerationResult{}, fmt.Errorf("generate: %w", err)
	}

	recordBudget(p.budget, result.TotalTokens)

	p.logger.Debug("Oracle request completed",
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

func recordBudget(budget BudgetChecker, totalTokens int) {
	if budget == nil || totalTokens <= 0 {
		return
	}
	budget.Record(int64(totalTokens))
	remaining := metrics.AIBudgetTokensRemaining
	remaining.WithLabelValues("daily").Set(float64(budget.RemainingDaily()))
	remaining.WithLabelValues("monthly").Set(float64(budget.RemainingMonthly()))
}
