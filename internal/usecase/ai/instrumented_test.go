package ai

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/itemradar/internal/domain"
)

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return m.embedFn(ctx, text)
}

type mockOracle struct {
	generateFn func(ctx context.Context, prompt string) (domain.GenerationResult, error)
}

func (m *mockOracle) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	return m.generateFn(ctx, prompt)
}

func TestInstrumentedEmbedder_BudgetRejectBlocksCall(t *testing.T) {
	called := false
	inner := &mockEmbedder{
		embedFn: func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
			called = true
			return domain.EmbeddingResult{}, nil
		},
	}
	budget := NewBudgetTracker(100, 0, BudgetActionReject, zap.NewNop())
	budget.Record(100)

	emb := NewInstrumentedEmbedder(inner, "test-model", budget, zap.NewNop())

	_, err := emb.Embed(context.Background(), "black wallet")
	if !errors.Is(err, domain.ErrAIQuotaExceeded) {
		t.Fatalf("expected domain.ErrAIQuotaExceeded, got %v", err)
	}
	if called {
		t.Error("inner embedder must not be called when budget is exhausted")
	}
}

func TestInstrumentedEmbedder_RecordsTokensOnSuccess(t *testing.T) {
	inner := &mockEmbedder{
		embedFn: func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{
				Embedding:    []float32{0.1, 0.2, 0.3},
				PromptTokens: 7,
				TotalTokens:  7,
			}, nil
		},
	}
	budget := NewBudgetTracker(1000, 0, BudgetActionReject, zap.NewNop())

	emb := NewInstrumentedEmbedder(inner, "test-model", budget, zap.NewNop())

	result, err := emb.Embed(context.Background(), "black wallet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Errorf("expected embedding passed through, got %v", result.Embedding)
	}
	if used := budget.DailyUsed(); used != 7 {
		t.Errorf("expected 7 tokens recorded, got %d", used)
	}
}

func TestInstrumentedEmbedder_InnerErrorPropagates(t *testing.T) {
	inner := &mockEmbedder{
		embedFn: func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
		},
	}
	budget := NewBudgetTracker(1000, 0, BudgetActionReject, zap.NewNop())

	emb := NewInstrumentedEmbedder(inner, "test-model", budget, zap.NewNop())

	_, err := emb.Embed(context.Background(), "black wallet")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected domain.ErrEmbeddingProviderError, got %v", err)
	}
	if used := budget.DailyUsed(); used != 0 {
		t.Errorf("failed requests must not consume budget, got %d", used)
	}
}

func TestInstrumentedEmbedder_NilBudgetAllowed(t *testing.T) {
	inner := &mockEmbedder{
		embedFn: func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{Embedding: []float32{0.5}, TotalTokens: 3}, nil
		},
	}

	emb := NewInstrumentedEmbedder(inner, "test-model", nil, zap.NewNop())

	if _, err := emb.Embed(context.Background(), "black wallet"); err != nil {
		t.Fatalf("unexpected error with nil budget: %v", err)
	}
}

func TestInstrumentedOracle_BudgetRejectBlocksCall(t *testing.T) {
	called := false
	inner := &mockOracle{
		generateFn: func(_ context.Context, _ string) (domain.GenerationResult, error) {
			called = true
			return domain.GenerationResult{}, nil
		},
	}
	budget := NewBudgetTracker(100, 0, BudgetActionReject, zap.NewNop())
	budget.Record(100)

	o := NewInstrumentedOracle(inner, "test-model", budget, zap.NewNop())

	_, err := o.Generate(context.Background(), "extract attributes")
	if !errors.Is(err, domain.ErrAIQuotaExceeded) {
		t.Fatalf("expected domain.ErrAIQuotaExceeded, got %v", err)
	}
	if called {
		t.Error("inner oracle must not be called when budget is exhausted")
	}
}

func TestInstrumentedOracle_SharesBudgetWithEmbedder(t *testing.T) {
	budget := NewBudgetTracker(100, 0, BudgetActionReject, zap.NewNop())

	emb := NewInstrumentedEmbedder(&mockEmbedder{
		embedFn: func(_ context.Context, _ string) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 100}, nil
		},
	}, "test-model", budget, zap.NewNop())

	if _, err := emb.Embed(context.Background(), "black wallet"); err != nil {
		t.Fatalf("unexpected embed error: %v", err)
	}

	o := NewInstrumentedOracle(&mockOracle{
		generateFn: func(_ context.Context, _ string) (domain.GenerationResult, error) {
			return domain.GenerationResult{Text: "{}"}, nil
		},
	}, "test-model", budget, zap.NewNop())

	_, err := o.Generate(context.Background(), "extract attributes")
	if !errors.Is(err, domain.ErrAIQuotaExceeded) {
		t.Fatalf("expected oracle blocked by embedder usage, got %v", err)
	}
}

func TestInstrumentedOracle_PassesTextThrough(t *testing.T) {
	inner := &mockOracle{
		generateFn: func(_ context.Context, _ string) (domain.GenerationResult, error) {
			return domain.GenerationResult{Text: `{"category": "bags"}`, TotalTokens: 42}, nil
		},
	}
	budget := NewBudgetTracker(1000, 0, BudgetActionReject, zap.NewNop())

	o := NewInstrumentedOracle(inner, "test-model", budget, zap.NewNop())

	result, err := o.Generate(context.Background(), "extract attributes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != `{"category": "bags"}` {
		t.Errorf("unexpected text: %q", result.Text)
	}
	if used := budget.DailyUsed(); used != 42 {
		t.Errorf("expected 42 tokens recorded, got %d", used)
	}
}
