package domain

import "context"

// Oracle is the generative language model contract. Output is untrusted,
// unstructured text; callers must parse defensively.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (GenerationResult, error)
}

// GenerationResult carries the oracle's raw text and token usage.
type GenerationResult struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}
