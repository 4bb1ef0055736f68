package extract

import (
	"context"

	"github.com/kailas-cloud/itemradar/internal/domain"
)

// Oracle generates free-form text from a prompt.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (domain.GenerationResult, error)
}
