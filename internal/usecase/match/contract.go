package match

import (
	"context"

	"github.com/kailas-cloud/itemradar/internal/domain"
	domitem "github.com/kailas-cloud/itemradar/internal/domain/item"
)

// Repository defines the storage contract for candidate retrieval.
type Repository interface {
	Get(ctx context.Context, id string) (domitem.Item, error)
	SearchNearest(ctx context.Context, vector []float32, itemType domitem.Type, k int) ([]domitem.Neighbor, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
