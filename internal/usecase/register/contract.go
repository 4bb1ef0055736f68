package register

import (
	"context"

	"github.com/kailas-cloud/itemradar/internal/domain"
	domitem "github.com/kailas-cloud/itemradar/internal/domain/item"
	"github.com/kailas-cloud/itemradar/internal/usecase/extract"
)

// Repository defines the storage contract for items.
type Repository interface {
	Save(ctx context.Context, it *domitem.Item) error
	Get(ctx context.Context, id string) (domitem.Item, error)
	ListByCategory(ctx context.Context, category string, status domitem.Status, offset, limit int) ([]domitem.Item, int, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Extractor turns a raw description into a structured extraction.
type Extractor interface {
	Extract(ctx context.Context, rawDescription string) extract.Extraction
}

// Geocoder resolves coordinates to a human-readable address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}
