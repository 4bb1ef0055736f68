package match

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/itemradar/internal/domain/geo"
	domitem "github.com/kailas-cloud/itemradar/internal/domain/item"
	domsession "github.com/kailas-cloud/itemradar/internal/domain/session"
	"github.com/kailas-cloud/itemradar/internal/metrics"
)

// Service finds candidate counterparts for a registered item and ranks
// them by composite confidence.
type Service struct {
	repo     Repository
	embedder Embedder
	topK     int
	logger   *zap.Logger
}

// New creates a match service. topK bounds how many nearest neighbors are
// pulled from the vector index before type/status filtering.
func New(repo Repository, embedder Embedder, topK int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = 50
	}
	return &Service{repo: repo, embedder: embedder, topK: topK, logger: logger}
}

// FindMatches returns candidates of the opposite type for the given item,
// ordered by descending confidence. The full ranked list is returned;
// thresholding is the caller's policy.
func (s *Service) FindMatches(ctx context.Context, itemID string) ([]domsession.Match, error) {
	source, err := s.repo.Get(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get source item: %w", err)
	}

	vector := source.Vector()
	if len(vector) == 0 {
		// Item was stored without a vector (embedding outage at
		// registration). Try again now.
		result, embedErr := s.embedder.Embed(ctx, source.CompositeText())
		if embedErr != nil {
			return nil, fmt.Errorf("vectorize source item: %w", embedErr)
		}
		vector = result.Embedding
	}

	neighbors, err := s.repo.SearchNearest(ctx, vector, source.Type().Opposite(), s.topK)
	if err != nil {
		return nil, fmt.Errorf("search neighbors: %w", err)
	}

	metrics.MatchSearchesTotal.Inc()
	metrics.MatchCandidates.Observe(float64(len(neighbors)))

	matches := make([]domsession.Match, 0, len(neighbors))
	for i := range neighbors {
		n := &neighbors[i]
		matches = append(matches, toMatch(&source, &n.Item, n.Similarity))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	s.logger.Debug("Match search completed",
		zap.String("item_id", itemID),
		zap.Int("candidates", len(matches)),
	)

	return matches, nil
}

func toMatch(source, candidate *domitem.Item, similarity float64) domsession.Match {
	loc := candidate.Location()
	srcLoc := source.Location()
	return domsession.Match{
		ItemID:       candidate.ID(),
		Confidence:   confidence(source, candidate, similarity),
		Description:  description(candidate),
		Category:     candidate.Category(),
		Subcategory:  candidate.Subcategory(),
		Attributes:   candidate.Attributes(),
		Keywords:     candidate.Keywords(),
		Address:      loc.Address,
		DistanceKm:   geo.Haversine(srcLoc.Latitude, srcLoc.Longitude, loc.Latitude, loc.Longitude),
		ContactEmail: candidate.ContactEmail(),
	}
}

func description(it *domitem.Item) string {
	if it.AIDescription() != "" {
		return it.AIDescription()
	}
	return it.RawDescription()
}
