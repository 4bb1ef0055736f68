package register

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/itemradar/internal/domain"
	domitem "github.com/kailas-cloud/itemradar/internal/domain/item"
)

// Input carries the fields a user submits when registering an item.
type Input struct {
	Type         domitem.Type
	Description  string
	Latitude     float64
	Longitude    float64
	Address      string
	ContactEmail string
}

// BatchResult reports the outcome of one entry in a batch registration.
type BatchResult struct {
	ItemID string
	Err    error
}

// Service registers lost and found items: validation, geocoding,
// attribute extraction, vectorization and persistence.
type Service struct {
	repo      Repository
	embedder  Embedder
	extractor Extractor
	geocoder  Geocoder
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a registration service. The geocoder may be nil, in which
// case items keep whatever address the caller supplied.
func New(repo Repository, embedder Embedder, extractor Extractor, geocoder Geocoder, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		embedder:  embedder,
		extractor: extractor,
		geocoder:  geocoder,
		logger:    logger,
		now:       time.Now,
	}
}

// Register validates and stores a single item. Geocoding and vectorization
// failures are degraded, not fatal: an item without an address or a vector
// is still stored and retrievable. Only validation and document persistence
// can fail the registration.
func (s *Service) Register(ctx context.Context, in Input) (domitem.Item, error) {
	address := in.Address
	if address == "" && s.geocoder != nil {
		resolved, err := s.geocoder.ReverseGeocode(ctx, in.Latitude, in.Longitude)
		if err != nil {
			s.logger.Warn("Reverse geocoding failed, storing item without address",
				zap.Float64("lat", in.Latitude),
				zap.Float64("lon", in.Longitude),
				zap.Error(err),
			)
		} else {
			address = resolved
		}
	}

	it, err := domitem.New(
		domitem.NewID(in.Type), in.Type, in.Description,
		in.Latitude, in.Longitude, address, in.ContactEmail,
		s.now(),
	)
	if err != nil {
		return domitem.Item{}, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	ext := s.extractor.Extract(ctx, it.RawDescription())
	it = it.WithExtraction(
		ext.AIDescription, ext.Category, ext.Subcategory,
		ext.Attributes, ext.Keywords, ext.Synonyms,
	)

	result, err := s.embedder.Embed(ctx, it.CompositeText())
	if err != nil {
		// The item stays findable by ID and category; it just won't
		// surface in vector search until re-registered.
		s.logger.Warn("Vectorization failed, storing item without vector",
			zap.String("item_id", it.ID()),
			zap.Error(err),
		)
	} else {
		it = it.WithVector(result.Embedding)
	}

	if err := s.repo.Save(ctx, &it); err != nil {
		return domitem.Item{}, fmt.Errorf("save item: %w", err)
	}

	s.logger.Info("Item registered",
		zap.String("item_id", it.ID()),
		zap.String("type", string(it.Type())),
		zap.String("category", it.Category()),
		zap.Bool("has_vector", len(it.Vector()) > 0),
	)

	return it, nil
}

// BatchRegister registers many items in one call (bulk found-item upload).
// Each entry succeeds or fails independently; results keep input order.
func (s *Service) BatchRegister(ctx context.Context, inputs []Input) []BatchResult {
	results := make([]BatchResult, len(inputs))
	for i, in := range inputs {
		it, err := s.Register(ctx, in)
		if err != nil {
			results[i] = BatchResult{Err: err}
			continue
		}
		results[i] = BatchResult{ItemID: it.ID()}
	}
	return results
}

// Get returns a stored item by ID.
func (s *Service) Get(ctx context.Context, id string) (domitem.Item, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return domitem.Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ListByCategory returns a page of items in a category, newest-first per
// the index, plus the total count. Status is optional; an empty status
// lists items in every lifecycle state.
func (s *Service) ListByCategory(ctx context.Context, category string, status domitem.Status, offset, limit int) ([]domitem.Item, int, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return nil, 0, fmt.Errorf("%w: category is required", domain.ErrValidation)
	}
	switch status {
	case "", domitem.StatusActive, domitem.StatusMatched, domitem.StatusExpired, domitem.StatusSpam:
	default:
		return nil, 0, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	items, total, err := s.repo.ListByCategory(ctx, category, status, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	return items, total, nil
}

// StatusAction is a lifecycle transition requested for an item.
type StatusAction string

const (
	ActionMatch  StatusAction = "matched"
	ActionExpire StatusAction = "expired"
	ActionSpam   StatusAction = "spam"
)

// UpdateStatus applies a lifecycle transition to an item.
// Only active items can transition. The matched action requires the
// counterpart item id, which is stored as a back-reference.
func (s *Service) UpdateStatus(ctx context.Context, id string, action StatusAction, matchedWith string) (domitem.Item, error) {
	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return domitem.Item{}, fmt.Errorf("get item: %w", err)
	}

	var updated domitem.Item
	switch action {
	case ActionMatch:
		if matchedWith == "" {
			return domitem.Item{}, fmt.Errorf("%w: matched_with is required for the matched action", domain.ErrValidation)
		}
		updated, err = it.MarkMatched(matchedWith)
	case ActionExpire:
		updated, err = it.MarkExpired()
	case ActionSpam:
		updated, err = it.MarkSpam()
	default:
		return domitem.Item{}, fmt.Errorf("%w: unknown status action %q", domain.ErrValidation, action)
	}
	if err != nil {
		return domitem.Item{}, fmt.Errorf("%w: %s", domain.ErrInvalidTransition, err)
	}

	if err := s.repo.Save(ctx, &updated); err != nil {
		return domitem.Item{}, fmt.Errorf("save item: %w", err)
	}

	s.logger.Info("Item status updated",
		zap.String("item_id", id),
		zap.String("status", string(updated.Status())),
		zap.String("matched_with", updated.MatchedWith()),
	)

	return updated, nil
}

// LinkMatched marks both sides of a confirmed match and stores the
// back-references. Both items must still be active.
func (s *Service) LinkMatched(ctx context.Context, lostID, foundID string) error {
	lost, err := s.repo.Get(ctx, lostID)
	if err != nil {
		return fmt.Errorf("get lost item: %w", err)
	}
	found, err := s.repo.Get(ctx, foundID)
	if err != nil {
		return fmt.Errorf("get found item: %w", err)
	}

	lostMatched, err := lost.MarkMatched(foundID)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidTransition, err)
	}
	foundMatched, err := found.MarkMatched(lostID)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidTransition, err)
	}

	if err := s.repo.Save(ctx, &lostMatched); err != nil {
		return fmt.Errorf("save lost item: %w", err)
	}
	if err := s.repo.Save(ctx, &foundMatched); err != nil {
		return fmt.Errorf("save found item: %w", err)
	}

	s.logger.Info("Matched pair linked",
		zap.String("lost_item_id", lostID),
		zap.String("found_item_id", foundID),
	)
	return nil
}
