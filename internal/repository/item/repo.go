package item

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/itemradar/internal/db"
	"github.com/kailas-cloud/itemradar/internal/domain"
	domitem "github.com/kailas-cloud/itemradar/internal/domain/item"
)

// IndexName is the FT index over item documents.
const IndexName = "itemradar:items-idx"

// store is the consumer interface for items (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string, value []byte) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements the item repositories of the register and match services.
type Repo struct {
	store store
}

// New creates an item repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the FT index over item documents if it does not exist.
func (r *Repo) EnsureIndex(ctx context.Context, dim, hnswM, hnswEF int) error {
	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def := db.NewIndex(IndexName).
		Prefix(domain.KeyPrefix + "item:").
		Tag("$.type", "type").
		Tag("$.status", "status").
		Tag("$.category", "category").
		Tag("$.geohash", "geohash").
		Numeric("$.created_at", "created_at").
		VectorHNSW("$.vector", "vector", dim, db.DistanceCosine, hnswM, hnswEF).
		MustBuild()

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Save stores an item document and its category lookup key.
func (r *Repo) Save(ctx context.Context, it *domitem.Item) error {
	doc := toDoc(it)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	if err := r.store.JSONSet(ctx, itemKey(it.ID()), "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", itemKey(it.ID()), err)
	}

	// Category lookup key, keeps per-category listings cheap.
	catKey := categoryKey(it.Category(), it.ID())
	if err := r.store.Set(ctx, catKey, []byte(it.ID())); err != nil {
		return fmt.Errorf("set %s: %w", catKey, err)
	}

	return nil
}

// Get returns an item by ID.
func (r *Repo) Get(ctx context.Context, id string) (domitem.Item, error) {
	raw, err := r.store.JSONGet(ctx, itemKey(id), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domitem.Item{}, domain.ErrItemNotFound
		}
		return domitem.Item{}, fmt.Errorf("json.get %s: %w", itemKey(id), err)
	}
	return parseItemJSON(raw)
}

// Exists reports whether an item is stored.
func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, itemKey(id))
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", itemKey(id), err)
	}
	return ok, nil
}

// SearchNearest returns up to k active items of the given type, ordered by
// descending cosine similarity to the query vector.
func (r *Repo) SearchNearest(ctx context.Context, vector []float32, itemType domitem.Type, k int) ([]domitem.Neighbor, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName: IndexName,
		Filter: db.AllFilters(
			db.TagFilter("type", string(itemType)),
			db.TagFilter("status", string(domitem.StatusActive)),
		),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{"$", "__vector_score"},
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	neighbors := make([]domitem.Neighbor, 0, len(res.Entries))
	for _, entry := range res.Entries {
		raw := entry.Fields["$"]
		if raw == "" {
			continue
		}
		var doc itemDoc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			continue
		}
		it := doc.toDomain()
		neighbors = append(neighbors, domitem.Neighbor{Item: it, Similarity: entry.Score})
	}

	return neighbors, nil
}

// ListByCategory returns a page of items in the given category via the FT
// index, plus the total count. An empty status lists all of them.
func (r *Repo) ListByCategory(ctx context.Context, category string, status domitem.Status, offset, limit int) ([]domitem.Item, int, error) {
	clauses := []string{db.TagFilter("category", category)}
	if status != "" {
		clauses = append(clauses, db.TagFilter("status", string(status)))
	}

	res, err := r.store.SearchList(ctx, IndexName, db.AllFilters(clauses...), offset, limit, []string{"$"})
	if err != nil {
		return nil, 0, fmt.Errorf("list by category: %w", err)
	}

	items := make([]domitem.Item, 0, len(res.Entries))
	for _, entry := range res.Entries {
		raw := entry.Fields["$"]
		if raw == "" {
			continue
		}
		var doc itemDoc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			continue
		}
		items = append(items, doc.toDomain())
	}
	return items, res.Total, nil
}

// CountByStatus returns the number of items with the given status.
func (r *Repo) CountByStatus(ctx context.Context, status domitem.Status) (int, error) {
	n, err := r.store.SearchCount(ctx, IndexName, db.TagFilter("status", string(status)))
	if err != nil {
		return 0, fmt.Errorf("count by status: %w", err)
	}
	return n, nil
}

// CountByType returns the number of items with the given type.
func (r *Repo) CountByType(ctx context.Context, t domitem.Type) (int, error) {
	n, err := r.store.SearchCount(ctx, IndexName, db.TagFilter("type", string(t)))
	if err != nil {
		return 0, fmt.Errorf("count by type: %w", err)
	}
	return n, nil
}

func itemKey(id string) string {
	return domain.KeyPrefix + "item:" + id
}

func categoryKey(category, id string) string {
	return fmt.Sprintf("%scategory:%s_%s", domain.KeyPrefix, category, id)
}

// parseItemJSON handles both the bare object and the `$`-path array wrapper
// that JSON.GET returns.
func parseItemJSON(raw []byte) (domitem.Item, error) {
	var docs []itemDoc
	if err := json.Unmarshal(raw, &docs); err == nil {
		if len(docs) == 0 {
			return domitem.Item{}, domain.ErrItemNotFound
		}
		return docs[0].toDomain(), nil
	}

	var doc itemDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domitem.Item{}, fmt.Errorf("unmarshal item: %w", err)
	}
	return doc.toDomain(), nil
}
