package item

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/itemradar/internal/domain/geo"
)

// Type marks which side of the match an item came from.
type Type string

const (
	TypeFound Type = "found"
	TypeLost  Type = "lost"
)

// Opposite returns the counterpart type used when searching for matches.
func (t Type) Opposite() Type {
	if t == TypeFound {
		return TypeLost
	}
	return TypeFound
}

// Valid reports whether t is a known item type.
func (t Type) Valid() bool { return t == TypeFound || t == TypeLost }

// Status is the item lifecycle state.
type Status string

const (
	StatusActive  Status = "active"
	StatusMatched Status = "matched"
	StatusExpired Status = "expired"
	StatusSpam    Status = "spam"
)

// RetentionPeriod is how long a registered item stays active before expiring.
const RetentionPeriod = 30 * 24 * time.Hour

// Location is a validated geographic point with its geohash bucket.
type Location struct {
	Latitude  float64
	Longitude float64
	Address   string
	Geohash   string
}

// Neighbor is one vector search hit with its cosine similarity.
type Neighbor struct {
	Item       Item
	Similarity float64
}

// Item is the lost/found item aggregate (immutable value object).
type Item struct {
	id             string
	itemType       Type
	rawDescription string
	aiDescription  string
	category       string
	subcategory    string
	attributes     map[string]string
	keywords       []string
	synonyms       []string
	location       Location
	contactEmail   string
	status         Status
	matchedWith    string
	createdAt      time.Time
	expiresAt      time.Time
	vector         []float32
}

// NewID generates an item identifier of the form "{type}_{8 hex}".
func NewID(t Type) string {
	return fmt.Sprintf("%s_%s", t, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// New validates inputs and creates an active Item.
// Description must be non-empty, coordinates in range, and the contact email
// must contain '@'. Email is lowercased and trimmed before validation.
func New(
	id string, itemType Type, rawDescription string,
	lat, lon float64, address, contactEmail string,
	now time.Time,
) (Item, error) {
	if id == "" {
		return Item{}, fmt.Errorf("item ID is required")
	}
	if !itemType.Valid() {
		return Item{}, fmt.Errorf("item type must be %q or %q", TypeFound, TypeLost)
	}
	if strings.TrimSpace(rawDescription) == "" {
		return Item{}, fmt.Errorf("description is required")
	}
	if !geo.ValidateCoordinates(lat, lon) {
		return Item{}, fmt.Errorf("coordinates out of range: lat=%v lon=%v", lat, lon)
	}
	email := strings.ToLower(strings.TrimSpace(contactEmail))
	if !strings.Contains(email, "@") {
		return Item{}, fmt.Errorf("contact email is invalid")
	}

	return Item{
		id:             id,
		itemType:       itemType,
		rawDescription: strings.TrimSpace(rawDescription),
		location: Location{
			Latitude:  lat,
			Longitude: lon,
			Address:   address,
			Geohash:   geo.Encode(lat, lon, geo.GeohashPrecision),
		},
		contactEmail: email,
		status:       StatusActive,
		createdAt:    now.UTC(),
		expiresAt:    now.UTC().Add(RetentionPeriod),
	}, nil
}

// Reconstruct creates an Item without validation (storage hydration).
func Reconstruct(
	id string, itemType Type, rawDescription, aiDescription, category, subcategory string,
	attributes map[string]string, keywords, synonyms []string,
	location Location, contactEmail string, status Status, matchedWith string,
	createdAt, expiresAt time.Time, vector []float32,
) Item {
	return Item{
		id: id, itemType: itemType,
		rawDescription: rawDescription, aiDescription: aiDescription,
		category: category, subcategory: subcategory,
		attributes: attributes, keywords: keywords, synonyms: synonyms,
		location: location, contactEmail: contactEmail, status: status,
		matchedWith: matchedWith,
		createdAt:   createdAt, expiresAt: expiresAt, vector: vector,
	}
}

// ID returns the item identifier.
func (i *Item) ID() string { return i.id }

// Type returns whether the item was found or lost.
func (i *Item) Type() Type { return i.itemType }

// RawDescription returns the user-supplied description text.
func (i *Item) RawDescription() string { return i.rawDescription }

// AIDescription returns the normalized description produced during extraction.
func (i *Item) AIDescription() string { return i.aiDescription }

// Category returns the extracted top-level category.
func (i *Item) Category() string { return i.category }

// Subcategory returns the extracted subcategory.
func (i *Item) Subcategory() string { return i.subcategory }

// Attributes returns the extracted key/value attributes (color, brand, ...).
func (i *Item) Attributes() map[string]string { return i.attributes }

// Keywords returns the extracted search keywords.
func (i *Item) Keywords() []string { return i.keywords }

// Synonyms returns alternative names for the item.
func (i *Item) Synonyms() []string { return i.synonyms }

// Location returns the validated location.
func (i *Item) Location() Location { return i.location }

// ContactEmail returns the normalized contact email.
func (i *Item) ContactEmail() string { return i.contactEmail }

// Status returns the lifecycle status.
func (i *Item) Status() Status { return i.status }

// MatchedWith returns the counterpart item id for matched items,
// empty otherwise.
func (i *Item) MatchedWith() string { return i.matchedWith }

// CreatedAt returns the registration time (UTC).
func (i *Item) CreatedAt() time.Time { return i.createdAt }

// ExpiresAt returns the retention deadline (UTC).
func (i *Item) ExpiresAt() time.Time { return i.expiresAt }

// Vector returns the embedding vector.
func (i *Item) Vector() []float32 { return i.vector }

// WithExtraction returns a copy with the extraction results filled in.
func (i *Item) WithExtraction(aiDescription, category, subcategory string,
	attributes map[string]string, keywords, synonyms []string,
) Item {
	c := *i
	c.aiDescription = aiDescription
	c.category = category
	c.subcategory = subcategory
	c.attributes = cloneStringMap(attributes)
	c.keywords = append([]string(nil), keywords...)
	c.synonyms = append([]string(nil), synonyms...)
	return c
}

// WithVector returns a copy with the given vector set.
func (i *Item) WithVector(v []float32) Item {
	c := *i
	c.vector = v
	return c
}

// MarkMatched transitions the item to matched and records the
// counterpart item it was matched with. Only active items can match.
func (i *Item) MarkMatched(counterpartID string) (Item, error) {
	if counterpartID == "" {
		return Item{}, fmt.Errorf("counterpart item ID is required to match %s", i.id)
	}
	if counterpartID == i.id {
		return Item{}, fmt.Errorf("item %s cannot be matched with itself", i.id)
	}
	c, err := i.transition(StatusMatched)
	if err != nil {
		return Item{}, err
	}
	c.matchedWith = counterpartID
	return c, nil
}

// MarkExpired transitions the item to expired. Only active items can expire.
func (i *Item) MarkExpired() (Item, error) { return i.transition(StatusExpired) }

// MarkSpam transitions the item to spam. Only active items can be flagged.
func (i *Item) MarkSpam() (Item, error) { return i.transition(StatusSpam) }

func (i *Item) transition(next Status) (Item, error) {
	if i.status != StatusActive {
		return Item{}, fmt.Errorf("cannot transition %s item %s to %s", i.status, i.id, next)
	}
	c := *i
	c.status = next
	return c, nil
}

// CompositeText builds the text that gets embedded: normalized description,
// category, subcategory, keywords, synonyms, then "{key} {value}" attribute
// pairs. Empty parts are omitted.
func (i *Item) CompositeText() string {
	parts := make([]string, 0, 5+len(i.attributes))
	for _, p := range []string{
		i.aiDescription,
		i.category,
		i.subcategory,
		strings.Join(i.keywords, " "),
		strings.Join(i.synonyms, " "),
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	keys := make([]string, 0, len(i.attributes))
	for k := range i.attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := i.attributes[k]; k != "" && v != "" {
			parts = append(parts, k+" "+v)
		}
	}
	return strings.Join(parts, " ")
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
