package item

import (
	"time"

	domitem "github.com/kailas-cloud/itemradar/internal/domain/item"
)

// itemDoc is the JSON storage representation of an item.
type itemDoc struct {
	ID             string            `json:"id"`
	Type           string            `json:"type"`
	RawDescription string            `json:"raw_description"`
	AIDescription  string            `json:"ai_description"`
	Category       string            `json:"category"`
	Subcategory    string            `json:"subcategory"`
	Attributes     map[string]string `json:"attributes,omitempty"`
	Keywords       []string          `json:"keywords,omitempty"`
	Synonyms       []string          `json:"synonyms,omitempty"`
	Latitude       float64           `json:"latitude"`
	Longitude      float64           `json:"longitude"`
	Address        string            `json:"address,omitempty"`
	Geohash        string            `json:"geohash"`
	ContactEmail   string            `json:"contact_email"`
	Status         string            `json:"status"`
	MatchedWith    string            `json:"matched_with,omitempty"`
	CreatedAt      int64             `json:"created_at"`
	ExpiresAt      int64             `json:"expires_at"`
	Vector         []float32         `json:"vector,omitempty"`
}

func toDoc(it *domitem.Item) itemDoc {
	loc := it.Location()
	return itemDoc{
		ID:             it.ID(),
		Type:           string(it.Type()),
		RawDescription: it.RawDescription(),
		AIDescription:  it.AIDescription(),
		Category:       it.Category(),
		Subcategory:    it.Subcategory(),
		Attributes:     it.Attributes(),
		Keywords:       it.Keywords(),
		Synonyms:       it.Synonyms(),
		Latitude:       loc.Latitude,
		Longitude:      loc.Longitude,
		Address:        loc.Address,
		Geohash:        loc.Geohash,
		ContactEmail:   it.ContactEmail(),
		Status:         string(it.Status()),
		MatchedWith:    it.MatchedWith(),
		CreatedAt:      it.CreatedAt().Unix(),
		ExpiresAt:      it.ExpiresAt().Unix(),
		Vector:         it.Vector(),
	}
}

func (d *itemDoc) toDomain() domitem.Item {
	return domitem.Reconstruct(
		d.ID, domitem.Type(d.Type), d.RawDescription, d.AIDescription,
		d.Category, d.Subcategory, d.Attributes, d.Keywords, d.Synonyms,
		domitem.Location{
			Latitude:  d.Latitude,
			Longitude: d.Longitude,
			Address:   d.Address,
			Geohash:   d.Geohash,
		},
		d.ContactEmail, domitem.Status(d.Status), d.MatchedWith,
		time.Unix(d.CreatedAt, 0).UTC(), time.Unix(d.ExpiresAt, 0).UTC(),
		d.Vector,
	)
}
