package match

import (
	"strings"
	"time"

	"github.com/kailas-cloud/itemradar/internal/domain/geo"
	domitem "github.com/kailas-cloud/itemradar/internal/domain/item"
)

// Confidence weights. Vector similarity dominates; the rest reward
// agreement on extracted structure and report proximity in time and space.
const (
	weightVector      = 0.40
	weightCategory    = 0.20
	weightSubcategory = 0.15
	weightAttributes  = 0.10
	weightKeywords    = 0.05
	weightTime        = 0.05
	weightLocation    = 0.05

	timeDecayDays      = 14.0
	locationDecayKm    = 10.0
	colorPartialCredit = 0.7
)

// confidence scores how likely two reports describe the same physical item.
// Always in [0,1].
func confidence(a, b *domitem.Item, vectorSimilarity float64) float64 {
	score := weightVector * clamp01(vectorSimilarity)

	if a.Category() != "" && a.Category() == b.Category() {
		score += weightCategory
	}
	if a.Subcategory() != "" && a.Subcategory() == b.Subcategory() {
		score += weightSubcategory
	}

	score += weightAttributes * attributeSimilarity(a.Attributes(), b.Attributes())
	score += weightKeywords * keywordJaccard(a.Keywords(), b.Keywords())
	score += weightTime * timeDecay(a.CreatedAt(), b.CreatedAt())
	score += weightLocation * locationDecay(a.Location(), b.Location())

	if score > 1 {
		return 1
	}
	return score
}

// attributeSimilarity compares attribute values over keys present in both
// maps. Exact value match scores 1; a color value contained in the other
// (e.g. "dark blue" vs "blue") scores 0.7. No common keys scores 0.
func attributeSimilarity(a, b map[string]string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var common int
	var matches float64
	for key, va := range a {
		vb, ok := b[key]
		if !ok {
			continue
		}
		common++

		va = strings.ToLower(strings.TrimSpace(va))
		vb = strings.ToLower(strings.TrimSpace(vb))
		switch {
		case va == vb:
			matches++
		case key == "color" && (strings.Contains(va, vb) || strings.Contains(vb, va)):
			matches += colorPartialCredit
		}
	}
	if common == 0 {
		return 0
	}
	return matches / float64(common)
}

// keywordJaccard is |intersection| / |union| of the two keyword sets.
func keywordJaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, k := range a {
		setA[k] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, k := range b {
		setB[k] = struct{}{}
	}

	var intersection int
	for k := range setA {
		if _, ok := setB[k]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// timeDecay is 1 for same-day reports, falling linearly to 0 over 14 days.
func timeDecay(t1, t2 time.Time) float64 {
	diff := t1.Sub(t2)
	if diff < 0 {
		diff = -diff
	}
	days := float64(int(diff.Hours() / 24))
	return max0(1 - days/timeDecayDays)
}

// locationDecay is 1 for the same spot, falling linearly to 0 over 10 km.
func locationDecay(l1, l2 domitem.Location) float64 {
	km := geo.Haversine(l1.Latitude, l1.Longitude, l2.Latitude, l2.Longitude)
	return max0(1 - km/locationDecayKm)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
