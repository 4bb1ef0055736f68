package question

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Selector proposes the yes/no question that best splits a candidate set.
// Binary questions are ranked by discrimination power: an attribute present
// in half of the candidates eliminates the most either way the answer goes.
type Selector struct {
	logger *zap.Logger
}

// New creates a question selector.
func New(logger *zap.Logger) *Selector {
	return &Selector{logger: logger}
}

// observation is one attribute token seen in some but not all candidates.
type observation struct {
	token string
	kind  Kind
	power float64
}

// Select returns the best question not yet asked for the given candidate
// descriptions. Returns ok=false when there is at most one candidate, or
// when every renderable question has already been asked.
func (s *Selector) Select(descriptions []string, asked func(string) bool) (string, bool) {
	if len(descriptions) <= 1 {
		return "", false
	}
	if asked == nil {
		asked = func(string) bool { return false }
	}

	lowered := make([]string, len(descriptions))
	for i, d := range descriptions {
		lowered[i] = strings.ToLower(d)
	}

	for _, obs := range rankObservations(descriptions, lowered) {
		q := render(obs.kind, obs.token)
		if !asked(q) {
			s.logger.Debug("Discriminating question selected",
				zap.String("token", obs.token),
				zap.String("kind", string(obs.kind)),
				zap.Float64("power", obs.power),
			)
			return q, true
		}
	}

	// No attribute splits the set (or everything was asked already);
	// fall back to a domain-aware bank, then the generic one.
	joined := strings.Join(lowered, " ")
	if bank, ok := questionBanks[detectBank(joined)]; ok {
		for _, q := range bank {
			if !asked(q) {
				return q, true
			}
		}
	}
	for _, q := range genericQuestions {
		if !asked(q) {
			return q, true
		}
	}

	return "", false
}

// rankObservations extracts attribute tokens present in some but not all
// candidates, ordered by how close their discrimination power is to the
// ideal 0.5 split.
func rankObservations(descriptions, lowered []string) []observation {
	total := len(lowered)
	observations := make([]observation, 0, 16)
	seen := make(map[string]struct{})

	observe := func(token string, kind Kind) {
		if _, dup := seen[token]; dup {
			return
		}
		count := 0
		for _, d := range lowered {
			if strings.Contains(d, token) {
				count++
			}
		}
		if count == 0 || count == total {
			return
		}
		seen[token] = struct{}{}
		observations = append(observations, observation{
			token: token,
			kind:  kind,
			power: float64(minInt(count, total-count)) / float64(total),
		})
	}

	for _, t := range Colors {
		observe(t, KindColor)
	}
	for _, t := range Materials {
		observe(t, KindMaterial)
	}
	for _, t := range Sizes {
		observe(t, KindSize)
	}
	for _, t := range Features {
		observe(t, KindFeature)
	}
	for _, t := range Conditions {
		observe(t, KindCondition)
	}
	for _, t := range brandTokens(descriptions) {
		observe(t, KindBrand)
	}

	sort.SliceStable(observations, func(i, j int) bool {
		di := observations[i].power - 0.5
		if di < 0 {
			di = -di
		}
		dj := observations[j].power - 0.5
		if dj < 0 {
			dj = -dj
		}
		return di < dj
	})

	return observations
}

// brandTokens collects capitalized words from the original-case
// descriptions: likely brand or model names. Sorted for determinism.
func brandTokens(descriptions []string) []string {
	set := make(map[string]struct{})
	for _, d := range descriptions {
		for _, word := range strings.Fields(d) {
			word = strings.Trim(word, ".,;:!?()'\"")
			runes := []rune(word)
			if len(runes) < 3 || !unicode.IsUpper(runes[0]) {
				continue
			}
			set[strings.ToLower(word)] = struct{}{}
		}
	}
	tokens := make([]string, 0, len(set))
	for t := range set {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens
}

func render(kind Kind, token string) string {
	switch kind {
	case KindColor:
		return fmt.Sprintf("Is your item %s in color?", token)
	case KindMaterial:
		return fmt.Sprintf("Is your item made of %s?", token)
	case KindFeature:
		return fmt.Sprintf("Does your item have a %s?", token)
	default:
		return fmt.Sprintf("Does your item have '%s' mentioned in its description?", token)
	}
}

// detectBank picks a domain question bank from cue words in the joined
// lowercase descriptions. Returns "" when nothing matches.
func detectBank(joined string) string {
	// Deterministic cue scan: check banks in a fixed order.
	for _, cue := range sortedCues() {
		if strings.Contains(joined, cue) {
			return bankCues[cue]
		}
	}
	return ""
}

var cueOrder []string

func sortedCues() []string {
	if cueOrder == nil {
		cueOrder = make([]string, 0, len(bankCues))
		for cue := range bankCues {
			cueOrder = append(cueOrder, cue)
		}
		sort.Strings(cueOrder)
	}
	return cueOrder
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
