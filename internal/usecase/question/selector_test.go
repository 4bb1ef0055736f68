package question

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newSelector() *Selector {
	return New(zap.NewNop())
}

func askedSet(questions ...string) func(string) bool {
	set := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		set[q] = struct{}{}
	}
	return func(q string) bool {
		_, ok := set[q]
		return ok
	}
}

func TestSelect_AtMostOneCandidate(t *testing.T) {
	s := newSelector()

	if _, ok := s.Select(nil, nil); ok {
		t.Error("no candidates must yield no question")
	}
	if _, ok := s.Select([]string{"black wallet"}, nil); ok {
		t.Error("single candidate must yield no question")
	}
}

func TestSelect_PrefersBestBinarySplit(t *testing.T) {
	s := newSelector()
	descriptions := []string{
		"black leather wallet",
		"black plastic case",
		"blue leather wallet",
		"green fabric bag",
	}

	q, ok := s.Select(descriptions, nil)
	if !ok {
		t.Fatal("expected a question")
	}
	// "black" splits 2/4 (power 0.5), the best possible; colors are
	// considered before materials on ties.
	if q != "Is your item black in color?" {
		t.Errorf("unexpected question %q", q)
	}
}

func TestSelect_SkipsAskedQuestions(t *testing.T) {
	s := newSelector()
	descriptions := []string{
		"black leather wallet",
		"black plastic case",
		"blue leather wallet",
		"green fabric bag",
	}

	q, ok := s.Select(descriptions, askedSet("Is your item black in color?"))
	if !ok {
		t.Fatal("expected a question")
	}
	if q == "Is your item black in color?" {
		t.Error("asked question returned again")
	}
	if q != "Is your item made of leather?" {
		t.Errorf("expected next-ranked question, got %q", q)
	}
}

func TestSelect_MaterialAndFeatureTemplates(t *testing.T) {
	s := newSelector()

	q, ok := s.Select([]string{"leather wallet", "fabric wallet"}, nil)
	if !ok {
		t.Fatal("expected a question")
	}
	if q != "Is your item made of leather?" {
		t.Errorf("unexpected material question %q", q)
	}

	q, ok = s.Select([]string{"backpack with zipper", "backpack with buttons"}, nil)
	if !ok {
		t.Fatal("expected a question")
	}
	if q != "Does your item have a zipper?" {
		t.Errorf("unexpected feature question %q", q)
	}
}

func TestSelect_BrandTokens(t *testing.T) {
	s := newSelector()

	q, ok := s.Select([]string{"backpack by Nike", "plain backpack"}, nil)
	if !ok {
		t.Fatal("expected a question")
	}
	if q != "Does your item have 'nike' mentioned in its description?" {
		t.Errorf("unexpected brand question %q", q)
	}
}

func TestSelect_FallsBackToDomainBank(t *testing.T) {
	s := newSelector()
	// Identical descriptions: no attribute splits the set.
	descriptions := []string{"black backpack", "black backpack", "black backpack"}

	q, ok := s.Select(descriptions, nil)
	if !ok {
		t.Fatal("expected a fallback question")
	}
	found := false
	for _, bank := range questionBanks["bag"] {
		if q == bank {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a bag-bank question, got %q", q)
	}
}

func TestSelect_GenericFallbackWithoutCues(t *testing.T) {
	s := newSelector()
	descriptions := []string{"mystery object", "mystery object"}

	q, ok := s.Select(descriptions, nil)
	if !ok {
		t.Fatal("expected a generic question")
	}
	if q != genericQuestions[0] {
		t.Errorf("expected first generic question, got %q", q)
	}
}

func TestSelect_NeverRepeatsUntilExhausted(t *testing.T) {
	s := newSelector()
	descriptions := []string{
		"black leather wallet with zipper",
		"blue fabric wallet",
		"red plastic wallet",
	}

	asked := make(map[string]struct{})
	isAsked := func(q string) bool {
		_, ok := asked[q]
		return ok
	}

	for i := 0; i < 50; i++ {
		q, ok := s.Select(descriptions, isAsked)
		if !ok {
			return // exhausted, acceptable terminal state
		}
		if _, dup := asked[q]; dup {
			t.Fatalf("question %q returned twice", q)
		}
		asked[q] = struct{}{}
	}
	t.Fatal("selector never exhausted after 50 rounds")
}

func TestSelect_AllAskedYieldsGenericBeforeGivingUp(t *testing.T) {
	s := newSelector()
	descriptions := []string{
		"black phone", "black phone", "black phone",
		"black phone", "black phone",
	}

	// Exhaust the electronics bank; the generic bank must still serve.
	askedBank := append([]string(nil), questionBanks["electronics"]...)
	q, ok := s.Select(descriptions, askedSet(askedBank...))
	if !ok {
		t.Fatal("expected a generic fallback question")
	}
	if !strings.Contains(strings.Join(genericQuestions, "|"), q) {
		t.Errorf("expected generic question, got %q", q)
	}
}
