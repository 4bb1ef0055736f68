package filter

import (
	"testing"

	"go.uber.org/zap"

	domsession "github.com/kailas-cloud/itemradar/internal/domain/session"
)

func matchList(descriptions ...string) []domsession.Match {
	out := make([]domsession.Match, len(descriptions))
	for i, d := range descriptions {
		out[i] = domsession.Match{ItemID: d, Description: d}
	}
	return out
}

func ids(matches []domsession.Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.ItemID
	}
	return out
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want Answer
	}{
		{"yes", AnswerYes},
		{"  YES ", AnswerYes},
		{"y", AnswerYes},
		{"true", AnswerYes},
		{"1", AnswerYes},
		{"yeah", AnswerYes},
		{"yep", AnswerYes},
		{"si", AnswerYes},
		{"sí", AnswerYes},
		{"yes!", AnswerYes},
		{"no", AnswerNo},
		{"N", AnswerNo},
		{"false", AnswerNo},
		{"0", AnswerNo},
		{"no.", AnswerNo},
		{"maybe", AnswerInconclusive},
		{"", AnswerInconclusive},
		{"i think so", AnswerInconclusive},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestApply_BlueBackpackScenario(t *testing.T) {
	f := New(zap.NewNop())
	candidates := matchList(
		"Blue backpack with laptop sleeve",
		"Red backpack with water bottle holder",
		"Blue backpack with side pocket",
	)

	filtered := f.Apply(candidates, "Is your item blue in color?", "yes")

	if len(filtered) != 2 {
		t.Fatalf("expected 2 blue backpacks, got %v", ids(filtered))
	}
	for _, m := range filtered {
		if m.ItemID == "Red backpack with water bottle holder" {
			t.Error("red backpack survived a yes-to-blue filter")
		}
	}
}

func TestApply_NoAnswerKeepsAbsentAttribute(t *testing.T) {
	f := New(zap.NewNop())
	candidates := matchList(
		"Blue backpack",
		"Red backpack",
	)

	filtered := f.Apply(candidates, "Is your item blue in color?", "no")

	if len(filtered) != 1 || filtered[0].ItemID != "Red backpack" {
		t.Fatalf("expected only the red backpack, got %v", ids(filtered))
	}
}

func TestApply_InconclusiveUnchanged(t *testing.T) {
	f := New(zap.NewNop())
	candidates := matchList("Blue backpack", "Red backpack")

	filtered := f.Apply(candidates, "Is your item blue in color?", "hmm, not sure")

	if len(filtered) != 2 {
		t.Fatalf("inconclusive answer must not filter, got %v", ids(filtered))
	}
}

func TestApply_SafetyNetOnTotalElimination(t *testing.T) {
	f := New(zap.NewNop())
	candidates := matchList("Red backpack", "Green backpack")

	// Definite yes to blue would remove everything; the original set
	// must come back instead.
	filtered := f.Apply(candidates, "Is your item blue in color?", "yes")

	if len(filtered) != 2 {
		t.Fatalf("safety net must restore original list, got %v", ids(filtered))
	}
}

func TestApply_NeverGrows(t *testing.T) {
	f := New(zap.NewNop())
	candidates := matchList("Blue backpack", "Red backpack", "Blue bag")

	filtered := f.Apply(candidates, "Is your item blue in color?", "yes")
	if len(filtered) > len(candidates) {
		t.Fatalf("filter grew the candidate set: %d > %d", len(filtered), len(candidates))
	}
}

func TestApply_SynonymsCount(t *testing.T) {
	f := New(zap.NewNop())
	candidates := matchList(
		"Big black suitcase",
		"Small black pouch",
	)

	filtered := f.Apply(candidates, "Does your item have 'large' mentioned in its description?", "yes")

	if len(filtered) != 1 || filtered[0].ItemID != "Big black suitcase" {
		t.Fatalf("'big' must satisfy a 'large' question, got %v", ids(filtered))
	}
}

func TestApply_ReverseSynonymLookup(t *testing.T) {
	f := New(zap.NewNop())
	candidates := matchList(
		"Large metal toolbox",
		"Wooden toolbox",
	)

	filtered := f.Apply(candidates, "Does your item have 'steel' mentioned in its description?", "yes")

	if len(filtered) != 1 || filtered[0].ItemID != "Large metal toolbox" {
		t.Fatalf("'metal' must satisfy a 'steel' question, got %v", ids(filtered))
	}
}

func TestApply_LongestTokenWins(t *testing.T) {
	f := New(zap.NewNop())
	candidates := matchList(
		"Gold ring with engraving",
		"Worn silver ring",
	)

	// "gold" must be derived rather than the embedded "old".
	filtered := f.Apply(candidates, "Is your item gold in color?", "yes")

	if len(filtered) != 1 || filtered[0].ItemID != "Gold ring with engraving" {
		t.Fatalf("expected the gold ring, got %v", ids(filtered))
	}
}

func TestApply_OpenEndedQuestionUnchanged(t *testing.T) {
	f := New(zap.NewNop())
	candidates := matchList("Blue backpack", "Red backpack")

	filtered := f.Apply(candidates, "Can you describe any detail not yet mentioned about your item?", "yes")

	if len(filtered) != 2 {
		t.Fatalf("non-attribute question must not filter, got %v", ids(filtered))
	}
}
