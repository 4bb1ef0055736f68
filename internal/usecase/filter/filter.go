package filter

import (
	"strings"

	"go.uber.org/zap"

	domsession "github.com/kailas-cloud/itemradar/internal/domain/session"
	"github.com/kailas-cloud/itemradar/internal/usecase/question"
)

// Answer is the normalized interpretation of a user's reply.
type Answer int

const (
	// AnswerInconclusive means the reply was neither a clear yes nor no.
	AnswerInconclusive Answer = iota
	// AnswerYes is a definite affirmative.
	AnswerYes
	// AnswerNo is a definite negative.
	AnswerNo
)

var yesWords = map[string]struct{}{
	"yes": {}, "y": {}, "true": {}, "1": {}, "yeah": {}, "yep": {},
	"si": {}, "sí": {},
}

var noWords = map[string]struct{}{
	"no": {}, "n": {}, "false": {}, "0": {},
}

// Normalize maps a free-text reply to yes, no, or inconclusive.
func Normalize(answer string) Answer {
	w := strings.ToLower(strings.TrimSpace(answer))
	w = strings.Trim(w, ".,!?")
	if _, ok := yesWords[w]; ok {
		return AnswerYes
	}
	if _, ok := noWords[w]; ok {
		return AnswerNo
	}
	return AnswerInconclusive
}

// Filter shrinks a candidate set using a question's attribute and the
// user's answer. It shares the question selector's vocabulary so that the
// attribute a question asked about is always re-derivable here.
type Filter struct {
	logger *zap.Logger
}

// New creates an answer filter.
func New(logger *zap.Logger) *Filter {
	return &Filter{logger: logger}
}

// Apply filters candidates by the answer to a question. An inconclusive
// answer leaves the set untouched. When a definite answer would eliminate
// every candidate the original set is returned instead; a heuristic miss
// must not destroy the search.
func (f *Filter) Apply(candidates []domsession.Match, questionText, answer string) []domsession.Match {
	verdict := Normalize(answer)
	if verdict == AnswerInconclusive {
		f.logger.Debug("Inconclusive answer, candidates unchanged",
			zap.String("answer", answer),
		)
		return candidates
	}

	token := deriveAttribute(questionText)
	if token == "" {
		// Open-ended fallback questions carry no testable attribute.
		return candidates
	}

	wantPresent := verdict == AnswerYes
	terms := attributeTerms(token)

	filtered := make([]domsession.Match, 0, len(candidates))
	for _, c := range candidates {
		if hasAnyTerm(strings.ToLower(c.Description), terms) == wantPresent {
			filtered = append(filtered, c)
		}
	}

	if len(filtered) == 0 {
		f.logger.Debug("Filter would eliminate all candidates, keeping original set",
			zap.String("attribute", token),
		)
		return candidates
	}

	f.logger.Debug("Candidates filtered",
		zap.String("attribute", token),
		zap.Bool("answer_yes", wantPresent),
		zap.Int("before", len(candidates)),
		zap.Int("after", len(filtered)),
	)

	return filtered
}

// deriveAttribute recovers the attribute token a question asked about.
// Quoted tokens (generic template) win outright; otherwise the longest
// vocabulary token contained in the question text is taken, so "gold"
// beats the embedded "old".
func deriveAttribute(questionText string) string {
	if start := strings.IndexByte(questionText, '\''); start >= 0 {
		if end := strings.IndexByte(questionText[start+1:], '\''); end > 0 {
			return strings.ToLower(questionText[start+1 : start+1+end])
		}
	}

	lowered := strings.ToLower(questionText)
	best := ""
	scan := func(tokens []string) {
		for _, t := range tokens {
			if len(t) > len(best) && strings.Contains(lowered, t) {
				best = t
			}
		}
	}
	scan(question.Colors)
	scan(question.Materials)
	scan(question.Sizes)
	scan(question.Features)
	scan(question.Conditions)
	return best
}

// attributeTerms expands a token to its synonym group.
func attributeTerms(token string) []string {
	terms := []string{token}
	if alts, ok := question.Synonyms[token]; ok {
		return append(terms, alts...)
	}
	// Reverse lookup: the token may itself be listed as someone's synonym.
	for key, alts := range question.Synonyms {
		for _, alt := range alts {
			if alt == token {
				terms = append(terms, key)
				for _, other := range alts {
					if other != token {
						terms = append(terms, other)
					}
				}
				return terms
			}
		}
	}
	return terms
}

func hasAnyTerm(description string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(description, t) {
			return true
		}
	}
	return false
}
