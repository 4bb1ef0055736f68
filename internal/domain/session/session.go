package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Phase is the derived workflow phase of a search session.
type Phase string

const (
	PhaseCollectingInfo  Phase = "collecting_info"
	PhaseReadyToSearch   Phase = "ready_to_search"
	PhaseNoMatches       Phase = "no_matches"
	PhaseSingleMatch     Phase = "single_match"
	PhaseMultipleMatches Phase = "multiple_matches"
)

// MaxIterations caps how many disambiguation rounds a session may run.
const MaxIterations = 10

// TTL is how long an idle session is kept.
const TTL = 24 * time.Hour

// Match is one candidate pairing of a lost item with a found item.
type Match struct {
	ItemID       string            `json:"item_id"`
	Confidence   float64           `json:"confidence"`
	Description  string            `json:"description"`
	Category     string            `json:"category"`
	Subcategory  string            `json:"subcategory"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	Keywords     []string          `json:"keywords,omitempty"`
	Address      string            `json:"address,omitempty"`
	DistanceKm   float64           `json:"distance_km"`
	ContactEmail string            `json:"contact_email,omitempty"`
}

// Session tracks one owner's search for a lost item, including the candidate
// matches and the disambiguation dialogue state.
type Session struct {
	id              string
	lostItemID      string
	searched        bool
	matches         []Match
	askedQuestions  []string
	currentQuestion string
	lastAnswer      string
	answerPending   bool
	iterations      int
	complete        bool
	createdAt       time.Time
	updatedAt       time.Time
}

// NewID generates a session identifier of the form "session_{8 hex}".
func NewID() string {
	return fmt.Sprintf("session_%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// New creates an empty session in the collecting_info phase.
func New(id string, now time.Time) (Session, error) {
	if id == "" {
		return Session{}, fmt.Errorf("session ID is required")
	}
	return Session{id: id, createdAt: now.UTC(), updatedAt: now.UTC()}, nil
}

// Reconstruct creates a Session without validation (storage hydration).
func Reconstruct(
	id, lostItemID string, searched bool, matches []Match,
	askedQuestions []string, currentQuestion, lastAnswer string, answerPending bool,
	iterations int, complete bool,
	createdAt, updatedAt time.Time,
) Session {
	return Session{
		id: id, lostItemID: lostItemID, searched: searched, matches: matches,
		askedQuestions: askedQuestions,
		currentQuestion: currentQuestion, lastAnswer: lastAnswer, answerPending: answerPending,
		iterations: iterations, complete: complete,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// LostItemID returns the registered lost item this session searches for.
func (s *Session) LostItemID() string { return s.lostItemID }

// Searched reports whether the candidate search already ran.
func (s *Session) Searched() bool { return s.searched }

// Matches returns the current candidate matches, ordered by confidence.
func (s *Session) Matches() []Match { return s.matches }

// AskedQuestions returns every question asked so far, in order.
func (s *Session) AskedQuestions() []string { return s.askedQuestions }

// CurrentQuestion returns the most recently issued clarifying question.
func (s *Session) CurrentQuestion() string { return s.currentQuestion }

// LastAnswer returns the most recent recorded answer.
func (s *Session) LastAnswer() string { return s.lastAnswer }

// AnswerPending reports whether an answer awaits filtering.
func (s *Session) AnswerPending() bool { return s.answerPending }

// Iterations returns the number of completed disambiguation rounds.
func (s *Session) Iterations() int { return s.iterations }

// Complete reports whether the workflow finished.
func (s *Session) Complete() bool { return s.complete }

// CreatedAt returns the session creation time (UTC).
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the last modification time (UTC).
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }

// Phase derives the workflow phase from the session state.
func (s *Session) Phase() Phase {
	switch {
	case s.lostItemID == "":
		return PhaseCollectingInfo
	case !s.searched:
		return PhaseReadyToSearch
	case len(s.matches) == 0:
		return PhaseNoMatches
	case len(s.matches) == 1:
		return PhaseSingleMatch
	default:
		return PhaseMultipleMatches
	}
}

// WithLostItem binds the registered lost item and moves the session to
// ready_to_search. Allowed only once, from collecting_info.
func (s *Session) WithLostItem(itemID string, now time.Time) (Session, error) {
	if s.Phase() != PhaseCollectingInfo {
		return Session{}, fmt.Errorf("session %s already has a lost item bound", s.id)
	}
	if itemID == "" {
		return Session{}, fmt.Errorf("lost item ID is required")
	}
	c := *s
	c.lostItemID = itemID
	c.updatedAt = now.UTC()
	return c, nil
}

// WithMatches records the search results and moves the session past
// ready_to_search. Matches must already be sorted by descending confidence.
func (s *Session) WithMatches(matches []Match, now time.Time) (Session, error) {
	if s.Phase() != PhaseReadyToSearch {
		return Session{}, fmt.Errorf("session %s is not ready to search (phase %s)", s.id, s.Phase())
	}
	c := *s
	c.searched = true
	c.matches = matches
	c.updatedAt = now.UTC()
	return c, nil
}

// Asked reports whether the question was already asked in this session.
func (s *Session) Asked(question string) bool {
	for _, q := range s.askedQuestions {
		if q == question {
			return true
		}
	}
	return false
}

// CanIterate reports whether another disambiguation round is allowed.
func (s *Session) CanIterate() bool {
	return s.iterations < MaxIterations && !s.complete
}

// WithQuestion records a question as asked. Asking the same question twice
// or exceeding the iteration cap is an error.
func (s *Session) WithQuestion(question string, now time.Time) (Session, error) {
	if s.Phase() != PhaseMultipleMatches {
		return Session{}, fmt.Errorf("session %s has no ambiguity to resolve (phase %s)", s.id, s.Phase())
	}
	if !s.CanIterate() {
		return Session{}, fmt.Errorf("session %s exhausted its %d disambiguation rounds", s.id, MaxIterations)
	}
	if s.Asked(question) {
		return Session{}, fmt.Errorf("question already asked in session %s", s.id)
	}
	c := *s
	c.askedQuestions = append(append([]string(nil), s.askedQuestions...), question)
	c.currentQuestion = question
	c.updatedAt = now.UTC()
	return c, nil
}

// WithAnswer records the user's reply to the current question. The answer
// stays pending until a filter round consumes it.
func (s *Session) WithAnswer(question, answer string, now time.Time) (Session, error) {
	if s.Phase() != PhaseMultipleMatches {
		return Session{}, fmt.Errorf("session %s has no ambiguity to resolve (phase %s)", s.id, s.Phase())
	}
	if question == "" {
		question = s.currentQuestion
	}
	if question == "" {
		return Session{}, fmt.Errorf("session %s has no question to answer", s.id)
	}
	c := *s
	c.currentQuestion = question
	c.lastAnswer = answer
	c.answerPending = true
	c.updatedAt = now.UTC()
	return c, nil
}

// WithFilteredMatches replaces the candidate list after an answer was applied
// and counts the round. The list may stay the same (inconclusive answer) but
// may never grow.
func (s *Session) WithFilteredMatches(matches []Match, now time.Time) (Session, error) {
	if !s.searched {
		return Session{}, fmt.Errorf("session %s has no matches to filter", s.id)
	}
	if len(matches) > len(s.matches) {
		return Session{}, fmt.Errorf("filtered match list grew from %d to %d", len(s.matches), len(matches))
	}
	c := *s
	c.matches = matches
	c.answerPending = false
	c.iterations++
	c.updatedAt = now.UTC()
	return c, nil
}

// Finish marks the workflow complete.
func (s *Session) Finish(now time.Time) Session {
	c := *s
	c.complete = true
	c.updatedAt = now.UTC()
	return c
}
