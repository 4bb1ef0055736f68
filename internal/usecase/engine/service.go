package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/itemradar/internal/domain"
	domitem "github.com/kailas-cloud/itemradar/internal/domain/item"
	domsession "github.com/kailas-cloud/itemradar/internal/domain/session"
	"github.com/kailas-cloud/itemradar/internal/metrics"
	"github.com/kailas-cloud/itemradar/internal/usecase/register"
)

// SearchRequest carries what an owner submits to start looking for a
// lost item.
type SearchRequest struct {
	Description  string
	Location     string
	ContactEmail string
}

// Question is the engine's answer to a clarifying-question request.
// OK is false when no question is applicable (wrong phase, iteration cap
// reached, or vocabulary exhausted); that is a terminal condition for the
// dialogue, not an error.
type Question struct {
	Text string
	OK   bool
}

// Result is the final outcome of a session that narrowed down to a
// single found item.
type Result struct {
	SessionID  string
	ItemID     string
	Confidence float64
	Message    string
}

// Service drives the lost-item search workflow: it owns the session
// state machine and orchestrates registration, candidate search,
// clarifying questions and answer filtering.
//
// Operations on the same session are serialized through a per-session
// mutex; concurrent calls block instead of interleaving.
type Service struct {
	sessions      SessionRepository
	registrar     Registrar
	matcher       Matcher
	selector      QuestionSelector
	filter        AnswerFilter
	geocoder      Geocoder
	minConfidence float64
	logger        *zap.Logger
	now           func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock serializes operations on one session. refs counts the
// holder plus blocked waiters so eviction never races a pending Lock.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// New creates the workflow engine. minConfidence is the confidence floor
// applied to candidate matches before they enter a session.
func New(
	sessions SessionRepository, registrar Registrar, matcher Matcher,
	selector QuestionSelector, filter AnswerFilter, geocoder Geocoder,
	minConfidence float64, logger *zap.Logger,
) *Service {
	if minConfidence <= 0 {
		minConfidence = 0.6
	}
	return &Service{
		sessions:      sessions,
		registrar:     registrar,
		matcher:       matcher,
		selector:      selector,
		filter:        filter,
		geocoder:      geocoder,
		minConfidence: minConfidence,
		logger:        logger,
		now:           time.Now,
		locks:         make(map[string]*sessionLock),
	}
}

func (e *Service) lock(sessionID string) func() {
	e.mu.Lock()
	l, ok := e.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		e.locks[sessionID] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, sessionID)
		}
		e.mu.Unlock()
	}
}

// StartSession creates an empty session in the collecting_info phase.
func (e *Service) StartSession(ctx context.Context) (domsession.Session, error) {
	s, err := domsession.New(domsession.NewID(), e.now())
	if err != nil {
		return domsession.Session{}, fmt.Errorf("create session: %w", err)
	}
	if err := e.sessions.Save(ctx, &s); err != nil {
		return domsession.Session{}, fmt.Errorf("save session: %w", err)
	}

	metrics.SessionsStartedTotal.Inc()
	e.logger.Info("Session started", zap.String("session_id", s.ID()))
	return s, nil
}

// GetSession returns a session by ID.
func (e *Service) GetSession(ctx context.Context, sessionID string) (domsession.Session, error) {
	return e.sessions.Get(ctx, sessionID)
}

// InitiateSearch validates the owner's description and location, geocodes
// the location, registers the lost item and binds it to the session.
// Both description and location are required.
func (e *Service) InitiateSearch(ctx context.Context, sessionID string, req SearchRequest) (domsession.Session, error) {
	defer e.lock(sessionID)()

	if strings.TrimSpace(req.Description) == "" {
		return domsession.Session{}, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	if strings.TrimSpace(req.Location) == "" {
		return domsession.Session{}, fmt.Errorf("%w: location is required", domain.ErrValidation)
	}

	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return domsession.Session{}, fmt.Errorf("get session: %w", err)
	}
	if s.Phase() != domsession.PhaseCollectingInfo {
		return domsession.Session{}, domain.NewPhaseError("initiate_search", string(s.Phase()))
	}

	place, err := e.geocoder.Geocode(ctx, req.Location)
	if err != nil {
		return domsession.Session{}, fmt.Errorf("geocode search location: %w", err)
	}

	item, err := e.registrar.Register(ctx, register.Input{
		Type:         domitem.TypeLost,
		Description:  req.Description,
		Latitude:     place.Latitude,
		Longitude:    place.Longitude,
		Address:      place.Address,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		return domsession.Session{}, fmt.Errorf("register lost item: %w", err)
	}

	s, err = s.WithLostItem(item.ID(), e.now())
	if err != nil {
		return domsession.Session{}, err
	}
	if err := e.sessions.Save(ctx, &s); err != nil {
		return domsession.Session{}, fmt.Errorf("save session: %w", err)
	}

	e.logger.Info("Search initiated",
		zap.String("session_id", s.ID()),
		zap.String("item_id", item.ID()),
		zap.String("address", place.Address),
	)
	return s, nil
}

// CheckPhase returns the session's current workflow phase.
func (e *Service) CheckPhase(ctx context.Context, sessionID string) (domsession.Phase, error) {
	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}
	return s.Phase(), nil
}

// StoreMatchResults runs the candidate search for the session's lost item,
// drops candidates below the confidence floor and records the rest. The
// session derives its next phase from the surviving count.
func (e *Service) StoreMatchResults(ctx context.Context, sessionID string) (domsession.Session, error) {
	defer e.lock(sessionID)()

	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return domsession.Session{}, fmt.Errorf("get session: %w", err)
	}
	if s.Phase() != domsession.PhaseReadyToSearch {
		return domsession.Session{}, domain.NewPhaseError("store_match_results", string(s.Phase()))
	}

	candidates, err := e.matcher.FindMatches(ctx, s.LostItemID())
	if err != nil {
		return domsession.Session{}, fmt.Errorf("find matches: %w", err)
	}

	kept := candidates[:0:0]
	for _, m := range candidates {
		if m.Confidence >= e.minConfidence {
			kept = append(kept, m)
		}
	}

	s, err = s.WithMatches(kept, e.now())
	if err != nil {
		return domsession.Session{}, err
	}
	if err := e.sessions.Save(ctx, &s); err != nil {
		return domsession.Session{}, fmt.Errorf("save session: %w", err)
	}

	if s.Phase() == domsession.PhaseNoMatches {
		metrics.SessionOutcomesTotal.WithLabelValues(string(domsession.PhaseNoMatches)).Inc()
	}
	e.logger.Info("Match results stored",
		zap.String("session_id", s.ID()),
		zap.Int("candidates", len(candidates)),
		zap.Int("kept", len(kept)),
		zap.String("phase", string(s.Phase())),
	)
	return s, nil
}

// GetQuestion returns the next clarifying question for an ambiguous
// session. Question.OK is false when the session is not in the
// multiple_matches phase, the iteration cap is reached, or no unasked
// question remains; none of those are errors.
func (e *Service) GetQuestion(ctx context.Context, sessionID string) (Question, error) {
	defer e.lock(sessionID)()

	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return Question{}, fmt.Errorf("get session: %w", err)
	}
	if s.Phase() != domsession.PhaseMultipleMatches || !s.CanIterate() {
		return Question{}, nil
	}

	descriptions := make([]string, 0, len(s.Matches()))
	for _, m := range s.Matches() {
		descriptions = append(descriptions, m.Description)
	}
	text, ok := e.selector.Select(descriptions, s.Asked)
	if !ok {
		return Question{}, nil
	}

	s, err = s.WithQuestion(text, e.now())
	if err != nil {
		return Question{}, err
	}
	if err := e.sessions.Save(ctx, &s); err != nil {
		return Question{}, fmt.Errorf("save session: %w", err)
	}

	e.logger.Debug("Clarifying question issued",
		zap.String("session_id", s.ID()),
		zap.String("question", text),
		zap.Int("iteration", s.Iterations()),
	)
	return Question{Text: text, OK: true}, nil
}

// StoreAnswer records the owner's reply to the current clarifying
// question. An empty question falls back to the session's current one.
func (e *Service) StoreAnswer(ctx context.Context, sessionID, question, answer string) (domsession.Session, error) {
	defer e.lock(sessionID)()

	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return domsession.Session{}, fmt.Errorf("get session: %w", err)
	}
	if s.Phase() != domsession.PhaseMultipleMatches {
		return domsession.Session{}, domain.NewPhaseError("store_answer", string(s.Phase()))
	}

	s, err = s.WithAnswer(question, answer, e.now())
	if err != nil {
		return domsession.Session{}, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	if err := e.sessions.Save(ctx, &s); err != nil {
		return domsession.Session{}, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

// ApplyFilter consumes the pending question/answer pair, narrows the
// candidate list and counts the disambiguation round. An inconclusive
// answer leaves the list unchanged but still spends a round.
func (e *Service) ApplyFilter(ctx context.Context, sessionID string) (domsession.Session, error) {
	defer e.lock(sessionID)()

	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return domsession.Session{}, fmt.Errorf("get session: %w", err)
	}
	if s.Phase() != domsession.PhaseMultipleMatches {
		return domsession.Session{}, domain.NewPhaseError("apply_filter", string(s.Phase()))
	}
	if !s.AnswerPending() {
		return domsession.Session{}, fmt.Errorf("%w: no answer to filter on", domain.ErrValidation)
	}

	filtered := e.filter.Apply(s.Matches(), s.CurrentQuestion(), s.LastAnswer())

	s, err = s.WithFilteredMatches(filtered, e.now())
	if err != nil {
		return domsession.Session{}, err
	}
	if err := e.sessions.Save(ctx, &s); err != nil {
		return domsession.Session{}, fmt.Errorf("save session: %w", err)
	}

	metrics.FilterRoundsTotal.Inc()
	e.logger.Info("Filter applied",
		zap.String("session_id", s.ID()),
		zap.Int("remaining", len(s.Matches())),
		zap.Int("iteration", s.Iterations()),
		zap.String("phase", string(s.Phase())),
	)
	return s, nil
}

// FinalResult completes a session that narrowed down to exactly one
// candidate and renders the handover message.
func (e *Service) FinalResult(ctx context.Context, sessionID string) (Result, error) {
	defer e.lock(sessionID)()

	s, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("get session: %w", err)
	}
	if s.Phase() != domsession.PhaseSingleMatch {
		return Result{}, domain.NewPhaseError("format_final_result", string(s.Phase()))
	}

	m := s.Matches()[0]
	s = s.Finish(e.now())
	if err := e.sessions.Save(ctx, &s); err != nil {
		return Result{}, fmt.Errorf("save session: %w", err)
	}

	// Link both items best-effort: the owner still gets the handover
	// message if one side was already closed out, and the link can be
	// retried through the item status endpoint.
	if err := e.registrar.LinkMatched(ctx, s.LostItemID(), m.ItemID); err != nil {
		e.logger.Warn("Linking matched pair failed",
			zap.String("session_id", s.ID()),
			zap.String("lost_item_id", s.LostItemID()),
			zap.String("found_item_id", m.ItemID),
			zap.Error(err),
		)
	}

	metrics.SessionOutcomesTotal.WithLabelValues(string(domsession.PhaseSingleMatch)).Inc()
	e.logger.Info("Session completed",
		zap.String("session_id", s.ID()),
		zap.String("item_id", m.ItemID),
		zap.Float64("confidence", m.Confidence),
	)
	return Result{
		SessionID:  s.ID(),
		ItemID:     m.ItemID,
		Confidence: m.Confidence,
		Message:    resultMessage(m),
	}, nil
}

func resultMessage(m domsession.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Good news! We found a matching item: %s.", m.Description)
	if m.Address != "" {
		fmt.Fprintf(&b, " It was found near %s (%.1f km from where you lost yours).", m.Address, m.DistanceKm)
	}
	if m.ContactEmail != "" {
		fmt.Fprintf(&b, " Contact %s to arrange the handover.", m.ContactEmail)
	}
	fmt.Fprintf(&b, " Match confidence: %.0f%%.", m.Confidence*100)
	return b.String()
}
