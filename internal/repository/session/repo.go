package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/itemradar/internal/db"
	"github.com/kailas-cloud/itemradar/internal/domain"
	domsession "github.com/kailas-cloud/itemradar/internal/domain/session"
)

// store is the consumer interface for sessions (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// sessionDoc is the JSON storage representation of a search session.
type sessionDoc struct {
	ID              string             `json:"id"`
	LostItemID      string             `json:"lost_item_id,omitempty"`
	Searched        bool               `json:"searched"`
	Matches         []domsession.Match `json:"matches,omitempty"`
	AskedQuestions  []string           `json:"asked_questions,omitempty"`
	CurrentQuestion string             `json:"current_question,omitempty"`
	LastAnswer      string             `json:"last_answer,omitempty"`
	AnswerPending   bool               `json:"answer_pending"`
	Iterations      int                `json:"iterations"`
	Complete        bool               `json:"complete"`
	CreatedAt       int64              `json:"created_at"`
	UpdatedAt       int64              `json:"updated_at"`
}

// Repo persists search sessions with a sliding TTL.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a session repository.
func New(s store, ttl time.Duration) *Repo {
	if ttl <= 0 {
		ttl = domsession.TTL
	}
	return &Repo{store: s, ttl: ttl}
}

// Save stores a session and refreshes its TTL.
func (r *Repo) Save(ctx context.Context, s *domsession.Session) error {
	doc := sessionDoc{
		ID:              s.ID(),
		LostItemID:      s.LostItemID(),
		Searched:        s.Searched(),
		Matches:         s.Matches(),
		AskedQuestions:  s.AskedQuestions(),
		CurrentQuestion: s.CurrentQuestion(),
		LastAnswer:      s.LastAnswer(),
		AnswerPending:   s.AnswerPending(),
		Iterations:      s.Iterations(),
		Complete:        s.Complete(),
		CreatedAt:       s.CreatedAt().Unix(),
		UpdatedAt:       s.UpdatedAt().Unix(),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	key := sessionKey(s.ID())
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	if err := r.store.Expire(ctx, key, r.ttl, false); err != nil {
		return fmt.Errorf("expire %s: %w", key, err)
	}
	return nil
}

// Get returns a session by ID.
func (r *Repo) Get(ctx context.Context, id string) (domsession.Session, error) {
	raw, err := r.store.JSONGet(ctx, sessionKey(id), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domsession.Session{}, domain.ErrSessionNotFound
		}
		return domsession.Session{}, fmt.Errorf("json.get %s: %w", sessionKey(id), err)
	}

	var docs []sessionDoc
	if err := json.Unmarshal(raw, &docs); err != nil || len(docs) == 0 {
		var doc sessionDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return domsession.Session{}, fmt.Errorf("unmarshal session: %w", err)
		}
		return docToDomain(&doc), nil
	}
	return docToDomain(&docs[0]), nil
}

// Delete removes a session.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, sessionKey(id)); err != nil {
		return fmt.Errorf("del %s: %w", sessionKey(id), err)
	}
	return nil
}

func docToDomain(d *sessionDoc) domsession.Session {
	return domsession.Reconstruct(
		d.ID, d.LostItemID, d.Searched, d.Matches,
		d.AskedQuestions, d.CurrentQuestion, d.LastAnswer, d.AnswerPending,
		d.Iterations, d.Complete,
		time.Unix(d.CreatedAt, 0).UTC(), time.Unix(d.UpdatedAt, 0).UTC(),
	)
}

func sessionKey(id string) string {
	return domain.KeyPrefix + "session:" + id
}
