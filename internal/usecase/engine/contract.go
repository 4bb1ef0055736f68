package engine

import (
	"context"

	"github.com/kailas-cloud/itemradar/internal/domain/geo"
	domitem "github.com/kailas-cloud/itemradar/internal/domain/item"
	domsession "github.com/kailas-cloud/itemradar/internal/domain/session"
	"github.com/kailas-cloud/itemradar/internal/usecase/register"
)

// SessionRepository persists search sessions.
type SessionRepository interface {
	Save(ctx context.Context, s *domsession.Session) error
	Get(ctx context.Context, id string) (domsession.Session, error)
	Delete(ctx context.Context, id string) error
}

// Registrar stores the lost item a session searches for and links
// both sides of a confirmed match.
type Registrar interface {
	Register(ctx context.Context, in register.Input) (domitem.Item, error)
	LinkMatched(ctx context.Context, lostID, foundID string) error
}

// Matcher finds candidate found items for a registered lost item,
// ranked by descending confidence.
type Matcher interface {
	FindMatches(ctx context.Context, itemID string) ([]domsession.Match, error)
}

// QuestionSelector picks the next clarifying question. It must never
// return a question for which asked reports true.
type QuestionSelector interface {
	Select(descriptions []string, asked func(string) bool) (string, bool)
}

// AnswerFilter narrows candidates by a question/answer pair. The result
// never has more entries than the input.
type AnswerFilter interface {
	Apply(candidates []domsession.Match, question, answer string) []domsession.Match
}

// Geocoder resolves a free-text location to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (geo.Place, error)
}
