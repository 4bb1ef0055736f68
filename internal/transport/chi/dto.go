package chi

import (
	"time"

	domitem "github.com/kailas-cloud/itemradar/internal/domain/item"
	domsession "github.com/kailas-cloud/itemradar/internal/domain/session"
	healthuc "github.com/kailas-cloud/itemradar/internal/usecase/health"
	registeruc "github.com/kailas-cloud/itemradar/internal/usecase/register"
)

type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeValidationFailed  errorCode = "validation_failed"
	codeItemNotFound      errorCode = "item_not_found"
	codeSessionNotFound   errorCode = "session_not_found"
	codeNotFound          errorCode = "not_found"
	codePhaseConflict     errorCode = "phase_conflict"
	codeInvalidTransition errorCode = "invalid_transition"
	codeAIQuotaExceeded   errorCode = "ai_quota_exceeded"
	codeRateLimited       errorCode = "rate_limited"
	codeGeocodingFailed   errorCode = "geocoding_failed"
	codeExternalService   errorCode = "external_service_error"
	codeInternalError     errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type registerRequest struct {
	Type         string  `json:"type"`
	Description  string  `json:"description"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Address      string  `json:"address,omitempty"`
	ContactEmail string  `json:"contact_email"`
}

func (r registerRequest) toInput() registeruc.Input {
	return registeruc.Input{
		Type:         domitem.Type(r.Type),
		Description:  r.Description,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		Address:      r.Address,
		ContactEmail: r.ContactEmail,
	}
}

type batchRequest struct {
	Items []registerRequest `json:"items"`
}

type batchResultItem struct {
	ItemID string         `json:"item_id,omitempty"`
	Error  *errorResponse `json:"error,omitempty"`
}

type batchResponse struct {
	Results []batchResultItem `json:"results"`
}

func batchToAPI(results []registeruc.BatchResult) batchResponse {
	out := batchResponse{Results: make([]batchResultItem, len(results))}
	for i, res := range results {
		if res.Err != nil {
			out.Results[i] = batchResultItem{Error: &errorResponse{
				Code:    codeValidationFailed,
				Message: safeDomainMessage(res.Err),
			}}
			continue
		}
		out.Results[i] = batchResultItem{ItemID: res.ItemID}
	}
	return out
}

type statusRequest struct {
	Action      string `json:"action"`
	MatchedWith string `json:"matched_with,omitempty"`
}

type locationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

type itemResponse struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Description   string            `json:"description"`
	AIDescription string            `json:"ai_description,omitempty"`
	Category      string            `json:"category,omitempty"`
	Subcategory   string            `json:"subcategory,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	Keywords      []string          `json:"keywords,omitempty"`
	Location      locationResponse  `json:"location"`
	ContactEmail  string            `json:"contact_email"`
	Status        string            `json:"status"`
	MatchedWith   string            `json:"matched_with,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	ExpiresAt     time.Time         `json:"expires_at"`
}

func itemToAPI(it *domitem.Item) itemResponse {
	loc := it.Location()
	return itemResponse{
		ID:            it.ID(),
		Type:          string(it.Type()),
		Description:   it.RawDescription(),
		AIDescription: it.AIDescription(),
		Category:      it.Category(),
		Subcategory:   it.Subcategory(),
		Attributes:    it.Attributes(),
		Keywords:      it.Keywords(),
		Location: locationResponse{
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Address:   loc.Address,
		},
		ContactEmail: it.ContactEmail(),
		Status:       string(it.Status()),
		MatchedWith:  it.MatchedWith(),
		CreatedAt:    it.CreatedAt(),
		ExpiresAt:    it.ExpiresAt(),
	}
}

type listResponse struct {
	Items []itemResponse `json:"items"`
	Total int            `json:"total"`
}

func listToAPI(items []domitem.Item, total int) listResponse {
	out := listResponse{Items: make([]itemResponse, len(items)), Total: total}
	for i := range items {
		out.Items[i] = itemToAPI(&items[i])
	}
	return out
}

type searchRequest struct {
	Description  string `json:"description"`
	Location     string `json:"location"`
	ContactEmail string `json:"contact_email"`
}

type answerRequest struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer"`
}

type phaseResponse struct {
	Phase string `json:"phase"`
}

type questionResponse struct {
	Question  string `json:"question,omitempty"`
	Available bool   `json:"available"`
}

type resultResponse struct {
	SessionID  string  `json:"session_id"`
	ItemID     string  `json:"item_id"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
}

type sessionResponse struct {
	SessionID       string             `json:"session_id"`
	Phase           string             `json:"phase"`
	LostItemID      string             `json:"lost_item_id,omitempty"`
	Matches         []domsession.Match `json:"matches"`
	AskedQuestions  []string           `json:"asked_questions,omitempty"`
	CurrentQuestion string             `json:"current_question,omitempty"`
	Iterations      int                `json:"iterations"`
	Complete        bool               `json:"complete"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func sessionToAPI(s *domsession.Session) sessionResponse {
	matches := s.Matches()
	if matches == nil {
		matches = []domsession.Match{}
	}
	return sessionResponse{
		SessionID:       s.ID(),
		Phase:           string(s.Phase()),
		LostItemID:      s.LostItemID(),
		Matches:         matches,
		AskedQuestions:  s.AskedQuestions(),
		CurrentQuestion: s.CurrentQuestion(),
		Iterations:      s.Iterations(),
		Complete:        s.Complete(),
		CreatedAt:       s.CreatedAt(),
		UpdatedAt:       s.UpdatedAt(),
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func healthToAPI(r healthuc.Report) healthResponse {
	checks := make(map[string]string, len(r.Checks))
	for name, result := range r.Checks {
		checks[name] = string(result)
	}
	return healthResponse{Status: string(r.Status), Checks: checks}
}
