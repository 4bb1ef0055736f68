package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/itemradar/internal/domain"
	domitem "github.com/kailas-cloud/itemradar/internal/domain/item"
	engineuc "github.com/kailas-cloud/itemradar/internal/usecase/engine"
	healthuc "github.com/kailas-cloud/itemradar/internal/usecase/health"
	registeruc "github.com/kailas-cloud/itemradar/internal/usecase/register"
	usageuc "github.com/kailas-cloud/itemradar/internal/usecase/usage"
)

const maxBatchSize = 100

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the registration and disambiguation workflow over REST.
type Server struct {
	items         *registeruc.Service
	engine        *engineuc.Service
	usage         *usageuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	items *registeruc.Service,
	engine *engineuc.Service,
	usage *usageuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		items:  items,
		engine: engine,
		usage:  usage,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		phaseConflictHandler,
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrItemNotFound, http.StatusNotFound, codeItemNotFound),
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, codeSessionNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrInvalidTransition, http.StatusConflict, codeInvalidTransition),
		sentinelHandler(domain.ErrAIQuotaExceeded, http.StatusTooManyRequests, codeAIQuotaExceeded),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrGeocodingFailed, http.StatusBadGateway, codeGeocodingFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeExternalService),
		sentinelHandler(domain.ErrOracleUnavailable, http.StatusBadGateway, codeExternalService),
		sentinelHandler(domain.ErrExternalService, http.StatusBadGateway, codeExternalService),
	}
	return s
}

// Routes mounts all API handlers.
func (s *Server) Routes(r chi.Router) {
	r.Route("/items", func(r chi.Router) {
		r.Get("/", s.listItems)
		r.Post("/", s.registerItem)
		r.Post("/batch", s.registerBatch)
		r.Get("/{item}", s.getItem)
		r.Post("/{item}/status", s.updateItemStatus)
	})
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.startSession)
		r.Get("/{session}", s.getSession)
		r.Get("/{session}/phase", s.checkPhase)
		r.Post("/{session}/search", s.initiateSearch)
		r.Post("/{session}/matches", s.storeMatchResults)
		r.Get("/{session}/question", s.getQuestion)
		r.Post("/{session}/answer", s.storeAnswer)
		r.Post("/{session}/filter", s.applyFilter)
		r.Get("/{session}/result", s.finalResult)
	})
	r.Get("/health", s.healthCheck)
	r.Get("/usage", s.usageReport)
}

// registerItem handles POST /items.
func (s *Server) registerItem(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	it, err := s.items.Register(r.Context(), req.toInput())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, itemToAPI(&it))
}

// registerBatch handles POST /items/batch (bulk found-item upload).
func (s *Server) registerBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Batch must contain at least one item")
		return
	}
	if len(req.Items) > maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Batch size exceeds the limit")
		return
	}

	inputs := make([]registeruc.Input, len(req.Items))
	for i, item := range req.Items {
		inputs[i] = item.toInput()
	}

	results := s.items.BatchRegister(r.Context(), inputs)
	writeJSON(w, http.StatusOK, batchToAPI(results))
}

// listItems handles GET /items?category=...&status=...&offset=...&limit=....
func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid offset parameter")
		return
	}
	limit, err := queryInt(q.Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Invalid limit parameter")
		return
	}

	items, total, err := s.items.ListByCategory(r.Context(), q.Get("category"), domitem.Status(q.Get("status")), offset, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listToAPI(items, total))
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// getItem handles GET /items/{item}.
func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	it, err := s.items.Get(r.Context(), chi.URLParam(r, "item"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemToAPI(&it))
}

// updateItemStatus handles POST /items/{item}/status.
func (s *Server) updateItemStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	it, err := s.items.UpdateStatus(r.Context(), chi.URLParam(r, "item"), registeruc.StatusAction(req.Action), req.MatchedWith)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemToAPI(&it))
}

// startSession handles POST /sessions.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.StartSession(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionToAPI(&sess))
}

// getSession handles GET /sessions/{session}.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.GetSession(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToAPI(&sess))
}

// checkPhase handles GET /sessions/{session}/phase.
func (s *Server) checkPhase(w http.ResponseWriter, r *http.Request) {
	phase, err := s.engine.CheckPhase(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, phaseResponse{Phase: string(phase)})
}

// initiateSearch handles POST /sessions/{session}/search.
func (s *Server) initiateSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sess, err := s.engine.InitiateSearch(r.Context(), chi.URLParam(r, "session"), engineuc.SearchRequest{
		Description:  req.Description,
		Location:     req.Location,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToAPI(&sess))
}

// storeMatchResults handles POST /sessions/{session}/matches.
func (s *Server) storeMatchResults(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.StoreMatchResults(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToAPI(&sess))
}

// getQuestion handles GET /sessions/{session}/question.
func (s *Server) getQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := s.engine.GetQuestion(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questionResponse{Question: q.Text, Available: q.OK})
}

// storeAnswer handles POST /sessions/{session}/answer.
func (s *Server) storeAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sess, err := s.engine.StoreAnswer(r.Context(), chi.URLParam(r, "session"), req.Question, req.Answer)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToAPI(&sess))
}

// applyFilter handles POST /sessions/{session}/filter.
func (s *Server) applyFilter(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.ApplyFilter(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToAPI(&sess))
}

// finalResult handles GET /sessions/{session}/result.
func (s *Server) finalResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.FinalResult(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResponse{
		SessionID:  res.SessionID,
		ItemID:     res.ItemID,
		Confidence: res.Confidence,
		Message:    res.Message,
	})
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthToAPI(report))
}

// usageReport handles GET /usage.
func (s *Server) usageReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.usage.GetReport(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrItemNotFound,
		domain.ErrSessionNotFound,
		domain.ErrNotFound,
		domain.ErrInvalidTransition,
		domain.ErrAIQuotaExceeded,
		domain.ErrRateLimited,
		domain.ErrGeocodingFailed,
		domain.ErrEmbeddingProviderError,
		domain.ErrOracleUnavailable,
		domain.ErrExternalService,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// phaseConflictHandler handles workflow-phase mismatches with the phase in the payload.
func phaseConflictHandler(w http.ResponseWriter, err error, _ string) bool {
	var pe *domain.PhaseError
	if !errors.As(err, &pe) {
		return false
	}
	writeJSON(w, http.StatusConflict, map[string]any{
		"code":    codePhaseConflict,
		"message": pe.Error(),
		"phase":   pe.Phase,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("domain error", zap.String("path", r.URL.Path), zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
