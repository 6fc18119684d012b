// Pacote httpapi expõe os handlers REST e traduz requisições HTTP para o serviço de votação.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/marcelojr/votacao-campus/internal/domain"
	"github.com/marcelojr/votacao-campus/internal/platform/antifraude"
)

// HeaderVoterID é preenchido pelo gateway de identidade depois da autenticação.
const (
	HeaderVoterID        = "X-Voter-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// API empacota handlers HTTP ligados ao serviço de votação e ao logger.
type API struct {
	service domain.VotingService
	logger  *slog.Logger
}

func New(service domain.VotingService, logger *slog.Logger) *API {
	return &API{service: service, logger: logger}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /directory", a.listarDiretorio)
	mux.HandleFunc("POST /eligibility/{op}", a.editarElegibilidade)

	mux.HandleFunc("POST /sessions", a.criarSessao)
	mux.HandleFunc("GET /sessions", a.listarSessoes)
	mux.HandleFunc("GET /sessions/{id}", a.obterSessao)
	mux.HandleFunc("PUT /sessions/{id}/eligibility", a.atualizarElegibilidade)
	mux.HandleFunc("GET /sessions/{id}/stats", a.obterEstatisticas)
	mux.HandleFunc("POST /sessions/{id}/stats/publish", a.publicarEstatisticas)
	mux.HandleFunc("GET /sessions/{id}/attempts", a.listarTentativas)

	mux.HandleFunc("POST /votes", a.registrarVoto)
}

func (a *API) listarDiretorio(w http.ResponseWriter, r *http.Request) {
	colleges, err := a.service.Directory(r.Context())
	if err != nil {
		a.logger.Error("erro ao listar diretorio", "err", err)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, colleges)
}

type eligibilityRequest struct {
	Spec         domain.EligibilitySpec `json:"spec"`
	DepartmentID domain.DepartmentID    `json:"department_id"`
	CollegeID    domain.CollegeID       `json:"college_id"`
	Level        domain.Level           `json:"level"`
}

func (a *API) editarElegibilidade(w http.ResponseWriter, r *http.Request) {
	var req eligibilityRequest
	if !decodificar(w, r, &req) {
		return
	}
	view, err := a.service.BuildEligibility(r.Context(), domain.EligibilityOp{
		Kind:         domain.EligibilityOpKind(r.PathValue("op")),
		Spec:         req.Spec,
		DepartmentID: req.DepartmentID,
		CollegeID:    req.CollegeID,
		Level:        req.Level,
	})
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, view)
}

type sessionRequest struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	StartTime   time.Time              `json:"start_time"`
	EndTime     time.Time              `json:"end_time"`
	Geofence    domain.Geofence        `json:"geofence"`
	Eligibility domain.EligibilitySpec `json:"eligibility"`
	Categories  []domain.Category      `json:"categories"`
}

func (a *API) criarSessao(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decodificar(w, r, &req) {
		return
	}
	session, err := a.service.CreateSession(r.Context(), domain.Session{
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Geofence:    req.Geofence,
		Eligibility: req.Eligibility,
		Categories:  req.Categories,
	})
	if err != nil {
		a.logger.Warn("falha ao criar sessao", "err", err)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusCreated, session)
}

func (a *API) listarSessoes(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.service.ListSessions(r.Context())
	if err != nil {
		a.logger.Error("erro ao listar sessoes", "err", err)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, sessions)
}

func (a *API) obterSessao(w http.ResponseWriter, r *http.Request) {
	session, err := a.service.GetSession(r.Context(), domain.SessionID(r.PathValue("id")))
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, session)
}

func (a *API) atualizarElegibilidade(w http.ResponseWriter, r *http.Request) {
	var spec domain.EligibilitySpec
	if !decodificar(w, r, &spec) {
		return
	}
	id := domain.SessionID(r.PathValue("id"))
	session, err := a.service.UpdateEligibility(r.Context(), id, spec)
	if err != nil {
		a.logger.Warn("falha ao atualizar elegibilidade", "err", err, "sessao", id)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, session)
}

func (a *API) obterEstatisticas(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("id"))
	stats, err := a.service.GetSessionStats(r.Context(), id)
	if err != nil {
		a.logger.Error("erro ao obter estatisticas", "err", err, "sessao", id)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, stats)
}

func (a *API) publicarEstatisticas(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("id"))
	key, err := a.service.PublishStats(r.Context(), id)
	if err != nil {
		a.logger.Error("erro ao publicar estatisticas", "err", err, "sessao", id)
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusCreated, map[string]string{"object_key": key})
}

func (a *API) listarTentativas(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limit invalido", http.StatusBadRequest)
			return
		}
		limit = n
	}
	attempts, err := a.service.ListAttempts(r.Context(), domain.SessionID(r.PathValue("id")), limit)
	if err != nil {
		responderErro(w, err)
		return
	}
	responderJSON(w, http.StatusOK, attempts)
}

type votoRequest struct {
	SessionID   string           `json:"session_id"`
	Category    string           `json:"category"`
	CandidateID string           `json:"candidate_id"`
	Location    *domain.Location `json:"location"`
}

func (a *API) registrarVoto(w http.ResponseWriter, r *http.Request) {
	voterID := r.Header.Get(HeaderVoterID)
	if voterID == "" {
		http.Error(w, "eleitor nao identificado", http.StatusUnauthorized)
		return
	}
	var req votoRequest
	if !decodificar(w, r, &req) {
		return
	}

	result, err := a.service.CastVote(r.Context(), domain.CastRequest{
		VoterID:        domain.VoterID(voterID),
		SessionID:      domain.SessionID(req.SessionID),
		Category:       req.Category,
		CandidateID:    domain.CandidateID(req.CandidateID),
		Location:       req.Location,
		IdempotencyKey: r.Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		a.logger.Warn("falha ao registrar voto", "err", err, "sessao", req.SessionID, "categoria", req.Category)
		responderErro(w, err)
		return
	}

	if !result.Accepted {
		a.logger.Info("voto recusado", "sessao", req.SessionID, "categoria", req.Category, "motivo", result.Reason)
	} else {
		a.logger.Info("voto aceito", "sessao", req.SessionID, "categoria", req.Category, "replay", result.Replayed)
	}
	responderJSON(w, statusFromResult(result), result)
}

func decodificar(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "payload invalido", http.StatusBadRequest)
		return false
	}
	return true
}

func responderJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func responderErro(w http.ResponseWriter, err error) {
	responderJSON(w, statusFromError(err), map[string]string{"erro": err.Error()})
}

// statusFromResult: conflitos de estado viram 409, o resto das recusas 422.
func statusFromResult(result domain.CastResult) int {
	if result.Accepted {
		return http.StatusOK
	}
	switch result.Reason {
	case domain.RejectDuplicateVote, domain.RejectSessionNotActive:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, antifraude.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrTransient):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrVoterNotFound):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSnapshotsDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, domain.ErrInvalidSession),
		errors.Is(err, domain.ErrInvalidTimeWindow),
		errors.Is(err, domain.ErrInvalidGeofence),
		errors.Is(err, domain.ErrInvalidDepartment),
		errors.Is(err, domain.ErrInvalidCollege),
		errors.Is(err, domain.ErrLevelNotAvailable),
		errors.Is(err, domain.ErrInvalidEligibility),
		errors.Is(err, domain.ErrInvalidCastRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
