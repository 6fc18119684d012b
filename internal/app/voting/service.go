// Pacote voting implementa as regras da votação no campus: sessões, elegibilidade, admissão de votos e estatísticas.
package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marcelojr/votacao-campus/internal/app/eligibility"
	"github.com/marcelojr/votacao-campus/internal/app/geofence"
	"github.com/marcelojr/votacao-campus/internal/app/window"
	"github.com/marcelojr/votacao-campus/internal/domain"
	"github.com/marcelojr/votacao-campus/internal/platform/ids"
	"github.com/marcelojr/votacao-campus/internal/platform/logger"
)

const (
	defaultAttemptsLimit = 50
	maxAttemptsLimit     = 500
)

// Dependencies agrupa os colaboradores do serviço. Contador, AttemptLog, Antifraude
// e Publisher são opcionais.
type Dependencies struct {
	Sessions   domain.SessionRepository
	Directory  domain.DirectoryRepository
	Voters     domain.VoterDirectory
	Votes      domain.VoteRepository
	Attempts   domain.AttemptRepository
	AttemptLog domain.AttemptLogger
	Contador   domain.Contador
	Locker     domain.KeyLocker
	Antifraude domain.Antifraude
	Publisher  domain.SnapshotPublisher
	Clock      domain.Clock
	IDs        *ids.Generator
	Logger     *slog.Logger
}

// Service concentra as regras de votação e delega acesso a repositórios, fila e locks.
type Service struct {
	sessions   domain.SessionRepository
	directory  domain.DirectoryRepository
	voters     domain.VoterDirectory
	votes      domain.VoteRepository
	attempts   domain.AttemptRepository
	attemptLog domain.AttemptLogger
	contador   domain.Contador
	locker     domain.KeyLocker
	antifraude domain.Antifraude
	publisher  domain.SnapshotPublisher
	clock      domain.Clock
	ids        *ids.Generator
	logger     *slog.Logger
}

func NewService(deps Dependencies) *Service {
	if deps.IDs == nil {
		deps.IDs = ids.DefaultGenerator()
	}
	if deps.Logger == nil {
		deps.Logger = logger.L()
	}
	return &Service{
		sessions:   deps.Sessions,
		directory:  deps.Directory,
		voters:     deps.Voters,
		votes:      deps.Votes,
		attempts:   deps.Attempts,
		attemptLog: deps.AttemptLog,
		contador:   deps.Contador,
		locker:     deps.Locker,
		antifraude: deps.Antifraude,
		publisher:  deps.Publisher,
		clock:      deps.Clock,
		ids:        deps.IDs,
		logger:     deps.Logger,
	}
}

// CreateSession valida janela, geofence, categorias e spec antes de gravar a sessão inteira.
func (s *Service) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	if strings.TrimSpace(session.Name) == "" {
		return domain.Session{}, fmt.Errorf("%w: nome obrigatorio", domain.ErrInvalidSession)
	}
	if !window.Valid(session.StartTime, session.EndTime) {
		return domain.Session{}, fmt.Errorf("%w: inicio deve ser anterior ao fim", domain.ErrInvalidTimeWindow)
	}
	if !geofence.ValidateConfig(session.Geofence) {
		return domain.Session{}, fmt.Errorf("%w: centro ou raio fora do intervalo", domain.ErrInvalidGeofence)
	}
	categories, err := s.prepareCategories(session.Categories)
	if err != nil {
		return domain.Session{}, err
	}
	spec, err := s.validateSpec(ctx, session.Eligibility)
	if err != nil {
		return domain.Session{}, err
	}

	agora := s.clock.Agora()
	session.ID = domain.SessionID(s.ids.NewAt(agora))
	session.StartTime = session.StartTime.UTC()
	session.EndTime = session.EndTime.UTC()
	session.Eligibility = spec
	session.Categories = categories
	session.TotalVotes = 0
	session.CreatedAt = agora
	session.UpdatedAt = agora

	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.Session{}, classify("gravar sessao", err)
	}
	s.logger.Info("sessao criada", "sessao", session.ID, "categorias", len(categories))
	return session, nil
}

// UpdateEligibility troca a spec da sessão. Votos já aceitos continuam válidos.
func (s *Service) UpdateEligibility(ctx context.Context, id domain.SessionID, spec domain.EligibilitySpec) (domain.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return domain.Session{}, classify("buscar sessao", err)
	}
	normalized, err := s.validateSpec(ctx, spec)
	if err != nil {
		return domain.Session{}, err
	}
	agora := s.clock.Agora()
	if err := s.sessions.UpdateEligibility(ctx, id, normalized, agora); err != nil {
		return domain.Session{}, classify("atualizar elegibilidade", err)
	}
	session.Eligibility = normalized
	session.UpdatedAt = agora
	return session, nil
}

func (s *Service) GetSession(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return domain.Session{}, classify("buscar sessao", err)
	}
	if s.contador != nil {
		total, err := s.contador.Obter(ctx, CounterKeyRejected(id))
		if err != nil {
			s.logger.Warn("falha ao ler contador de recusas", "err", err, "sessao", id)
		}
		session.RejectedAttempts = total
	}
	return session, nil
}

func (s *Service) ListSessions(ctx context.Context) ([]domain.Session, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, transient("listar sessoes", err)
	}
	return sessions, nil
}

func (s *Service) Directory(ctx context.Context) ([]domain.College, error) {
	colleges, err := s.directory.Colleges(ctx)
	if err != nil {
		return nil, transient("ler diretorio", err)
	}
	return colleges, nil
}

// BuildEligibility aplica uma edição sobre uma spec ainda em rascunho; nada é persistido.
func (s *Service) BuildEligibility(ctx context.Context, op domain.EligibilityOp) (domain.EligibilityView, error) {
	colleges, err := s.directory.Colleges(ctx)
	if err != nil {
		return domain.EligibilityView{}, transient("ler diretorio", err)
	}
	return eligibility.NewBuilder(colleges).Apply(op)
}

func (s *Service) ListAttempts(ctx context.Context, id domain.SessionID, limit int) ([]domain.RejectedAttempt, error) {
	if _, err := s.sessions.FindByID(ctx, id); err != nil {
		return nil, classify("buscar sessao", err)
	}
	if limit <= 0 {
		limit = defaultAttemptsLimit
	}
	if limit > maxAttemptsLimit {
		limit = maxAttemptsLimit
	}
	attempts, err := s.attempts.ListBySession(ctx, id, limit)
	if err != nil {
		return nil, transient("listar tentativas", err)
	}
	return attempts, nil
}

// PublishStats recalcula as estatísticas e grava uma cópia no armazenamento de objetos.
func (s *Service) PublishStats(ctx context.Context, id domain.SessionID) (string, error) {
	if s.publisher == nil {
		return "", domain.ErrSnapshotsDisabled
	}
	stats, err := s.GetSessionStats(ctx, id)
	if err != nil {
		return "", err
	}
	key, err := s.publisher.PublishStats(ctx, stats)
	if err != nil {
		return "", transient("publicar estatisticas", err)
	}
	s.logger.Info("estatisticas publicadas", "sessao", id, "objeto", key)
	return key, nil
}

func (s *Service) validateSpec(ctx context.Context, spec domain.EligibilitySpec) (domain.EligibilitySpec, error) {
	colleges, err := s.directory.Colleges(ctx)
	if err != nil {
		return domain.EligibilitySpec{}, transient("ler diretorio", err)
	}
	return eligibility.NewBuilder(colleges).Validate(spec)
}

func (s *Service) prepareCategories(in []domain.Category) ([]domain.Category, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: ao menos uma categoria", domain.ErrInvalidSession)
	}
	names := make(map[string]struct{}, len(in))
	// Candidato pertence a uma única categoria: ids são únicos na sessão inteira.
	seen := make(map[domain.CandidateID]struct{})
	out := make([]domain.Category, len(in))
	for i, c := range in {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return nil, fmt.Errorf("%w: categoria sem nome", domain.ErrInvalidSession)
		}
		if _, dup := names[c.Name]; dup {
			return nil, fmt.Errorf("%w: categoria repetida %q", domain.ErrInvalidSession, c.Name)
		}
		names[c.Name] = struct{}{}
		if c.MaxVotes == 0 {
			c.MaxVotes = 1
		}
		if c.MaxVotes < 0 {
			return nil, fmt.Errorf("%w: max_votes negativo em %q", domain.ErrInvalidSession, c.Name)
		}
		if len(c.Candidates) == 0 {
			return nil, fmt.Errorf("%w: categoria %q sem candidatos", domain.ErrInvalidSession, c.Name)
		}

		candidates := make([]domain.Candidate, len(c.Candidates))
		for j, cand := range c.Candidates {
			if strings.TrimSpace(cand.Name) == "" {
				return nil, fmt.Errorf("%w: candidato sem nome em %q", domain.ErrInvalidSession, c.Name)
			}
			if cand.ID == "" {
				cand.ID = domain.CandidateID(s.ids.New())
			}
			if _, dup := seen[cand.ID]; dup {
				return nil, fmt.Errorf("%w: candidato repetido %s em %q", domain.ErrInvalidSession, cand.ID, c.Name)
			}
			seen[cand.ID] = struct{}{}
			cand.VoteCount = 0
			candidates[j] = cand
		}
		c.Candidates = candidates
		out[i] = c
	}
	return out, nil
}

// classify mantém erros de negócio do repositório e marca o resto como transitório.
func classify(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidSession) {
		return err
	}
	return transient(op, err)
}

func transient(op string, err error) error {
	if errors.Is(err, domain.ErrTransient) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrTransient, op, err)
}

var _ domain.VotingService = (*Service)(nil)
