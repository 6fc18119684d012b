package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcelojr/votacao-campus/internal/app/eligibility"
	"github.com/marcelojr/votacao-campus/internal/app/geofence"
	"github.com/marcelojr/votacao-campus/internal/app/window"
	"github.com/marcelojr/votacao-campus/internal/domain"
	"github.com/marcelojr/votacao-campus/internal/platform/metrics"
)

const maxCommitAttempts = 2

// CastVote decide a admissão de um voto. Recusas de negócio voltam como CastResult;
// o erro fica para antifraude, eleitor desconhecido e falhas de infraestrutura.
func (s *Service) CastVote(ctx context.Context, req domain.CastRequest) (domain.CastResult, error) {
	if req.VoterID == "" || req.SessionID == "" || req.Category == "" || req.CandidateID == "" {
		metrics.ObserveVoteCast("invalid_request")
		return domain.CastResult{}, fmt.Errorf("%w: eleitor, sessao, categoria e candidato sao obrigatorios", domain.ErrInvalidCastRequest)
	}
	if s.antifraude != nil {
		if err := s.antifraude.Validar(ctx, req); err != nil {
			metrics.ObserveVoteCast("rate_limited")
			return domain.CastResult{}, err
		}
	}

	agora := s.clock.Agora()
	result, err := s.decide(ctx, req, agora)
	if err != nil {
		metrics.ObserveVoteCast("error")
		return domain.CastResult{}, err
	}

	switch {
	case result.Accepted && result.Replayed:
		metrics.ObserveVoteCast("replayed")
	case result.Accepted:
		metrics.ObserveVoteCast(string(domain.OutcomeAccepted))
	default:
		metrics.ObserveVoteCast(string(result.Reason))
		s.logRejection(ctx, req, result.Reason, agora)
	}
	return result, nil
}

func (s *Service) decide(ctx context.Context, req domain.CastRequest, agora time.Time) (domain.CastResult, error) {
	session, err := s.sessions.FindByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Reject(domain.RejectSessionNotFound), nil
		}
		return domain.CastResult{}, transient("buscar sessao", err)
	}
	if window.State(agora, session.StartTime, session.EndTime) != window.Active {
		return domain.Reject(domain.RejectSessionNotActive), nil
	}

	voter, err := s.voters.FindVoter(ctx, req.VoterID)
	if err != nil {
		if errors.Is(err, domain.ErrVoterNotFound) {
			return domain.CastResult{}, err
		}
		return domain.CastResult{}, transient("buscar eleitor", err)
	}
	if !eligibility.Matches(session.Eligibility, voter) {
		return domain.Reject(domain.RejectNotEligible), nil
	}

	category, ok := session.FindCategory(req.Category)
	if !ok || !category.HasCandidate(req.CandidateID) {
		return domain.Reject(domain.RejectInvalidCandidate), nil
	}

	// Checagem de duplicidade e commit ficam sob o lock da chave; chaves diferentes não se bloqueiam.
	key := req.Key()
	unlock, err := s.locker.Lock(ctx, key.String())
	if err != nil {
		return domain.CastResult{}, transient("lock da chave", err)
	}
	defer unlock()

	for tentativa := 1; ; tentativa++ {
		existing, err := s.votes.AcceptedForKey(ctx, key)
		if err != nil {
			return domain.CastResult{}, transient("buscar votos da chave", err)
		}
		for _, record := range existing {
			if record.CandidateID != req.CandidateID {
				continue
			}
			if req.IdempotencyKey != "" && record.IdempotencyKey == req.IdempotencyKey {
				replay := domain.Accept(record)
				replay.Replayed = true
				return replay, nil
			}
			return domain.Reject(domain.RejectDuplicateVote), nil
		}
		if len(existing) >= category.MaxVotes {
			return domain.Reject(domain.RejectDuplicateVote), nil
		}

		if reason, rejected := geofence.Check(session.Geofence, req.Location).Rejection(); rejected {
			return domain.Reject(reason), nil
		}

		record := domain.VoteRecord{
			ID:             domain.RecordID(s.ids.NewAt(agora)),
			VoterID:        req.VoterID,
			SessionID:      req.SessionID,
			Category:       req.Category,
			CandidateID:    req.CandidateID,
			DepartmentID:   voter.DepartmentID,
			Level:          voter.Level,
			Slot:           len(existing),
			IdempotencyKey: req.IdempotencyKey,
			Outcome:        domain.OutcomeAccepted,
			CommittedAt:    agora,
		}

		start := time.Now()
		err = s.votes.Commit(ctx, record)
		metrics.ObserveCommitDuration(time.Since(start).Seconds())
		if err == nil {
			return domain.Accept(record), nil
		}
		if !errors.Is(err, domain.ErrDuplicateVote) {
			return domain.CastResult{}, transient("gravar voto", err)
		}
		// Outro commit ocupou o slot por fora do lock; a chave é relida uma única vez.
		if tentativa >= maxCommitAttempts {
			return domain.Reject(domain.RejectDuplicateVote), nil
		}
		s.logger.Info("slot ocupado por outro commit, relendo chave", "chave", key.String())
	}
}

// logRejection nunca altera a decisão: falhas aqui só vão para o log.
func (s *Service) logRejection(ctx context.Context, req domain.CastRequest, reason domain.RejectionKind, agora time.Time) {
	if s.attemptLog == nil {
		return
	}
	attempt := domain.RejectedAttempt{
		ID:          domain.AttemptID(s.ids.NewAt(agora)),
		VoterID:     req.VoterID,
		SessionID:   req.SessionID,
		Category:    req.Category,
		CandidateID: req.CandidateID,
		Reason:      reason,
		AttemptedAt: agora,
	}
	if err := s.attemptLog.LogAttempt(context.WithoutCancel(ctx), attempt); err != nil {
		s.logger.Warn("falha ao registrar tentativa recusada", "err", err, "sessao", req.SessionID, "motivo", reason)
	}
}
