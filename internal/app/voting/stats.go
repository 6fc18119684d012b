package voting

import (
	"context"

	"github.com/marcelojr/votacao-campus/internal/app/turnout"
	"github.com/marcelojr/votacao-campus/internal/domain"
)

// GetSessionStats recalcula as estatísticas a cada chamada a partir das linhas gravadas.
func (s *Service) GetSessionStats(ctx context.Context, id domain.SessionID) (domain.SessionStats, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return domain.SessionStats{}, classify("buscar sessao", err)
	}
	eligible, err := s.voters.CountEligible(ctx, session.Eligibility)
	if err != nil {
		return domain.SessionStats{}, transient("contar elegiveis", err)
	}
	tally, err := s.votes.Tally(ctx, id, session.Eligibility)
	if err != nil {
		return domain.SessionStats{}, transient("apurar votos", err)
	}
	rejections, err := s.rejectionCounts(ctx, id)
	if err != nil {
		return domain.SessionStats{}, err
	}

	return turnout.Compute(turnout.Input{
		Session:    session,
		Eligible:   eligible,
		Tally:      tally,
		Rejections: rejections,
		Now:        s.clock.Agora(),
	}), nil
}

// rejectionCounts conta as recusas nas tentativas gravadas. Os contadores do Redis
// são acertados a partir desse resultado, nunca o contrário.
func (s *Service) rejectionCounts(ctx context.Context, id domain.SessionID) (map[domain.RejectionKind]int64, error) {
	if s.attempts == nil {
		return map[domain.RejectionKind]int64{}, nil
	}
	counts, err := s.attempts.CountByReason(ctx, id)
	if err != nil {
		return nil, transient("contar recusas", err)
	}
	s.reconcileCounters(ctx, id, counts)
	return counts, nil
}

// reconcileCounters corrige o cache quando ele diverge das linhas: INCR perdido no
// worker ou Redis reiniciado sem persistência. Falhas só vão para o log.
func (s *Service) reconcileCounters(ctx context.Context, id domain.SessionID, counts map[domain.RejectionKind]int64) {
	if s.contador == nil {
		return
	}

	esperado := make(map[string]int64, len(counts)+1)
	var total int64
	for _, kind := range domain.RejectionKinds() {
		esperado[CounterKeyRejectedReason(id, kind)] = counts[kind]
		total += counts[kind]
	}
	esperado[CounterKeyRejected(id)] = total

	chaves := make([]string, 0, len(esperado))
	for chave := range esperado {
		chaves = append(chaves, chave)
	}
	atuais, err := s.contador.ObterTodos(ctx, chaves)
	if err != nil {
		s.logger.Warn("falha ao ler contadores de recusa", "err", err, "sessao", id)
		return
	}

	for _, chave := range chaves {
		delta := esperado[chave] - atuais[chave]
		if delta == 0 {
			continue
		}
		s.logger.Warn("contador de recusa divergente, corrigindo", "chave", chave, "cache", atuais[chave], "gravado", esperado[chave])
		if _, err := s.contador.Incrementar(ctx, chave, delta); err != nil {
			s.logger.Warn("falha ao corrigir contador de recusa", "err", err, "chave", chave)
			return
		}
	}
}
