// Pacote worker contém o processamento das tentativas recusadas vindas da fila Redis.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelojr/votacao-campus/internal/app/voting"
	"github.com/marcelojr/votacao-campus/internal/domain"
	"github.com/marcelojr/votacao-campus/internal/platform/logger"
	"github.com/marcelojr/votacao-campus/internal/platform/metrics"
)

// AttemptProcessor grava tentativas recusadas e mantém contadores e métricas.
// Sem fila configurada, a API o usa direto como AttemptLogger.
type AttemptProcessor struct {
	repo     domain.AttemptRepository
	contador domain.Contador
	clock    domain.Clock
}

func NewAttemptProcessor(repo domain.AttemptRepository, contador domain.Contador, clock domain.Clock) *AttemptProcessor {
	return &AttemptProcessor{
		repo:     repo,
		contador: contador,
		clock:    clock,
	}
}

func (p *AttemptProcessor) LogAttempt(ctx context.Context, attempt domain.RejectedAttempt) error {
	return p.Process(ctx, attempt)
}

func (p *AttemptProcessor) Process(ctx context.Context, attempt domain.RejectedAttempt) error {
	start := time.Now()

	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = p.clock.Agora()
	}

	inserted, err := p.repo.Record(ctx, attempt)
	if err != nil {
		return fmt.Errorf("worker: registrar tentativa %s: %w", attempt.ID, err)
	}
	// Reentrega da fila: a linha já existe.
	if !inserted {
		return nil
	}

	// A linha já está gravada; contador que falhou é corrigido na próxima leitura das estatísticas.
	if p.contador != nil {
		if err := p.contador.IncrementarTodos(ctx, voting.RejectionCounterKeys(attempt), 1); err != nil {
			logger.Warn("falha ao incrementar contadores de recusa", "err", err, "sessao", attempt.SessionID, "motivo", attempt.Reason)
		}
	}

	metrics.IncAttemptProcessed(string(attempt.Reason))
	metrics.ObserveAttemptDuration(time.Since(start).Seconds())
	return nil
}

var _ domain.AttemptLogger = (*AttemptProcessor)(nil)
