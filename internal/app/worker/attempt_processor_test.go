package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcelojr/votacao-campus/internal/app/voting"
	"github.com/marcelojr/votacao-campus/internal/domain"
)

func TestAttemptProcessorProcess(t *testing.T) {
	repo := &memAttemptRepo{}
	contador := &memContador{valores: make(map[string]int64)}
	clock := &fixedClock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}

	processor := NewAttemptProcessor(repo, contador, clock)

	attempt := domain.RejectedAttempt{
		ID:          "tentativa-1",
		VoterID:     "aluno-1",
		SessionID:   "sessao-1",
		Category:    "presidente",
		CandidateID: "cand-1",
		Reason:      domain.RejectDuplicateVote,
	}

	if err := processor.Process(context.Background(), attempt); err != nil {
		t.Fatalf("Process retornou erro inesperado: %v", err)
	}

	if len(repo.tentativas) != 1 {
		t.Fatalf("esperava 1 tentativa persistida, obteve %d", len(repo.tentativas))
	}
	if repo.tentativas[0].AttemptedAt.IsZero() {
		t.Fatal("worker deveria preencher AttemptedAt quando vazio")
	}

	total := contador.valores[voting.CounterKeyRejected(attempt.SessionID)]
	if total != 1 {
		t.Fatalf("contador total deveria ser 1, veio %d", total)
	}
	porMotivo := contador.valores[voting.CounterKeyRejectedReason(attempt.SessionID, attempt.Reason)]
	if porMotivo != 1 {
		t.Fatalf("contador por motivo deveria ser 1, veio %d", porMotivo)
	}
}

func TestAttemptProcessorReentregaNaoDuplicaContadores(t *testing.T) {
	repo := &memAttemptRepo{}
	contador := &memContador{valores: make(map[string]int64)}
	processor := NewAttemptProcessor(repo, contador, &fixedClock{now: time.Now()})

	attempt := domain.RejectedAttempt{ID: "t-1", SessionID: "s-1", Reason: domain.RejectOutOfRange}
	for i := 0; i < 3; i++ {
		if err := processor.LogAttempt(context.Background(), attempt); err != nil {
			t.Fatalf("LogAttempt retornou erro: %v", err)
		}
	}

	if got := contador.valores[voting.CounterKeyRejected("s-1")]; got != 1 {
		t.Fatalf("reentregas nao deveriam somar de novo, contador veio %d", got)
	}
}

func TestAttemptProcessorSemContador(t *testing.T) {
	repo := &memAttemptRepo{}
	processor := NewAttemptProcessor(repo, nil, &fixedClock{now: time.Now()})

	if err := processor.Process(context.Background(), domain.RejectedAttempt{ID: "t-1", SessionID: "s-1", Reason: domain.RejectNotEligible}); err != nil {
		t.Fatalf("Process retornou erro: %v", err)
	}
	if len(repo.tentativas) != 1 {
		t.Fatalf("tentativa deveria ser gravada mesmo sem contador, total %d", len(repo.tentativas))
	}
}

func TestAttemptProcessorFalhaNoRepositorio(t *testing.T) {
	repo := &memAttemptRepo{err: errors.New("db fora")}
	contador := &memContador{valores: make(map[string]int64)}
	processor := NewAttemptProcessor(repo, contador, &fixedClock{now: time.Now()})

	err := processor.Process(context.Background(), domain.RejectedAttempt{ID: "t-1", SessionID: "s-1", Reason: domain.RejectNotEligible})
	if err == nil {
		t.Fatal("esperava erro do repositorio")
	}
	if len(contador.valores) != 0 {
		t.Fatalf("contadores nao deveriam mudar quando a gravacao falha: %v", contador.valores)
	}
}

func TestAttemptProcessorFalhaNoContadorNaoDevolveMensagem(t *testing.T) {
	repo := &memAttemptRepo{}
	contador := &memContador{valores: make(map[string]int64), err: errors.New("redis indisponivel")}
	processor := NewAttemptProcessor(repo, contador, &fixedClock{now: time.Now()})
	attempt := domain.RejectedAttempt{ID: "t-1", SessionID: "s-1", Reason: domain.RejectNotEligible}

	if err := processor.Process(context.Background(), attempt); err != nil {
		t.Fatalf("linha gravada nao deveria voltar para a fila: %v", err)
	}
	if len(repo.tentativas) != 1 {
		t.Fatalf("tentativa deveria ficar gravada, total %d", len(repo.tentativas))
	}

	contador.err = nil
	if err := processor.Process(context.Background(), attempt); err != nil {
		t.Fatalf("reentrega retornou erro: %v", err)
	}
	if len(repo.tentativas) != 1 {
		t.Fatalf("reentrega nao pode duplicar a linha, total %d", len(repo.tentativas))
	}
}

type memAttemptRepo struct {
	tentativas []domain.RejectedAttempt
	err        error
}

func (m *memAttemptRepo) Record(_ context.Context, attempt domain.RejectedAttempt) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, t := range m.tentativas {
		if t.ID == attempt.ID {
			return false, nil
		}
	}
	m.tentativas = append(m.tentativas, attempt)
	return true, nil
}

func (m *memAttemptRepo) CountByReason(context.Context, domain.SessionID) (map[domain.RejectionKind]int64, error) {
	return nil, nil
}

func (m *memAttemptRepo) ListBySession(context.Context, domain.SessionID, int) ([]domain.RejectedAttempt, error) {
	return nil, nil
}

type memContador struct {
	valores map[string]int64
	err     error
}

func (m *memContador) Incrementar(_ context.Context, chave string, delta int64) (int64, error) {
	m.valores[chave] += delta
	return m.valores[chave], nil
}

func (m *memContador) IncrementarTodos(_ context.Context, chaves []string, delta int64) error {
	if m.err != nil {
		return m.err
	}
	for _, chave := range chaves {
		m.valores[chave] += delta
	}
	return nil
}

func (m *memContador) Obter(_ context.Context, chave string) (int64, error) {
	return m.valores[chave], nil
}

func (m *memContador) ObterTodos(_ context.Context, chaves []string) (map[string]int64, error) {
	resultado := make(map[string]int64, len(chaves))
	for _, chave := range chaves {
		resultado[chave] = m.valores[chave]
	}
	return resultado, nil
}

type fixedClock struct {
	now time.Time
}

func (f *fixedClock) Agora() time.Time {
	return f.now
}
