package domain

import (
	"context"
	"time"
)

type SessionRepository interface {
	Create(ctx context.Context, s Session) error
	UpdateEligibility(ctx context.Context, id SessionID, spec EligibilitySpec, updatedAt time.Time) error
	FindByID(ctx context.Context, id SessionID) (Session, error)
	List(ctx context.Context) ([]Session, error)
}

// DirectoryRepository lê a hierarquia faculdade/departamento/nível mantida pela administração.
type DirectoryRepository interface {
	Colleges(ctx context.Context) ([]College, error)
}

// VoterDirectory é o lado de leitura do provedor de identidade e do cadastro de estudantes.
type VoterDirectory interface {
	FindVoter(ctx context.Context, id VoterID) (Voter, error)
	CountEligible(ctx context.Context, spec EligibilitySpec) (int64, error)
}

type VoteRepository interface {
	// AcceptedForKey lista os registros aceitos da chave, ordenados por slot.
	AcceptedForKey(ctx context.Context, key AdmissionKey) ([]VoteRecord, error)
	// Commit grava o registro e incrementa os contadores na mesma transação.
	// Devolve ErrDuplicateVote quando a chave/slot já foi ocupada.
	Commit(ctx context.Context, record VoteRecord) error
	Tally(ctx context.Context, sessionID SessionID, spec EligibilitySpec) (VoteTally, error)
}

type AttemptRepository interface {
	// Record devolve false quando a tentativa já estava gravada (reentrega da fila).
	Record(ctx context.Context, attempt RejectedAttempt) (bool, error)
	CountByReason(ctx context.Context, sessionID SessionID) (map[RejectionKind]int64, error)
	ListBySession(ctx context.Context, sessionID SessionID, limit int) ([]RejectedAttempt, error)
}

// AttemptLogger recebe as tentativas recusadas, de forma síncrona ou via fila.
type AttemptLogger interface {
	LogAttempt(ctx context.Context, attempt RejectedAttempt) error
}

type Contador interface {
	Incrementar(ctx context.Context, chave string, delta int64) (int64, error)
	IncrementarTodos(ctx context.Context, chaves []string, delta int64) error
	Obter(ctx context.Context, chave string) (int64, error)
	ObterTodos(ctx context.Context, chaves []string) (map[string]int64, error)
}

type Fila interface {
	AttemptLogger
	ConsumirTentativas(ctx context.Context, handler func(context.Context, RejectedAttempt) error) error
}

// KeyLocker serializa o trecho checagem de duplicidade + commit para uma única chave.
type KeyLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type Antifraude interface {
	Validar(ctx context.Context, req CastRequest) error
}

type SnapshotPublisher interface {
	PublishStats(ctx context.Context, stats SessionStats) (string, error)
}

type Clock interface {
	Agora() time.Time
}

type VotingService interface {
	CreateSession(ctx context.Context, s Session) (Session, error)
	UpdateEligibility(ctx context.Context, id SessionID, spec EligibilitySpec) (Session, error)
	GetSession(ctx context.Context, id SessionID) (Session, error)
	ListSessions(ctx context.Context) ([]Session, error)
	Directory(ctx context.Context) ([]College, error)
	BuildEligibility(ctx context.Context, op EligibilityOp) (EligibilityView, error)
	CastVote(ctx context.Context, req CastRequest) (CastResult, error)
	GetSessionStats(ctx context.Context, id SessionID) (SessionStats, error)
	ListAttempts(ctx context.Context, id SessionID, limit int) ([]RejectedAttempt, error)
	PublishStats(ctx context.Context, id SessionID) (string, error)
}
