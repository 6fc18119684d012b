package postgres

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

func contadores(t *testing.T, repo *SessionRepository, s domain.Session) (int64, map[domain.CandidateID]int64) {
	t.Helper()
	atual, err := repo.FindByID(context.Background(), s.ID)
	require.NoError(t, err)
	porCandidato := make(map[domain.CandidateID]int64)
	for _, c := range atual.Categories {
		for _, cand := range c.Candidates {
			porCandidato[cand.ID] = cand.VoteCount
		}
	}
	return atual.TotalVotes, porCandidato
}

func TestVoteRepository_Commit_QuandoValido_DeveGravarEIncrementarContadores(t *testing.T) {
	db := setupPostgres(t)
	repo := NewVoteRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()

	// Arrange
	s := criarSessao(t, db)
	ada := s.Categories[0].Candidates[0].ID

	// Act
	err := repo.Commit(ctx, novoVoto(s, "a1", "presidente", ada, 0))

	// Assert
	require.NoError(t, err)
	total, porCandidato := contadores(t, sessions, s)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(1), porCandidato[ada])

	registros, err := repo.AcceptedForKey(ctx, domain.AdmissionKey{VoterID: "a1", SessionID: s.ID, Category: "presidente"})
	require.NoError(t, err)
	require.Len(t, registros, 1)
	assert.Equal(t, ada, registros[0].CandidateID)
	assert.Equal(t, domain.OutcomeAccepted, registros[0].Outcome)
}

func TestVoteRepository_Commit_QuandoSlotOcupado_DeveRetornarDuplicadoSemAlterarContadores(t *testing.T) {
	db := setupPostgres(t)
	repo := NewVoteRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()

	s := criarSessao(t, db)
	ada := s.Categories[0].Candidates[0].ID
	grace := s.Categories[0].Candidates[1].ID
	require.NoError(t, repo.Commit(ctx, novoVoto(s, "a1", "presidente", ada, 0)))

	// Act
	err := repo.Commit(ctx, novoVoto(s, "a1", "presidente", grace, 0))

	// Assert
	assert.ErrorIs(t, err, domain.ErrDuplicateVote)
	total, porCandidato := contadores(t, sessions, s)
	assert.Equal(t, int64(1), total)
	assert.Zero(t, porCandidato[grace])
}

func TestVoteRepository_Commit_QuandoMesmoCandidatoEmOutroSlot_DeveRetornarDuplicado(t *testing.T) {
	db := setupPostgres(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	s := criarSessao(t, db)
	linus := s.Categories[1].Candidates[0].ID
	require.NoError(t, repo.Commit(ctx, novoVoto(s, "a1", "conselho", linus, 0)))

	err := repo.Commit(ctx, novoVoto(s, "a1", "conselho", linus, 1))

	assert.ErrorIs(t, err, domain.ErrDuplicateVote)
}

func TestVoteRepository_Commit_QuandoMultiplaEscolha_DeveAceitarSlotsDistintos(t *testing.T) {
	db := setupPostgres(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	s := criarSessao(t, db)
	linus := s.Categories[1].Candidates[0].ID
	ken := s.Categories[1].Candidates[1].ID

	require.NoError(t, repo.Commit(ctx, novoVoto(s, "a1", "conselho", ken, 0)))
	require.NoError(t, repo.Commit(ctx, novoVoto(s, "a1", "conselho", linus, 1)))

	registros, err := repo.AcceptedForKey(ctx, domain.AdmissionKey{VoterID: "a1", SessionID: s.ID, Category: "conselho"})
	require.NoError(t, err)
	require.Len(t, registros, 2)
	assert.Equal(t, 0, registros[0].Slot)
	assert.Equal(t, 1, registros[1].Slot)
}

func TestVoteRepository_Commit_QuandoCandidatoInexistente_DeveDesfazerRegistro(t *testing.T) {
	db := setupPostgres(t)
	repo := NewVoteRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()

	s := criarSessao(t, db)

	// Act
	err := repo.Commit(ctx, novoVoto(s, "a1", "presidente", "fantasma", 0))

	// Assert: falha de infraestrutura, nunca duplicado
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrDuplicateVote))
	registros, err := repo.AcceptedForKey(ctx, domain.AdmissionKey{VoterID: "a1", SessionID: s.ID, Category: "presidente"})
	require.NoError(t, err)
	assert.Empty(t, registros)
	total, _ := contadores(t, sessions, s)
	assert.Zero(t, total)
}

func TestVoteRepository_Commit_QuandoContextoCancelado_NaoDeixaEfeito(t *testing.T) {
	db := setupPostgres(t)
	repo := NewVoteRepository(db)
	sessions := NewSessionRepository(db)

	s := criarSessao(t, db)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Commit(ctx, novoVoto(s, "a1", "presidente", s.Categories[0].Candidates[0].ID, 0))

	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrDuplicateVote))
	total, _ := contadores(t, sessions, s)
	assert.Zero(t, total)
}

func TestVoteRepository_Commit_QuandoConcorrente_DeveAceitarApenasUm(t *testing.T) {
	db := setupPostgres(t)
	repo := NewVoteRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()

	s := criarSessao(t, db)
	ada := s.Categories[0].Candidates[0].ID

	const n = 20
	var aceitos, duplicados atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Commit(ctx, novoVoto(s, "a1", "presidente", ada, 0))
			switch {
			case err == nil:
				aceitos.Add(1)
			case errors.Is(err, domain.ErrDuplicateVote):
				duplicados.Add(1)
			default:
				t.Errorf("erro inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), aceitos.Load())
	assert.Equal(t, int32(n-1), duplicados.Load())
	total, porCandidato := contadores(t, sessions, s)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(1), porCandidato[ada])
}

func TestVoteRepository_Tally_DeveSepararEleitoresForaDaSpec(t *testing.T) {
	db := setupPostgres(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	s := criarSessao(t, db)
	ada := s.Categories[0].Candidates[0].ID
	linus := s.Categories[1].Candidates[0].ID
	ken := s.Categories[1].Candidates[1].ID

	// Arrange: a1 vota duas vezes no conselho e uma para presidente; a2 votou sob uma spec antiga
	require.NoError(t, repo.Commit(ctx, novoVoto(s, "a1", "presidente", ada, 0)))
	require.NoError(t, repo.Commit(ctx, novoVoto(s, "a1", "conselho", linus, 0)))
	require.NoError(t, repo.Commit(ctx, novoVoto(s, "a1", "conselho", ken, 1)))
	antigo := novoVoto(s, "a2", "presidente", ada, 0)
	antigo.DepartmentID = "math"
	require.NoError(t, repo.Commit(ctx, antigo))

	// Act
	tally, err := repo.Tally(ctx, s.ID, s.Eligibility)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.VoteTally{TotalVotes: 4, UniqueVoters: 2, UniqueVotersInSpec: 1}, tally)

	semSpec, err := repo.Tally(ctx, s.ID, domain.EligibilitySpec{})
	require.NoError(t, err)
	assert.Zero(t, semSpec.UniqueVotersInSpec)
	assert.Equal(t, int64(4), semSpec.TotalVotes)
}
