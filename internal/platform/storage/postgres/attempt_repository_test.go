package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelojr/votacao-campus/internal/domain"
	"github.com/marcelojr/votacao-campus/internal/platform/ids"
)

func tentativa(session domain.SessionID, reason domain.RejectionKind, offset time.Duration) domain.RejectedAttempt {
	return domain.RejectedAttempt{
		ID:          domain.AttemptID(ids.NewULID()),
		VoterID:     "a1",
		SessionID:   session,
		Category:    "presidente",
		CandidateID: "c1",
		Reason:      reason,
		AttemptedAt: baseTime.Add(offset),
	}
}

func TestAttemptRepository_CountByReason_DeveAgruparPorMotivo(t *testing.T) {
	db := setupPostgres(t)
	repo := NewAttemptRepository(db)
	ctx := context.Background()

	// Arrange
	for _, a := range []domain.RejectedAttempt{
		tentativa("s1", domain.RejectDuplicateVote, time.Minute),
		tentativa("s1", domain.RejectDuplicateVote, 2*time.Minute),
		tentativa("s1", domain.RejectOutOfRange, 3*time.Minute),
		tentativa("s2", domain.RejectNotEligible, time.Minute),
	} {
		_, err := repo.Record(ctx, a)
		require.NoError(t, err)
	}

	// Act
	totais, err := repo.CountByReason(ctx, "s1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, map[domain.RejectionKind]int64{
		domain.RejectDuplicateVote: 2,
		domain.RejectOutOfRange:    1,
	}, totais)
}

func TestAttemptRepository_Record_QuandoIDRepetido_DeveIgnorar(t *testing.T) {
	db := setupPostgres(t)
	repo := NewAttemptRepository(db)
	ctx := context.Background()

	a := tentativa("s1", domain.RejectSessionNotActive, 0)
	inserida, err := repo.Record(ctx, a)
	require.NoError(t, err)
	assert.True(t, inserida)

	inserida, err = repo.Record(ctx, a)
	require.NoError(t, err)
	assert.False(t, inserida)

	totais, err := repo.CountByReason(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), totais[domain.RejectSessionNotActive])
}

func TestAttemptRepository_ListBySession_DeveOrdenarMaisRecentesComLimite(t *testing.T) {
	db := setupPostgres(t)
	repo := NewAttemptRepository(db)
	ctx := context.Background()

	antiga := tentativa("s1", domain.RejectOutOfRange, time.Minute)
	meio := tentativa("s1", domain.RejectLocationRequired, 2*time.Minute)
	recente := tentativa("s1", domain.RejectDuplicateVote, 3*time.Minute)
	for _, a := range []domain.RejectedAttempt{antiga, recente, meio} {
		_, err := repo.Record(ctx, a)
		require.NoError(t, err)
	}

	// Act
	lista, err := repo.ListBySession(ctx, "s1", 2)

	// Assert
	require.NoError(t, err)
	require.Len(t, lista, 2)
	assert.Equal(t, recente.ID, lista[0].ID)
	assert.Equal(t, meio.ID, lista[1].ID)
	assert.Equal(t, domain.RejectLocationRequired, lista[1].Reason)

	todas, err := repo.ListBySession(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Len(t, todas, 3)
}
