package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/marcelojr/votacao-campus/internal/domain"
	"github.com/marcelojr/votacao-campus/internal/platform/ids"
)

var baseTime = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func setupPostgres(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// Cada conexão :memory: é um banco novo; uma conexão só mantém o schema visível.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(Models()...)
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// criarSessao grava uma sessão com uma categoria de escolha única e outra de duas escolhas.
func criarSessao(t *testing.T, db *gorm.DB) domain.Session {
	gen := ids.NewGenerator()
	s := domain.Session{
		ID:        domain.SessionID(gen.New()),
		Name:      "Eleicao do Centro Academico",
		StartTime: baseTime,
		EndTime:   baseTime.Add(8 * time.Hour),
		Geofence:  domain.Geofence{CenterLat: 6.5244, CenterLng: 3.3792, RadiusMeters: 200, Enabled: true},
		Eligibility: domain.EligibilitySpec{
			DepartmentIDs: []domain.DepartmentID{"cs", "eee"},
			Levels:        []domain.Level{"200", "300"},
		},
		Categories: []domain.Category{
			{
				Name:     "presidente",
				MaxVotes: 1,
				Candidates: []domain.Candidate{
					{ID: domain.CandidateID(gen.New()), Name: "Ada"},
					{ID: domain.CandidateID(gen.New()), Name: "Grace"},
				},
			},
			{
				Name:     "conselho",
				MaxVotes: 2,
				Candidates: []domain.Candidate{
					{ID: domain.CandidateID(gen.New()), Name: "Linus"},
					{ID: domain.CandidateID(gen.New()), Name: "Ken"},
					{ID: domain.CandidateID(gen.New()), Name: "Barbara"},
				},
			},
		},
		CreatedAt: baseTime.Add(-24 * time.Hour),
		UpdatedAt: baseTime.Add(-24 * time.Hour),
	}
	require.NoError(t, NewSessionRepository(db).Create(context.Background(), s))
	return s
}

func novoVoto(s domain.Session, voter domain.VoterID, category string, candidate domain.CandidateID, slot int) domain.VoteRecord {
	return domain.VoteRecord{
		ID:           domain.RecordID(ids.NewULID()),
		VoterID:      voter,
		SessionID:    s.ID,
		Category:     category,
		CandidateID:  candidate,
		DepartmentID: "cs",
		Level:        "200",
		Slot:         slot,
		Outcome:      domain.OutcomeAccepted,
		CommittedAt:  baseTime.Add(time.Hour),
	}
}
