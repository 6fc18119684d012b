package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

// VoteRepository grava votos aceitos junto com os contadores de candidato e sessão.
type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

func fromDomainVoteRecord(v domain.VoteRecord) voteRecordModel {
	return voteRecordModel{
		ID:             string(v.ID),
		VoterID:        string(v.VoterID),
		SessionID:      string(v.SessionID),
		Category:       v.Category,
		Slot:           v.Slot,
		CandidateID:    string(v.CandidateID),
		DepartmentID:   string(v.DepartmentID),
		Level:          string(v.Level),
		IdempotencyKey: v.IdempotencyKey,
		Outcome:        string(v.Outcome),
		CommittedAt:    v.CommittedAt,
	}
}

func (m voteRecordModel) toDomain() domain.VoteRecord {
	return domain.VoteRecord{
		ID:             domain.RecordID(m.ID),
		VoterID:        domain.VoterID(m.VoterID),
		SessionID:      domain.SessionID(m.SessionID),
		Category:       m.Category,
		CandidateID:    domain.CandidateID(m.CandidateID),
		DepartmentID:   domain.DepartmentID(m.DepartmentID),
		Level:          domain.Level(m.Level),
		Slot:           m.Slot,
		IdempotencyKey: m.IdempotencyKey,
		Outcome:        domain.Outcome(m.Outcome),
		CommittedAt:    m.CommittedAt,
	}
}

func (r *VoteRepository) AcceptedForKey(ctx context.Context, key domain.AdmissionKey) ([]domain.VoteRecord, error) {
	var models []voteRecordModel
	if err := r.db.WithContext(ctx).
		Where("voter_id = ? AND session_id = ? AND category = ? AND outcome = ?",
			string(key.VoterID), string(key.SessionID), key.Category, string(domain.OutcomeAccepted)).
		Order("slot ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm votos: buscar chave: %w", err)
	}

	records := make([]domain.VoteRecord, len(models))
	for i, m := range models {
		records[i] = m.toDomain()
	}
	return records, nil
}

// Commit insere o registro com ON CONFLICT DO NOTHING e só incrementa os contadores
// se a linha foi de fato criada. Tudo acontece numa transação: cancelamento do
// contexto antes do commit desfaz registro e contadores juntos.
func (r *VoteRepository) Commit(ctx context.Context, record domain.VoteRecord) error {
	model := fromDomainVoteRecord(record)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrDuplicateVote
		}

		res = tx.Model(&candidateModel{}).
			Where("id = ? AND session_id = ? AND category_name = ?", model.CandidateID, model.SessionID, model.Category).
			UpdateColumn("vote_count", gorm.Expr("vote_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: candidato %s", domain.ErrNotFound, model.CandidateID)
		}

		res = tx.Model(&sessionModel{}).
			Where("id = ?", model.SessionID).
			UpdateColumn("total_votes", gorm.Expr("total_votes + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: sessao %s", domain.ErrNotFound, model.SessionID)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrDuplicateVote) || isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateVote, record.Key())
	}
	return fmt.Errorf("gorm votos: commit: %w", err)
}

// Tally conta votos e eleitores distintos; UniqueVotersInSpec usa o departamento e
// o nível gravados no voto, comparados à spec recebida.
func (r *VoteRepository) Tally(ctx context.Context, sessionID domain.SessionID, spec domain.EligibilitySpec) (domain.VoteTally, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&voteRecordModel{}).
			Where("session_id = ? AND outcome = ?", string(sessionID), string(domain.OutcomeAccepted))
	}

	var tally domain.VoteTally
	if err := base().Count(&tally.TotalVotes).Error; err != nil {
		return domain.VoteTally{}, fmt.Errorf("gorm votos: total sessao: %w", err)
	}
	if err := base().Distinct("voter_id").Count(&tally.UniqueVoters).Error; err != nil {
		return domain.VoteTally{}, fmt.Errorf("gorm votos: eleitores distintos: %w", err)
	}
	if len(spec.DepartmentIDs) == 0 || len(spec.Levels) == 0 {
		return tally, nil
	}
	if err := base().
		Where("department_id IN ? AND level IN ?", departmentStrings(spec.DepartmentIDs), levelStrings(spec.Levels)).
		Distinct("voter_id").
		Count(&tally.UniqueVotersInSpec).Error; err != nil {
		return domain.VoteTally{}, fmt.Errorf("gorm votos: eleitores na spec: %w", err)
	}
	return tally, nil
}

var _ domain.VoteRepository = (*VoteRepository)(nil)
