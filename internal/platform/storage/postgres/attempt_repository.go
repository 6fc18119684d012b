package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

// AttemptRepository guarda as tentativas recusadas para auditoria e estatística.
type AttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func fromDomainAttempt(a domain.RejectedAttempt) rejectedAttemptModel {
	return rejectedAttemptModel{
		ID:          string(a.ID),
		VoterID:     string(a.VoterID),
		SessionID:   string(a.SessionID),
		Category:    a.Category,
		CandidateID: string(a.CandidateID),
		Reason:      string(a.Reason),
		AttemptedAt: a.AttemptedAt,
	}
}

func (m rejectedAttemptModel) toDomain() domain.RejectedAttempt {
	return domain.RejectedAttempt{
		ID:          domain.AttemptID(m.ID),
		VoterID:     domain.VoterID(m.VoterID),
		SessionID:   domain.SessionID(m.SessionID),
		Category:    m.Category,
		CandidateID: domain.CandidateID(m.CandidateID),
		Reason:      domain.RejectionKind(m.Reason),
		AttemptedAt: m.AttemptedAt,
	}
}

// Record ignora ids repetidos: o worker pode reprocessar a mesma mensagem da fila.
func (r *AttemptRepository) Record(ctx context.Context, attempt domain.RejectedAttempt) (bool, error) {
	model := fromDomainAttempt(attempt)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model)
	if res.Error != nil {
		return false, fmt.Errorf("gorm tentativas: inserir: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *AttemptRepository) CountByReason(ctx context.Context, sessionID domain.SessionID) (map[domain.RejectionKind]int64, error) {
	type resultado struct {
		Reason string
		Total  int64
	}
	var res []resultado
	if err := r.db.WithContext(ctx).
		Model(&rejectedAttemptModel{}).
		Select("reason as reason, COUNT(*) as total").
		Where("session_id = ?", string(sessionID)).
		Group("reason").
		Scan(&res).Error; err != nil {
		return nil, fmt.Errorf("gorm tentativas: total por motivo: %w", err)
	}

	totais := make(map[domain.RejectionKind]int64, len(res))
	for _, item := range res {
		totais[domain.RejectionKind(item.Reason)] = item.Total
	}
	return totais, nil
}

// ListBySession devolve as tentativas mais recentes primeiro.
func (r *AttemptRepository) ListBySession(ctx context.Context, sessionID domain.SessionID, limit int) ([]domain.RejectedAttempt, error) {
	var models []rejectedAttemptModel
	q := r.db.WithContext(ctx).
		Where("session_id = ?", string(sessionID)).
		Order("attempted_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm tentativas: listar: %w", err)
	}

	result := make([]domain.RejectedAttempt, len(models))
	for i, m := range models {
		result[i] = m.toDomain()
	}
	return result, nil
}

var _ domain.AttemptRepository = (*AttemptRepository)(nil)

