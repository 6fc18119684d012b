package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

// StudentRepository é o lado de leitura do cadastro de alunos importado externamente.
type StudentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) FindVoter(ctx context.Context, id domain.VoterID) (domain.Voter, error) {
	var model studentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Voter{}, domain.ErrVoterNotFound
		}
		return domain.Voter{}, fmt.Errorf("gorm alunos: buscar id: %w", err)
	}
	return domain.Voter{
		ID:           domain.VoterID(model.ID),
		DepartmentID: domain.DepartmentID(model.DepartmentID),
		Level:        domain.Level(model.Level),
	}, nil
}

// CountEligible conta os alunos cujo (departamento, nível) casa com a spec atual.
func (r *StudentRepository) CountEligible(ctx context.Context, spec domain.EligibilitySpec) (int64, error) {
	if len(spec.DepartmentIDs) == 0 || len(spec.Levels) == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&studentModel{}).
		Where("department_id IN ? AND level IN ?", departmentStrings(spec.DepartmentIDs), levelStrings(spec.Levels)).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("gorm alunos: contar elegiveis: %w", err)
	}
	return total, nil
}

// Save é usado pela importação de alunos; reimportar atualiza departamento e nível.
func (r *StudentRepository) Save(ctx context.Context, voters []domain.Voter, updatedAt time.Time) error {
	if len(voters) == 0 {
		return nil
	}
	models := make([]studentModel, len(voters))
	for i, v := range voters {
		models[i] = studentModel{
			ID:           string(v.ID),
			DepartmentID: string(v.DepartmentID),
			Level:        string(v.Level),
			UpdatedAt:    updatedAt,
		}
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&models).Error; err != nil {
		return fmt.Errorf("gorm alunos: salvar: %w", err)
	}
	return nil
}

var _ domain.VoterDirectory = (*StudentRepository)(nil)
