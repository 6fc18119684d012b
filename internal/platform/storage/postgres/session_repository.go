package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

// SessionRepository mapeia o agregado de sessão (spec, categorias e candidatos) para tabelas GORM.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func fromDomainSession(s domain.Session) sessionModel {
	return sessionModel{
		ID:                  string(s.ID),
		Name:                s.Name,
		Description:         s.Description,
		StartTime:           s.StartTime,
		EndTime:             s.EndTime,
		GeoCenterLat:        s.Geofence.CenterLat,
		GeoCenterLng:        s.Geofence.CenterLng,
		GeoRadiusMeters:     s.Geofence.RadiusMeters,
		GeoEnabled:          s.Geofence.Enabled,
		GeoOffCampusAllowed: s.Geofence.OffCampusAllowed,
		TotalVotes:          s.TotalVotes,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

func (m sessionModel) toDomain() domain.Session {
	return domain.Session{
		ID:          domain.SessionID(m.ID),
		Name:        m.Name,
		Description: m.Description,
		StartTime:   m.StartTime,
		EndTime:     m.EndTime,
		Geofence: domain.Geofence{
			CenterLat:        m.GeoCenterLat,
			CenterLng:        m.GeoCenterLng,
			RadiusMeters:     m.GeoRadiusMeters,
			Enabled:          m.GeoEnabled,
			OffCampusAllowed: m.GeoOffCampusAllowed,
		},
		TotalVotes: m.TotalVotes,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (r *SessionRepository) Create(ctx context.Context, s domain.Session) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := fromDomainSession(s)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if err := insertEligibility(tx, s.ID, s.Eligibility); err != nil {
			return err
		}

		for i, c := range s.Categories {
			category := categoryModel{SessionID: string(s.ID), Name: c.Name, Position: i, MaxVotes: c.MaxVotes}
			if err := tx.Create(&category).Error; err != nil {
				return err
			}
			if len(c.Candidates) == 0 {
				continue
			}
			candidates := make([]candidateModel, len(c.Candidates))
			for j, cand := range c.Candidates {
				candidates[j] = candidateModel{
					ID:           string(cand.ID),
					SessionID:    string(s.ID),
					CategoryName: c.Name,
					Name:         cand.Name,
					Position:     j,
					VoteCount:    cand.VoteCount,
				}
			}
			if err := tx.Create(&candidates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: id de sessao, categoria ou candidato repetido: %w", domain.ErrInvalidSession, err)
	}
	if err != nil {
		return fmt.Errorf("gorm sessao: inserir: %w", err)
	}
	return nil
}

// UpdateEligibility substitui a spec inteira; votos já aceitos não são revistos.
func (r *SessionRepository) UpdateEligibility(ctx context.Context, id domain.SessionID, spec domain.EligibilitySpec, updatedAt time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&sessionModel{}).Where("id = ?", id).Update("updated_at", updatedAt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		if err := tx.Where("session_id = ?", id).Delete(&sessionDepartmentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&sessionLevelModel{}).Error; err != nil {
			return err
		}
		return insertEligibility(tx, id, spec)
	})
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("gorm sessao: atualizar elegibilidade: %w", err)
	}
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	db := r.db.WithContext(ctx)

	var model sessionModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("gorm sessao: buscar id: %w", err)
	}
	s := model.toDomain()

	spec, err := loadEligibility(db, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("gorm sessao: carregar elegibilidade: %w", err)
	}
	s.Eligibility = spec

	categories, err := loadCategories(db, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("gorm sessao: carregar categorias: %w", err)
	}
	s.Categories = categories

	return s, nil
}

// List devolve as sessões sem categorias, ordenadas pelo início.
func (r *SessionRepository) List(ctx context.Context) ([]domain.Session, error) {
	var models []sessionModel
	if err := r.db.WithContext(ctx).
		Order("start_time ASC").
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm sessao: listar: %w", err)
	}

	result := make([]domain.Session, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result, nil
}

func insertEligibility(tx *gorm.DB, id domain.SessionID, spec domain.EligibilitySpec) error {
	if len(spec.DepartmentIDs) > 0 {
		rows := make([]sessionDepartmentModel, len(spec.DepartmentIDs))
		for i, d := range spec.DepartmentIDs {
			rows[i] = sessionDepartmentModel{SessionID: string(id), DepartmentID: string(d)}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	if len(spec.Levels) > 0 {
		rows := make([]sessionLevelModel, len(spec.Levels))
		for i, l := range spec.Levels {
			rows[i] = sessionLevelModel{SessionID: string(id), Level: string(l)}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}

func loadEligibility(db *gorm.DB, id domain.SessionID) (domain.EligibilitySpec, error) {
	var depts []sessionDepartmentModel
	if err := db.Where("session_id = ?", id).Order("department_id ASC").Find(&depts).Error; err != nil {
		return domain.EligibilitySpec{}, err
	}
	var levels []sessionLevelModel
	if err := db.Where("session_id = ?", id).Order("level ASC").Find(&levels).Error; err != nil {
		return domain.EligibilitySpec{}, err
	}

	spec := domain.EligibilitySpec{
		DepartmentIDs: make([]domain.DepartmentID, len(depts)),
		Levels:        make([]domain.Level, len(levels)),
	}
	for i, d := range depts {
		spec.DepartmentIDs[i] = domain.DepartmentID(d.DepartmentID)
	}
	for i, l := range levels {
		spec.Levels[i] = domain.Level(l.Level)
	}
	return spec, nil
}

func loadCategories(db *gorm.DB, id domain.SessionID) ([]domain.Category, error) {
	var categories []categoryModel
	if err := db.Where("session_id = ?", id).Order("position ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	var candidates []candidateModel
	if err := db.Where("session_id = ?", id).Order("position ASC").Find(&candidates).Error; err != nil {
		return nil, err
	}

	byCategory := make(map[string][]domain.Candidate, len(categories))
	for _, c := range candidates {
		byCategory[c.CategoryName] = append(byCategory[c.CategoryName], domain.Candidate{
			ID:        domain.CandidateID(c.ID),
			Name:      c.Name,
			VoteCount: c.VoteCount,
		})
	}

	result := make([]domain.Category, len(categories))
	for i, c := range categories {
		result[i] = domain.Category{
			Name:       c.Name,
			MaxVotes:   c.MaxVotes,
			Candidates: byCategory[c.Name],
		}
	}
	return result, nil
}

var _ domain.SessionRepository = (*SessionRepository)(nil)
