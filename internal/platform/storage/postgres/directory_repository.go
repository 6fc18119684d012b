package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

// DirectoryRepository lê a hierarquia faculdade → departamento → nível.
type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) Colleges(ctx context.Context) ([]domain.College, error) {
	db := r.db.WithContext(ctx)

	var colleges []collegeModel
	if err := db.Order("position ASC").Order("id ASC").Find(&colleges).Error; err != nil {
		return nil, fmt.Errorf("gorm diretorio: listar faculdades: %w", err)
	}
	var departments []departmentModel
	if err := db.Order("position ASC").Order("id ASC").Find(&departments).Error; err != nil {
		return nil, fmt.Errorf("gorm diretorio: listar departamentos: %w", err)
	}
	var levels []departmentLevelModel
	if err := db.Order("level ASC").Find(&levels).Error; err != nil {
		return nil, fmt.Errorf("gorm diretorio: listar niveis: %w", err)
	}

	levelsByDept := make(map[string][]domain.Level)
	for _, l := range levels {
		levelsByDept[l.DepartmentID] = append(levelsByDept[l.DepartmentID], domain.Level(l.Level))
	}
	deptsByCollege := make(map[string][]domain.Department)
	for _, d := range departments {
		deptsByCollege[d.CollegeID] = append(deptsByCollege[d.CollegeID], domain.Department{
			ID:              domain.DepartmentID(d.ID),
			Code:            d.Code,
			Name:            d.Name,
			CollegeID:       domain.CollegeID(d.CollegeID),
			AvailableLevels: levelsByDept[d.ID],
		})
	}

	result := make([]domain.College, len(colleges))
	for i, c := range colleges {
		result[i] = domain.College{
			ID:          domain.CollegeID(c.ID),
			Code:        c.Code,
			Name:        c.Name,
			Departments: deptsByCollege[c.ID],
		}
	}
	return result, nil
}

// Save grava ou atualiza o diretório recebido da administração. Níveis de cada
// departamento informado são substituídos pelo conjunto novo.
func (r *DirectoryRepository) Save(ctx context.Context, colleges []domain.College) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := tx.Clauses(clause.OnConflict{UpdateAll: true})
		for i, c := range colleges {
			college := collegeModel{ID: string(c.ID), Code: c.Code, Name: c.Name, Position: i}
			if err := upsert.Create(&college).Error; err != nil {
				return err
			}
			for j, d := range c.Departments {
				dept := departmentModel{ID: string(d.ID), CollegeID: string(c.ID), Code: d.Code, Name: d.Name, Position: j}
				if err := upsert.Create(&dept).Error; err != nil {
					return err
				}
				if err := tx.Where("department_id = ?", d.ID).Delete(&departmentLevelModel{}).Error; err != nil {
					return err
				}
				if len(d.AvailableLevels) == 0 {
					continue
				}
				rows := make([]departmentLevelModel, len(d.AvailableLevels))
				for k, l := range d.AvailableLevels {
					rows[k] = departmentLevelModel{DepartmentID: string(d.ID), Level: string(l)}
				}
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("gorm diretorio: salvar: %w", err)
	}
	return nil
}

var _ domain.DirectoryRepository = (*DirectoryRepository)(nil)
