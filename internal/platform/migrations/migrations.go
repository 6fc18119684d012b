// Pacote migrations centraliza as versões gormigrate aplicadas na inicialização.
package migrations

import (
	"fmt"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/marcelojr/votacao-campus/internal/platform/storage/postgres"
)

func Run(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}

	// Usamos gormigrate para versionar as migrations sem depender de AutoMigrate direto em produção.
	m := gormigrate.New(db, gormigrate.DefaultOptions, list())

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrations: falha ao aplicar: %w", err)
	}

	return nil
}

func list() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202503010001_init_schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(postgres.Models()...)
			},
			Rollback: func(tx *gorm.DB) error {
				for _, table := range postgres.Tables() {
					if err := tx.Migrator().DropTable(table); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}

// RollbackLast desfaz a última migration aplicada.
func RollbackLast(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}
	if err := gormigrate.New(db, gormigrate.DefaultOptions, list()).RollbackLast(); err != nil {
		return fmt.Errorf("migrations: falha ao desfazer: %w", err)
	}
	return nil
}
