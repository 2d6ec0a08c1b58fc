package database

import (
	"fmt"

	"crm-backend/models"

	"gorm.io/gorm"
)

// AutoMigrate applies (idempotent) schema migrations: tables/columns via AutoMigrate,
// then the lookup indexes the list and search queries rely on.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Company{},
		&models.Customer{},
		&models.OpeningBalanceItem{},
		&models.ContactPerson{},
		&models.CustomerTypeMaster{},
		&models.ImportBatch{},
		&models.IdempotencyKey{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_customers_company_active ON customers (company_id, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_customer_type_masters_company_active ON customer_type_masters (company_id, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_import_batches_company_created ON import_batches (company_id, created_at)`,
	}
	if db.Dialector.Name() == "mysql" {
		// MySQL has no CREATE INDEX IF NOT EXISTS; the AutoMigrate tag indexes suffice there.
		return nil
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
		}
	}
	return nil
}
