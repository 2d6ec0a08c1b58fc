package services

import (
	"errors"
	"fmt"

	"crm-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxCodeAttempts = 5

func formatCode(n int64) string {
	return fmt.Sprintf("CUST-%03d", n)
}

// insertWithCode assigns the next CUST-NNN code (row count + 1) and inserts the customer.
// The (company_id, code) unique index turns a concurrent duplicate into a retry with the
// following number; each attempt runs in its own savepoint.
func insertWithCode(tx *gorm.DB, c *models.Customer) error {
	var count int64
	if err := tx.Model(&models.Customer{}).Where("company_id = ?", c.CompanyID).Count(&count).Error; err != nil {
		return err
	}

	for attempt := int64(0); attempt < maxCodeAttempts; attempt++ {
		c.ID = 0
		c.Code = formatCode(count + 1 + attempt)
		err := tx.Transaction(func(sp *gorm.DB) error {
			return sp.Omit(clause.Associations).Create(c).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return fmt.Errorf("could not allocate a customer code after %d attempts", maxCodeAttempts)
}
