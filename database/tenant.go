package database

import (
	"errors"

	"crm-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetTenantDB returns the request's transaction opened by middlewares.TenantTx.
func GetTenantDB(c *fiber.Ctx) (*gorm.DB, error) {
	if tx, ok := c.Locals("tx").(*gorm.DB); ok && tx != nil {
		return tx.WithContext(c.UserContext()), nil
	}
	return nil, errors.New("tenant transaction missing")
}

// GetCompany returns the company resolved by middlewares.TenantTx.
func GetCompany(c *fiber.Ctx) (*models.Company, error) {
	if company, ok := c.Locals("company").(*models.Company); ok && company != nil {
		return company, nil
	}
	return nil, errors.New("tenant company missing")
}

// FindActiveCompany loads a company; inactive companies are reported as not found.
func FindActiveCompany(db *gorm.DB, id uint) (*models.Company, error) {
	var company models.Company
	if err := db.Where("id = ? AND is_active = ?", id, true).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}
