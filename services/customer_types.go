package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"crm-backend/models"
	"crm-backend/utils"

	"gorm.io/gorm"
)

// CustomerTypeService manages the per-company customer-type taxonomy.
type CustomerTypeService struct {
	db *gorm.DB
}

func NewCustomerTypeService(db *gorm.DB) *CustomerTypeService {
	return &CustomerTypeService{db: db}
}

func (s *CustomerTypeService) ListCustomerTypes(ctx context.Context, company *models.Company) ([]models.CustomerTypeMaster, error) {
	types := make([]models.CustomerTypeMaster, 0)
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND is_active = ?", company.ID, true).
		Order("name ASC").
		Find(&types).Error
	return types, err
}

// CreateCustomerType rejects names already used (ignoring case) by an active type.
func (s *CustomerTypeService) CreateCustomerType(ctx context.Context, company *models.Company, name string, description *string) (*models.CustomerTypeMaster, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationError("Customer type name is required")
	}

	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.CustomerTypeMaster{}).
		Where("company_id = ? AND is_active = ? AND LOWER(name) = ?", company.ID, true, strings.ToLower(name)).
		Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, newValidationError("Customer type '%s' already exists", name)
	}

	ct := &models.CustomerTypeMaster{
		CompanyID:   company.ID,
		Name:        name,
		Description: utils.TrimPtr(description),
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(ct).Error; err != nil {
		return nil, err
	}
	return ct, nil
}

// DeleteCustomerType soft-deletes a type that no active customer carries.
func (s *CustomerTypeService) DeleteCustomerType(ctx context.Context, company *models.Company, id uint) error {
	var ct models.CustomerTypeMaster
	err := s.db.WithContext(ctx).
		Where("id = ? AND company_id = ? AND is_active = ?", id, company.ID, true).
		First(&ct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var inUse int64
	if err := s.db.WithContext(ctx).Model(&models.Customer{}).
		Where("company_id = ? AND is_active = ? AND LOWER(customer_type) = ?", company.ID, true, strings.ToLower(ct.Name)).
		Count(&inUse).Error; err != nil {
		return err
	}
	if inUse > 0 {
		return newValidationError("Customer type '%s' is in use by %d customer(s)", ct.Name, inUse)
	}

	return s.db.WithContext(ctx).Model(&ct).
		Updates(map[string]any{"is_active": false, "updated_at": time.Now()}).Error
}
