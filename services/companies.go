package services

import (
	"context"
	"errors"
	"strings"

	"crm-backend/models"

	"gorm.io/gorm"
)

// CompanyInput is the payload for registering a tenant company.
type CompanyInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
	Zip     string `json:"zip"`
}

type CompanyService struct {
	db *gorm.DB
}

func NewCompanyService(db *gorm.DB) *CompanyService {
	return &CompanyService{db: db}
}

// CreateCompany registers a new active company; names are unique.
func (s *CompanyService) CreateCompany(ctx context.Context, in CompanyInput) (*models.Company, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newValidationError("Company name is required")
	}
	company := &models.Company{
		Name:     name,
		Address:  strings.TrimSpace(in.Address),
		City:     strings.TrimSpace(in.City),
		Country:  strings.TrimSpace(in.Country),
		Zip:      strings.TrimSpace(in.Zip),
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(company).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newValidationError("Company '%s' already exists", name)
		}
		return nil, err
	}
	return company, nil
}
