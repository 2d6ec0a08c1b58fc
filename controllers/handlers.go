package controllers

import (
	"strconv"

	"crm-backend/database"
	"crm-backend/logger"
	"crm-backend/models"
	"crm-backend/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Handlers carries the dependencies shared by every HTTP handler. Per-request state
// (transaction, company, logger) comes from the fiber context.
type Handlers struct {
	DB           *gorm.DB
	Geocoder     services.Geocoder
	CountryCodes string
}

func New(db *gorm.DB, geocoder services.Geocoder, countryCodes string) *Handlers {
	return &Handlers{DB: db, Geocoder: geocoder, CountryCodes: countryCodes}
}

// tenant returns the request transaction and the company resolved by TenantTx.
func tenant(c *fiber.Ctx) (*gorm.DB, *models.Company, error) {
	tx, err := database.GetTenantDB(c)
	if err != nil {
		return nil, nil, err
	}
	company, err := database.GetCompany(c)
	if err != nil {
		return nil, nil, err
	}
	return tx, company, nil
}

func (h *Handlers) customerService(c *fiber.Ctx) (*services.CustomerService, *models.Company, error) {
	tx, company, err := tenant(c)
	if err != nil {
		return nil, nil, err
	}
	return services.NewCustomerService(tx, h.Geocoder, h.CountryCodes, logger.FromFiber(c)), company, nil
}

// paramID parses a positive numeric path parameter; anything else is a 404.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, services.ErrNotFound
	}
	return uint(id), nil
}
