package controllers

import (
	"crm-backend/database"
	"crm-backend/middlewares"
	"crm-backend/services"

	"github.com/gofiber/fiber/v2"
)

func (h *Handlers) CreateCompany(c *fiber.Ctx) error {
	var in services.CompanyInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	company, err := services.NewCompanyService(h.DB).CreateCompany(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(company)
}

func (h *Handlers) GetCompany(c *fiber.Ctx) error {
	company, err := database.GetCompany(c)
	if err != nil {
		return err
	}
	return c.JSON(company)
}
