package controllers

import (
	"crm-backend/middlewares"
	"crm-backend/services"

	"github.com/gofiber/fiber/v2"
)

type customerTypeInput struct {
	Name        string  `json:"name" validate:"required,max=64"`
	Description *string `json:"description"`
}

func (h *Handlers) GetCustomerTypes(c *fiber.Ctx) error {
	tx, company, err := tenant(c)
	if err != nil {
		return err
	}
	types, err := services.NewCustomerTypeService(tx).ListCustomerTypes(c.UserContext(), company)
	if err != nil {
		return err
	}
	return c.JSON(types)
}

func (h *Handlers) CreateCustomerType(c *fiber.Ctx) error {
	var in customerTypeInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	tx, company, err := tenant(c)
	if err != nil {
		return err
	}
	ct, err := services.NewCustomerTypeService(tx).CreateCustomerType(c.UserContext(), company, in.Name, in.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(ct)
}

func (h *Handlers) DeleteCustomerType(c *fiber.Ctx) error {
	id, err := paramID(c, "typeId")
	if err != nil {
		return err
	}
	tx, company, err := tenant(c)
	if err != nil {
		return err
	}
	if err := services.NewCustomerTypeService(tx).DeleteCustomerType(c.UserContext(), company, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Customer type deleted"})
}
