package controllers

import (
	"crm-backend/services"

	"github.com/gofiber/fiber/v2"
)

func (h *Handlers) StatsSummary(c *fiber.Ctx) error {
	tx, company, err := tenant(c)
	if err != nil {
		return err
	}
	summary, err := services.NewStatsService(tx).Summary(c.UserContext(), company)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (h *Handlers) StatsByState(c *fiber.Ctx) error {
	tx, company, err := tenant(c)
	if err != nil {
		return err
	}
	states, err := services.NewStatsService(tx).ByState(c.UserContext(), company)
	if err != nil {
		return err
	}
	return c.JSON(states)
}

func (h *Handlers) StatsTopCustomers(c *fiber.Ctx) error {
	tx, company, err := tenant(c)
	if err != nil {
		return err
	}
	top, err := services.NewStatsService(tx).TopCustomers(c.UserContext(), company, c.QueryInt("limit", 0), c.Query("period"))
	if err != nil {
		return err
	}
	return c.JSON(top)
}
