package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"crm-backend/controllers"
	"crm-backend/middlewares"
)

// Options carries what Register needs beyond the handlers themselves.
type Options struct {
	DB *gorm.DB
	// JWTSecret enables bearer auth on /api when non-empty.
	JWTSecret string
}

// Register wires all HTTP routes.
func Register(app *fiber.App, h *controllers.Handlers, opts Options) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		sqlDB, err := opts.DB.DB()
		if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	if opts.JWTSecret != "" {
		api.Use(middlewares.IsAuthenticatedHeader(opts.JWTSecret))
	}

	api.Post("/companies", h.CreateCompany)

	// Tenant endpoints: company scope, then idempotency guard (not tied to request TX),
	// then the per-request transaction that resolves the company.
	tenant := api.Group("/companies/:companyId",
		middlewares.RequireCompanyAccess(),
		middlewares.Idempotency(opts.DB),
		middlewares.TenantTx(opts.DB),
	)
	tenant.Get("", h.GetCompany)

	// Customers (static paths before /:id)
	customers := tenant.Group("/customers")
	customers.Post("", h.CreateCustomer)
	customers.Get("", h.GetCustomers)
	customers.Get("/search", h.SearchCustomers)
	customers.Get("/nearby", h.NearbyCustomers)
	customers.Post("/geocode-missing", h.GeocodeMissing)
	customers.Post("/import", h.ImportCustomers)
	customers.Get("/export", h.ExportCustomers)
	customers.Get("/stats/summary", h.StatsSummary)
	customers.Get("/stats/by-state", h.StatsByState)
	customers.Get("/stats/top", h.StatsTopCustomers)
	customers.Get("/:id", h.GetCustomer)
	customers.Put("/:id", h.UpdateCustomer)
	customers.Delete("/:id", h.DeleteCustomer)

	// Customer types
	tenant.Get("/customer-types", h.GetCustomerTypes)
	tenant.Post("/customer-types", h.CreateCustomerType)
	tenant.Delete("/customer-types/:typeId", h.DeleteCustomerType)
}
