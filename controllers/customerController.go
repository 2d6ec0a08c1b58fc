package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"crm-backend/geo"
	"crm-backend/middlewares"
	"crm-backend/services"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultNearbyRadiusKm = 10.0
	defaultNearbyLimit    = 20
	defaultGeocodeLimit   = 50
	maxGeocodeLimit       = 500

	// geocodeBudget bounds how long a bulk run keeps the request transaction open.
	// Client disconnects do not cancel the request context, so this deadline is the stop.
	geocodeBudget = 2 * time.Minute
)

func (h *Handlers) CreateCustomer(c *fiber.Ctx) error {
	var in services.CustomerCreate
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	svc, company, err := h.customerService(c)
	if err != nil {
		return err
	}
	customer, err := svc.CreateCustomer(c.UserContext(), company, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

func (h *Handlers) GetCustomers(c *fiber.Ctx) error {
	svc, company, err := h.customerService(c)
	if err != nil {
		return err
	}
	page, err := svc.GetCustomers(c.UserContext(), company, services.CustomerFilter{
		Search:       c.Query("search"),
		CustomerType: c.Query("customer_type"),
		Page:         c.QueryInt("page", 1),
		PageSize:     c.QueryInt("page_size", 0),
	})
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handlers) SearchCustomers(c *fiber.Ctx) error {
	svc, company, err := h.customerService(c)
	if err != nil {
		return err
	}
	customers, err := svc.SearchCustomers(c.UserContext(), company, c.Query("q"), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(customers)
}

func (h *Handlers) GetCustomer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, company, err := h.customerService(c)
	if err != nil {
		return err
	}
	customer, err := svc.GetCustomer(c.UserContext(), company, id)
	if err != nil {
		return err
	}
	return c.JSON(customer)
}

func (h *Handlers) UpdateCustomer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var in services.CustomerUpdate
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	svc, company, err := h.customerService(c)
	if err != nil {
		return err
	}
	customer, err := svc.GetCustomer(c.UserContext(), company, id)
	if err != nil {
		return err
	}
	updated, err := svc.UpdateCustomer(c.UserContext(), customer, in)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *Handlers) DeleteCustomer(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	svc, company, err := h.customerService(c)
	if err != nil {
		return err
	}
	customer, err := svc.GetCustomer(c.UserContext(), company, id)
	if err != nil {
		return err
	}
	if err := svc.DeleteCustomer(c.UserContext(), customer); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Customer deleted"})
}

// queryFloat parses an optional float query parameter.
func queryFloat(c *fiber.Ctx, key string, def float64) (float64, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (h *Handlers) NearbyCustomers(c *fiber.Ctx) error {
	if c.Query("lat") == "" || c.Query("lng") == "" {
		return fiber.NewError(fiber.StatusBadRequest, "lat and lng are required")
	}
	lat, ok := queryFloat(c, "lat", 0)
	if !ok || lat < -90 || lat > 90 {
		return fiber.NewError(fiber.StatusBadRequest, "lat must be between -90 and 90")
	}
	lng, ok := queryFloat(c, "lng", 0)
	if !ok || lng < -180 || lng > 180 {
		return fiber.NewError(fiber.StatusBadRequest, "lng must be between -180 and 180")
	}
	radius, ok := queryFloat(c, "radius_km", defaultNearbyRadiusKm)
	if !ok || radius <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "radius_km must be positive")
	}
	limit := c.QueryInt("limit", defaultNearbyLimit)
	if limit <= 0 {
		limit = defaultNearbyLimit
	}

	svc, company, err := h.customerService(c)
	if err != nil {
		return err
	}
	customers, err := svc.ListForProximity(c.UserContext(), company, services.MaxProximityScan)
	if err != nil {
		return err
	}
	return c.JSON(geo.Nearby(customers, lat, lng, radius, limit))
}

func (h *Handlers) GeocodeMissing(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultGeocodeLimit)
	if limit <= 0 || limit > maxGeocodeLimit {
		limit = defaultGeocodeLimit
	}
	svc, company, err := h.customerService(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), geocodeBudget)
	defer cancel()
	res, err := svc.GeocodeMissing(ctx, company, limit)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// ImportCustomers accepts {"customers": [...]} or a bare JSON array of customers.
func (h *Handlers) ImportCustomers(c *fiber.Ctx) error {
	body := bytes.TrimSpace(c.Body())
	var rows []json.RawMessage
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &rows); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	} else {
		var payload struct {
			Customers []json.RawMessage `json:"customers"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		rows = payload.Customers
	}
	if len(rows) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no customers to import")
	}

	svc, company, err := h.customerService(c)
	if err != nil {
		return err
	}
	res, err := svc.ImportCustomers(c.UserContext(), company, rows)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *Handlers) ExportCustomers(c *fiber.Ctx) error {
	format := strings.ToLower(strings.TrimSpace(c.Query("format", services.ExportCSV)))

	svc, company, err := h.customerService(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := svc.ExportCustomers(c.UserContext(), company, format, &buf); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, services.ExportContentType(format))
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="customers.`+format+`"`)
	return c.Send(buf.Bytes())
}
