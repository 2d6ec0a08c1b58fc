package services

import (
	"context"
	"strings"

	"crm-backend/geocoding"
	"crm-backend/models"
	"crm-backend/utils"

	"go.uber.org/zap"
)

// Geocoder resolves an address to coordinates; ok is false on any failure.
type Geocoder interface {
	Geocode(ctx context.Context, address, countryCode string) (*geocoding.Result, bool)
}

// BuildAddress renders the billing address on one line: the full address field when set,
// else line1/line2, followed by city, state, zip and country. Blank parts are skipped.
func BuildAddress(c *models.Customer) string {
	var parts []string
	add := func(s *string) {
		if !utils.IsBlank(s) {
			parts = append(parts, strings.TrimSpace(*s))
		}
	}

	if !utils.IsBlank(c.BillingAddress) {
		add(c.BillingAddress)
	} else {
		add(c.BillingAddressLine1)
		add(c.BillingAddressLine2)
	}
	add(c.BillingCity)
	add(c.BillingState)
	add(c.BillingZip)
	add(c.BillingCountry)

	return strings.Join(parts, ", ")
}

// countryFilter uses the billing country when it is already an ISO alpha-2 code,
// otherwise the configured default (possibly empty).
func (s *CustomerService) countryFilter(c *models.Customer) string {
	country := strings.TrimSpace(utils.Deref(c.BillingCountry))
	if len(country) == 2 {
		return strings.ToLower(country)
	}
	return s.countryCodes
}

// tryGeocode fills the location of a customer that has neither coordinate.
// It never fails; a customer that cannot be located simply stays unlocated.
func (s *CustomerService) tryGeocode(ctx context.Context, c *models.Customer) bool {
	if s.geocoder == nil || c.LocationLat != nil || c.LocationLng != nil {
		return false
	}
	address := BuildAddress(c)
	if address == "" {
		return false
	}

	res, ok := s.geocoder.Geocode(ctx, address, s.countryFilter(c))
	if !ok {
		s.log.Debug("customer not geocoded",
			zap.Uint("company_id", c.CompanyID), zap.String("name", c.Name), zap.String("address", address))
		return false
	}

	lat, lng := res.Lat, res.Lng
	c.LocationLat = &lat
	c.LocationLng = &lng
	resolved := address
	if strings.TrimSpace(res.DisplayName) != "" {
		resolved = res.DisplayName
	}
	c.LocationAddress = &resolved
	return true
}
