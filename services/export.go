package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"crm-backend/models"
	"crm-backend/utils"
)

const (
	ExportCSV   = "csv"
	ExportJSON  = "json"
	ExportExcel = "excel"
)

var exportColumns = []string{
	"code", "name", "email", "contact", "mobile", "tax_number", "pan", "vendor_code",
	"customer_type", "billing_city", "billing_state", "billing_country",
	"opening_balance", "opening_balance_type", "outstanding_balance", "advance_balance",
	"credit_limit", "credit_days", "location_lat", "location_lng", "created_at",
}

// ExportContentType returns the MIME type for a supported format.
func ExportContentType(format string) string {
	if format == ExportJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// ExportCustomers writes all active customers in the requested format.
func (s *CustomerService) ExportCustomers(ctx context.Context, company *models.Company, format string, w io.Writer) error {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case ExportCSV, ExportJSON:
	case ExportExcel, "xlsx":
		return newValidationError("Excel export not implemented")
	default:
		return newValidationError("Unsupported export format '%s'", format)
	}

	customers := make([]models.Customer, 0)
	if err := s.activeCustomers(ctx, company.ID).Order("code ASC").Find(&customers).Error; err != nil {
		return err
	}

	if format == ExportJSON {
		return json.NewEncoder(w).Encode(customers)
	}
	return writeCSV(w, customers)
}

func floatCell(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func writeCSV(w io.Writer, customers []models.Customer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		return err
	}
	for _, c := range customers {
		record := []string{
			c.Code, c.Name, utils.Deref(c.Email), utils.Deref(c.Contact), utils.Deref(c.Mobile),
			utils.Deref(c.TaxNumber), utils.Deref(c.PAN), utils.Deref(c.VendorCode),
			c.CustomerType, utils.Deref(c.BillingCity), utils.Deref(c.BillingState), utils.Deref(c.BillingCountry),
			c.OpeningBalance.StringFixed(2), c.OpeningBalanceType,
			c.OutstandingBalance.StringFixed(2), c.AdvanceBalance.StringFixed(2),
			c.CreditLimit.StringFixed(2), strconv.Itoa(c.CreditDays),
			floatCell(c.LocationLat), floatCell(c.LocationLng),
			c.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
