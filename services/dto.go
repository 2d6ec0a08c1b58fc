package services

import (
	"crm-backend/models"
	"crm-backend/utils"

	"github.com/shopspring/decimal"
)

type OpeningBalanceItemInput struct {
	Date        string          `json:"date"`
	VoucherName string          `json:"voucher_name"`
	Days        *int            `json:"days"`
	Amount      decimal.Decimal `json:"amount"`
}

type ContactPersonInput struct {
	Name        string  `json:"name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Designation *string `json:"designation"`
}

// CustomerCreate is the payload for creating a customer (and one import row).
type CustomerCreate struct {
	Name        string  `json:"name" validate:"required"`
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Contact     *string `json:"contact"`
	Mobile      *string `json:"mobile"`
	Website     *string `json:"website"`
	TaxNumber   *string `json:"tax_number"`
	PAN         *string `json:"pan"`
	VendorCode  *string `json:"vendor_code"`
	Notes       *string `json:"notes"`

	OpeningBalance      decimal.Decimal           `json:"opening_balance"`
	OpeningBalanceType  string                    `json:"opening_balance_type" validate:"omitempty,oneof=outstanding advance"`
	OpeningBalanceMode  string                    `json:"opening_balance_mode" validate:"omitempty,oneof=single split"`
	OpeningBalanceItems []OpeningBalanceItemInput `json:"opening_balance_items"`
	CreditLimit         decimal.Decimal           `json:"credit_limit"`
	CreditDays          int                       `json:"credit_days" validate:"gte=0"`

	BillingAddress      *string `json:"billing_address"`
	BillingAddressLine1 *string `json:"billing_address_line1"`
	BillingAddressLine2 *string `json:"billing_address_line2"`
	BillingCity         *string `json:"billing_city"`
	BillingState        *string `json:"billing_state"`
	BillingZip          *string `json:"billing_zip"`
	BillingCountry      *string `json:"billing_country"`

	ShippingAddress      *string `json:"shipping_address"`
	ShippingAddressLine1 *string `json:"shipping_address_line1"`
	ShippingAddressLine2 *string `json:"shipping_address_line2"`
	ShippingCity         *string `json:"shipping_city"`
	ShippingState        *string `json:"shipping_state"`
	ShippingZip          *string `json:"shipping_zip"`
	ShippingCountry      *string `json:"shipping_country"`

	LocationLat     *float64 `json:"location_lat" validate:"omitempty,gte=-90,lte=90"`
	LocationLng     *float64 `json:"location_lng" validate:"omitempty,gte=-180,lte=180"`
	LocationAddress *string  `json:"location_address"`

	CustomerType   string               `json:"customer_type"`
	ContactPersons []ContactPersonInput `json:"contact_persons"`
}

// CustomerUpdate is a sparse update: only fields present in the payload are applied.
// Explicit null clears nullable fields and is ignored for the others.
type CustomerUpdate struct {
	Name        utils.Opt[string] `json:"name"`
	DisplayName utils.Opt[string] `json:"display_name"`
	Email       utils.Opt[string] `json:"email" validate:"omitempty,email"`
	Contact     utils.Opt[string] `json:"contact"`
	Mobile      utils.Opt[string] `json:"mobile"`
	Website     utils.Opt[string] `json:"website"`
	TaxNumber   utils.Opt[string] `json:"tax_number"`
	PAN         utils.Opt[string] `json:"pan"`
	VendorCode  utils.Opt[string] `json:"vendor_code"`
	Notes       utils.Opt[string] `json:"notes"`

	OpeningBalance      utils.Opt[decimal.Decimal]           `json:"opening_balance"`
	OpeningBalanceType  utils.Opt[string]                    `json:"opening_balance_type" validate:"omitempty,oneof=outstanding advance"`
	OpeningBalanceMode  utils.Opt[string]                    `json:"opening_balance_mode" validate:"omitempty,oneof=single split"`
	OpeningBalanceItems utils.Opt[[]OpeningBalanceItemInput] `json:"opening_balance_items"`
	CreditLimit         utils.Opt[decimal.Decimal]           `json:"credit_limit"`
	CreditDays          utils.Opt[int]                       `json:"credit_days" validate:"omitempty,gte=0"`

	BillingAddress      utils.Opt[string] `json:"billing_address"`
	BillingAddressLine1 utils.Opt[string] `json:"billing_address_line1"`
	BillingAddressLine2 utils.Opt[string] `json:"billing_address_line2"`
	BillingCity         utils.Opt[string] `json:"billing_city"`
	BillingState        utils.Opt[string] `json:"billing_state"`
	BillingZip          utils.Opt[string] `json:"billing_zip"`
	BillingCountry      utils.Opt[string] `json:"billing_country"`

	ShippingAddress      utils.Opt[string] `json:"shipping_address"`
	ShippingAddressLine1 utils.Opt[string] `json:"shipping_address_line1"`
	ShippingAddressLine2 utils.Opt[string] `json:"shipping_address_line2"`
	ShippingCity         utils.Opt[string] `json:"shipping_city"`
	ShippingState        utils.Opt[string] `json:"shipping_state"`
	ShippingZip          utils.Opt[string] `json:"shipping_zip"`
	ShippingCountry      utils.Opt[string] `json:"shipping_country"`

	LocationLat     utils.Opt[float64] `json:"location_lat" validate:"omitempty,gte=-90,lte=90"`
	LocationLng     utils.Opt[float64] `json:"location_lng" validate:"omitempty,gte=-180,lte=180"`
	LocationAddress utils.Opt[string]  `json:"location_address"`

	CustomerType   utils.Opt[string]               `json:"customer_type"`
	ContactPersons utils.Opt[[]ContactPersonInput] `json:"contact_persons"`
}

// CustomerFilter drives the paginated listing.
type CustomerFilter struct {
	Search       string
	CustomerType string
	Page         int
	PageSize     int
}

// CustomerPage is one page of a listing; Total counts all matching rows.
type CustomerPage struct {
	Customers []models.Customer `json:"customers"`
	Total     int64             `json:"total"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
}

func toItems(in []OpeningBalanceItemInput, customerID uint) []models.OpeningBalanceItem {
	items := make([]models.OpeningBalanceItem, 0, len(in))
	for _, it := range in {
		items = append(items, models.OpeningBalanceItem{
			CustomerID:  customerID,
			Date:        it.Date,
			VoucherName: it.VoucherName,
			Days:        it.Days,
			Amount:      it.Amount,
		})
	}
	return items
}

// toContacts drops entries whose name is blank.
func toContacts(in []ContactPersonInput, customerID uint) []models.ContactPerson {
	contacts := make([]models.ContactPerson, 0, len(in))
	for _, cp := range in {
		name := cp.Name
		if utils.IsBlank(&name) {
			continue
		}
		contacts = append(contacts, models.ContactPerson{
			CustomerID:  customerID,
			Name:        utils.Deref(utils.TrimPtr(&name)),
			Email:       utils.TrimPtr(cp.Email),
			Phone:       utils.TrimPtr(cp.Phone),
			Designation: utils.TrimPtr(cp.Designation),
		})
	}
	return contacts
}
