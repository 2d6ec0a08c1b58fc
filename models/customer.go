package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BalanceTypeOutstanding = "outstanding"
	BalanceTypeAdvance     = "advance"

	BalanceModeSingle = "single"
	BalanceModeSplit  = "split"

	DefaultCustomerType = "b2b"
)

type Customer struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	CompanyID uint   `json:"company_id" gorm:"not null;index;uniqueIndex:idx_customers_company_code,priority:1"`
	Code      string `json:"code" gorm:"not null;size:32;uniqueIndex:idx_customers_company_code,priority:2"`

	Name        string  `json:"name" gorm:"not null;size:255"`
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email"`
	Contact     *string `json:"contact"`
	Mobile      *string `json:"mobile"`
	Website     *string `json:"website"`
	TaxNumber   *string `json:"tax_number"`
	PAN         *string `json:"pan" gorm:"column:pan"`
	VendorCode  *string `json:"vendor_code"`
	Notes       *string `json:"notes"`

	OpeningBalance     decimal.Decimal `json:"opening_balance" gorm:"type:numeric(14,2);not null;default:0"`
	OpeningBalanceType string          `json:"opening_balance_type" gorm:"not null;size:16;default:outstanding"`
	OpeningBalanceMode string          `json:"opening_balance_mode" gorm:"not null;size:16;default:single"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance" gorm:"type:numeric(14,2);not null;default:0"`
	AdvanceBalance     decimal.Decimal `json:"advance_balance" gorm:"type:numeric(14,2);not null;default:0"`
	CreditLimit        decimal.Decimal `json:"credit_limit" gorm:"type:numeric(14,2);not null;default:0"`
	CreditDays         int             `json:"credit_days" gorm:"not null;default:0"`

	BillingAddress      *string `json:"billing_address"`
	BillingAddressLine1 *string `json:"billing_address_line1" gorm:"column:billing_address_line1"`
	BillingAddressLine2 *string `json:"billing_address_line2" gorm:"column:billing_address_line2"`
	BillingCity         *string `json:"billing_city"`
	BillingState        *string `json:"billing_state" gorm:"index"`
	BillingZip          *string `json:"billing_zip"`
	BillingCountry      *string `json:"billing_country"`

	ShippingAddress      *string `json:"shipping_address"`
	ShippingAddressLine1 *string `json:"shipping_address_line1" gorm:"column:shipping_address_line1"`
	ShippingAddressLine2 *string `json:"shipping_address_line2" gorm:"column:shipping_address_line2"`
	ShippingCity         *string `json:"shipping_city"`
	ShippingState        *string `json:"shipping_state"`
	ShippingZip          *string `json:"shipping_zip"`
	ShippingCountry      *string `json:"shipping_country"`

	LocationLat     *float64 `json:"location_lat"`
	LocationLng     *float64 `json:"location_lng"`
	LocationAddress *string  `json:"location_address"`

	CustomerType      string `json:"customer_type" gorm:"not null;size:64;default:b2b"`
	IsActive          bool   `json:"is_active" gorm:"not null;default:true;index"`
	TotalTransactions int    `json:"total_transactions" gorm:"not null;default:0"`

	OpeningBalanceItems []OpeningBalanceItem `json:"opening_balance_items" gorm:"foreignKey:CustomerID"`
	ContactPersons      []ContactPerson      `json:"contact_persons" gorm:"foreignKey:CustomerID"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasLocation reports whether both coordinates are set.
func (c *Customer) HasLocation() bool {
	return c.LocationLat != nil && c.LocationLng != nil
}
