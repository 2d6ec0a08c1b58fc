package models

import "github.com/shopspring/decimal"

// OpeningBalanceItem is one dated line of a split-mode opening balance.
type OpeningBalanceItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	CustomerID  uint            `json:"-" gorm:"not null;index"`
	Date        string          `json:"date" gorm:"size:32"`
	VoucherName string          `json:"voucher_name" gorm:"size:255"`
	Days        *int            `json:"days"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null;default:0"`
}
