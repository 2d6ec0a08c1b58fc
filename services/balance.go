package services

import (
	"crm-backend/models"

	"github.com/shopspring/decimal"
)

func sumItems(items []models.OpeningBalanceItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return total
}

// deriveBalances splits OpeningBalance into outstanding or advance per OpeningBalanceType.
// Exactly one side carries the balance; the other is zero.
func deriveBalances(c *models.Customer) {
	if c.OpeningBalanceType == models.BalanceTypeAdvance {
		c.AdvanceBalance = c.OpeningBalance
		c.OutstandingBalance = decimal.Zero
		return
	}
	c.OutstandingBalance = c.OpeningBalance
	c.AdvanceBalance = decimal.Zero
}
