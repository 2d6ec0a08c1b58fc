package models

import (
	"time"

	"gorm.io/datatypes"
)

// ImportBatch records the outcome of one bulk customer import.
type ImportBatch struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CompanyID uint           `json:"company_id" gorm:"not null;index"`
	Total     int            `json:"total"`
	Imported  int            `json:"imported"`
	Errors    datatypes.JSON `json:"errors"`
	CreatedAt time.Time      `json:"created_at"`
}
