package models

import "time"

// CustomerTypeMaster is a per-company customer tag. Names are unique (case-insensitive)
// among active rows of one company; uniqueness is enforced in the service.
type CustomerTypeMaster struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CompanyID   uint      `json:"company_id" gorm:"not null;index"`
	Name        string    `json:"name" gorm:"not null;size:64"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
