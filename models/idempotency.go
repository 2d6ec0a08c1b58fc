package models

import "time"

// IdempotencyKey stores the first completed response for a given request hash.
// Keys are unique per company.
type IdempotencyKey struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	CompanyID      uint       `json:"company_id" gorm:"uniqueIndex:idx_idempotency_company_key,priority:1"`
	Key            string     `json:"key" gorm:"size:128;uniqueIndex:idx_idempotency_company_key,priority:2"`
	RequestHash    string     `json:"request_hash" gorm:"size:64"` // sha256 of method|path|body|company|user
	Method         string     `json:"method" gorm:"size:10"`
	Path           string     `json:"path" gorm:"size:255"`
	UserID         string     `json:"user_id" gorm:"size:128"`
	ResponseStatus int        `json:"response_status"` // 0 => not completed yet
	ResponseBody   []byte     `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}
