package models

type ContactPerson struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	CustomerID  uint    `json:"-" gorm:"not null;index"`
	Name        string  `json:"name" gorm:"not null"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Designation *string `json:"designation"`
}
