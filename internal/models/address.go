package models

import "time"

// Address is a shipping address owned by a user.
type Address struct {
	ID        string    `json:"addressId" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"-" gorm:"type:varchar(36);index;not null"`
	Street    string    `json:"street" gorm:"not null" validate:"required,min=5"`
	City      string    `json:"city" gorm:"not null" validate:"required,min=2"`
	State     string    `json:"state" validate:"omitempty,min=2"`
	Country   string    `json:"country" gorm:"not null" validate:"required,min=2"`
	Pincode   string    `json:"pincode" validate:"omitempty,min=4,max=10"`
	CreatedAt time.Time `json:"-"`
}
