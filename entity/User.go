package entity

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `json:"-"`
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
	Role     string `gorm:"not null;default:user" json:"role"` // user | admin

	// profile address, copied onto orders at checkout
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	County       string `json:"county"`
	Postcode     string `json:"postcode"`
	Country      string `json:"country" gorm:"default:United Kingdom"`

	Orders []Order `json:"-"`
}
