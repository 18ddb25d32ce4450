package entity

import (
	"gorm.io/gorm"
)

// CartItem carries a name/price snapshot so checkout totals match
// what the customer saw when they added the item.
type CartItem struct {
	gorm.Model
	UserID uint `json:"userId" gorm:"not null;index"`
	User   User `json:"-"`

	Name     string  `json:"name" gorm:"not null"`
	Price    float64 `json:"price" gorm:"not null"`
	Quantity int     `json:"quantity" gorm:"not null;default:1"`
}
