package entity

import (
	"gorm.io/gorm"
)

// OrderItem is a snapshot of a menu item at order time.
// Later catalog edits must never change historical orders.
type OrderItem struct {
	gorm.Model
	OrderID uint  `json:"orderId" gorm:"not null;index"`
	Order   Order `json:"-"`

	Name     string  `json:"name" gorm:"not null"`
	Price    float64 `json:"price" gorm:"not null;default:0"`
	Quantity int     `json:"quantity" gorm:"not null;default:1"`
}
