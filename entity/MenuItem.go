package entity

import (
	"gorm.io/gorm"
)

type MenuItem struct {
	gorm.Model
	CategoryID uint     `json:"categoryId" gorm:"not null;index"`
	Category   Category `json:"-"`

	Name        string  `gorm:"size:255;not null" json:"name"`
	Description string  `gorm:"size:255" json:"description"`
	Price       float64 `gorm:"not null" json:"price"`
	ImageURL    string  `gorm:"size:255" json:"imageUrl"`
	Available   bool    `gorm:"not null;default:true" json:"available"`
}
