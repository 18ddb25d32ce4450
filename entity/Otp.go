package entity

import (
	"time"

	"gorm.io/gorm"
)

// Otp is a pending signup waiting for email verification.
// Rows are durable with an expiry instead of a process-memory map,
// so a restart does not invalidate outstanding codes.
type Otp struct {
	gorm.Model
	Email     string    `gorm:"not null;index" json:"email"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	Name      string    `json:"name"`
	Password  string    `json:"-"` // bcrypt hash, applied on verify
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
}
