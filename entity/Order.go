package entity

import (
	"gorm.io/gorm"
)

type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusPaid           OrderStatus = "paid"
	StatusPreparing      OrderStatus = "preparing"
	StatusReady          OrderStatus = "ready"
	StatusDelivered      OrderStatus = "delivered" // reserved: in the enum, no transition reaches it
	StatusCompleted      OrderStatus = "completed"
	StatusCancelled      OrderStatus = "cancelled"
)

const (
	PaymentMethodCard = "card"
	PaymentMethodCOD  = "cod"
)

type Order struct {
	gorm.Model

	// nullable so guest checkouts are possible
	UserID *uint `json:"userId"`
	User   User  `json:"-"`

	CustomerName   string `json:"customerName"`
	CustomerMobile string `json:"customerMobile"`

	// delivery address snapshot
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	County       string `json:"county"`
	Postcode     string `json:"postcode"`
	Country      string `json:"country" gorm:"default:United Kingdom"`

	PaymentMethod string  `json:"paymentMethod"` // card | cod
	TotalAmount   float64 `json:"totalAmount" gorm:"not null;default:0"`
	Notes         string  `json:"notes" gorm:"type:text"`

	Status OrderStatus `json:"status" gorm:"size:20;not null;default:pending_payment;index"`

	// per-day human readable code, e.g. MF241215-007
	DisplayNo   int    `json:"displayNo"`
	DisplayCode string `json:"displayCode" gorm:"size:32;index"`

	// external payment references
	StripeSessionID string `json:"stripeSessionId" gorm:"index"`
	PaymentIntentID string `json:"paymentIntentId"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
}
