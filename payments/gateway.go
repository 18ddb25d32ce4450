// Package payments isolates all interaction with the card payment
// provider behind the Gateway interface so services and tests never
// touch provider SDK types directly.
package payments

import (
	"context"
)

// CheckoutItem is one order line as the provider should bill it.
// Price is in major currency units; the gateway converts to minor units.
type CheckoutItem struct {
	Name     string
	Price    float64
	Quantity int
}

// CheckoutRequest opens a hosted payment page for an order.
type CheckoutRequest struct {
	OrderID  uint
	Currency string
	Items    []CheckoutItem
}

// CheckoutSession is the provider's hosted page reference.
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// SessionStatus is the provider's view of a session's payment outcome.
// Paid is derived from two fields because the session's payment-status
// and the underlying intent's status converge at slightly different
// times; either signal alone is sufficient.
type SessionStatus struct {
	SessionID       string `json:"sessionId"`
	Paid            bool   `json:"paid"`
	PaymentIntentID string `json:"paymentIntentId"`
	PaymentStatus   string `json:"paymentStatus"`
	IntentStatus    string `json:"intentStatus"`
	OrderID         string `json:"orderId"` // from session metadata
}

// WebhookPaid is a provider-pushed completed checkout. The payload
// already carries the confirmed state, so no retrieval round-trip is
// needed before marking the order paid.
type WebhookPaid struct {
	OrderID         string
	SessionID       string
	PaymentIntentID string
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error)
	// ParseWebhook verifies and decodes a raw provider event. It returns
	// (nil, nil) for event types the application does not act on.
	ParseWebhook(payload []byte, signature string) (*WebhookPaid, error)
}
