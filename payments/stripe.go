package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mealflow/pkg/apperr"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
)

// stripeSessionAPI is the slice of the Stripe client the gateway uses,
// narrowed so tests can substitute a fake.
type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type StripeConfig struct {
	APIKey        string
	WebhookSecret string
	FrontendURL   string
	Timeout       time.Duration

	// Sessions overrides the live client; used by tests.
	Sessions stripeSessionAPI
}

type StripeGateway struct {
	sessions      stripeSessionAPI
	webhookSecret string
	frontendURL   string
}

func NewStripeGateway(cfg StripeConfig) (*StripeGateway, error) {
	sessions := cfg.Sessions
	if sessions == nil {
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("stripe: api key is required")
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		// bounded timeout so a provider outage fails the request
		// instead of hanging it
		backends := stripe.NewBackends(&http.Client{Timeout: timeout})
		sc := client.New(cfg.APIKey, backends)
		sessions = sc.CheckoutSessions
	}

	return &StripeGateway{
		sessions:      sessions,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		frontendURL:   strings.TrimRight(cfg.FrontendURL, "/"),
	}, nil
}

// CreateCheckoutSession builds one Stripe line item per order line and
// requests a hosted payment page. Minor-unit amounts are validated here
// rather than left to provider-side rejection.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if len(req.Items) == 0 {
		return nil, apperr.Validation("order has no items")
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "gbp"
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		unit := int64(math.Round(item.Price * 100))
		if unit <= 0 {
			return nil, apperr.Validation("invalid price for %q", item.Name)
		}
		if item.Quantity < 1 {
			return nil, apperr.Validation("invalid quantity for %q", item.Name)
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(unit),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}

	orderID := strconv.FormatUint(uint64(req.OrderID), 10)
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(g.frontendURL + "/success?session_id={CHECKOUT_SESSION_ID}&order_id=" + orderID),
		CancelURL:          stripe.String(g.frontendURL + "/checkout?canceled=1"),
		Metadata:           map[string]string{"orderId": orderID},
	}
	params.Context = ctx

	session, err := g.sessions.New(params)
	if err != nil {
		return nil, apperr.Upstream("stripe: create checkout session", err)
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("orderId", orderID).
		Msg("stripe checkout session created")

	return &CheckoutSession{SessionID: session.ID, URL: session.URL}, nil
}

// RetrieveSession fetches a session with its payment intent expanded and
// derives the paid flag.
func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	session, err := g.sessions.Get(sessionID, params)
	if err != nil {
		var serr *stripe.Error
		if errors.As(err, &serr) && serr.HTTPStatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("session %s: %w", sessionID, apperr.ErrNotFound)
		}
		return nil, apperr.Upstream("stripe: retrieve checkout session", err)
	}

	return sessionStatus(session), nil
}

func sessionStatus(session *stripe.CheckoutSession) *SessionStatus {
	out := &SessionStatus{
		SessionID:     session.ID,
		PaymentStatus: string(session.PaymentStatus),
	}
	if session.PaymentIntent != nil {
		out.PaymentIntentID = session.PaymentIntent.ID
		out.IntentStatus = string(session.PaymentIntent.Status)
	}
	if session.Metadata != nil {
		out.OrderID = session.Metadata["orderId"]
	}
	out.Paid = session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		(session.PaymentIntent != nil && session.PaymentIntent.Status == stripe.PaymentIntentStatusSucceeded)
	return out
}

// ParseWebhook verifies the event signature when a signing secret is
// configured; without one the payload is trusted as-is, which is only
// acceptable in a development configuration.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookPaid, error) {
	var event stripe.Event
	if g.webhookSecret != "" {
		verified, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
		if err != nil {
			return nil, apperr.Validation("webhook signature verification failed: %v", err)
		}
		event = verified
	} else {
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, apperr.Validation("malformed webhook payload: %v", err)
		}
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return nil, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, apperr.Validation("malformed checkout session in event: %v", err)
	}

	out := &WebhookPaid{SessionID: session.ID}
	if session.Metadata != nil {
		out.OrderID = session.Metadata["orderId"]
	}
	if session.PaymentIntent != nil {
		out.PaymentIntentID = session.PaymentIntent.ID
	}
	return out, nil
}
