package services

import (
	"context"
	"errors"
	"strconv"

	"mealflow/entity"
	"mealflow/payments"
	"mealflow/pkg/apperr"
	"mealflow/repository"

	"github.com/rs/zerolog/log"
)

// PaymentService bridges externally driven payment completion back into
// the order lifecycle. Every path is safe to invoke more than once: the
// same session may be confirmed by the browser redirect, a webhook and
// an administrative sweep.
type PaymentService struct {
	Orders   *OrderService
	Repo     *repository.OrderRepository
	Gateway  payments.Gateway
	Currency string
}

func NewPaymentService(orders *OrderService, repo *repository.OrderRepository, gw payments.Gateway, currency string) *PaymentService {
	return &PaymentService{Orders: orders, Repo: repo, Gateway: gw, Currency: currency}
}

func (s *PaymentService) gatewayReady() error {
	if s.Gateway == nil {
		return apperr.Upstream("payments", errors.New("gateway not configured"))
	}
	return nil
}

// CreateCheckout opens a hosted payment page for a card order and stores
// the session reference for later reconciliation. A new attempt simply
// overwrites the previous session id.
func (s *PaymentService) CreateCheckout(ctx context.Context, orderID uint) (*payments.CheckoutSession, error) {
	if err := s.gatewayReady(); err != nil {
		return nil, err
	}
	order, err := s.Repo.GetOrderWithItems(orderID)
	if err != nil {
		return nil, err
	}
	if len(order.Items) == 0 {
		return nil, apperr.Validation("order has no items")
	}
	if order.Status != entity.StatusPendingPayment {
		return nil, apperr.Validation("order is not awaiting payment (status %s)", order.Status)
	}

	items := make([]payments.CheckoutItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, payments.CheckoutItem{
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
	}

	session, err := s.Gateway.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		OrderID:  order.ID,
		Currency: s.Currency,
		Items:    items,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Repo.SetStripeSession(order.ID, session.SessionID); err != nil {
		return nil, err
	}
	return session, nil
}

// ConfirmResult is the outcome of a single confirmation check.
type ConfirmResult struct {
	OrderID       uint               `json:"orderId"`
	Paid          bool               `json:"paid"`
	Status        entity.OrderStatus `json:"status"`
	PaymentStatus string             `json:"paymentStatus"`
	IntentStatus  string             `json:"intentStatus"`
}

// ConfirmSession checks the provider's record for a session and, when
// paid, transitions the order. Repeat calls on an already-paid order are
// a no-op success.
func (s *PaymentService) ConfirmSession(ctx context.Context, sessionID string) (*ConfirmResult, error) {
	order, err := s.Repo.GetOrderBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	return s.confirm(ctx, order)
}

// ConfirmByOrder is the secondary lookup path: confirm using the
// session id stored on the order.
func (s *PaymentService) ConfirmByOrder(ctx context.Context, orderID uint) (*ConfirmResult, error) {
	order, err := s.Repo.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.StripeSessionID == "" {
		return nil, apperr.ErrNotFound
	}
	return s.confirm(ctx, order)
}

func (s *PaymentService) confirm(ctx context.Context, order *entity.Order) (*ConfirmResult, error) {
	if err := s.gatewayReady(); err != nil {
		return nil, err
	}
	st, err := s.Gateway.RetrieveSession(ctx, order.StripeSessionID)
	if err != nil {
		return nil, err
	}

	current := order
	if st.Paid {
		fresh, _, err := s.Orders.MarkPaid(order.ID, st.SessionID, st.PaymentIntentID)
		if err != nil {
			return nil, err
		}
		current = fresh
	}

	return &ConfirmResult{
		OrderID:       current.ID,
		Paid:          st.Paid,
		Status:        current.Status,
		PaymentStatus: st.PaymentStatus,
		IntentStatus:  st.IntentStatus,
	}, nil
}

// ReconcileResult is the per-order outcome of a sweep.
type ReconcileResult struct {
	OrderID uint   `json:"orderId"`
	Updated bool   `json:"updated"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ReconcilePending sweeps every order stuck in pending_payment against
// the provider. One order's failure never aborts the rest; this is the
// recovery path for missed webhooks and abandoned redirects.
func (s *PaymentService) ReconcilePending(ctx context.Context) ([]ReconcileResult, error) {
	if err := s.gatewayReady(); err != nil {
		return nil, err
	}
	pending, err := s.Repo.ListPending()
	if err != nil {
		return nil, err
	}

	results := make([]ReconcileResult, 0, len(pending))
	for _, o := range pending {
		if o.StripeSessionID == "" {
			results = append(results, ReconcileResult{OrderID: o.ID, Reason: "no session"})
			continue
		}

		st, err := s.Gateway.RetrieveSession(ctx, o.StripeSessionID)
		if err != nil {
			log.Warn().Err(err).Uint("orderId", o.ID).Msg("reconcile: session retrieval failed")
			results = append(results, ReconcileResult{OrderID: o.ID, Error: err.Error()})
			continue
		}

		if !st.Paid {
			results = append(results, ReconcileResult{OrderID: o.ID, Reason: st.PaymentStatus})
			continue
		}

		if _, _, err := s.Orders.MarkPaid(o.ID, st.SessionID, st.PaymentIntentID); err != nil {
			results = append(results, ReconcileResult{OrderID: o.ID, Error: err.Error()})
			continue
		}
		results = append(results, ReconcileResult{OrderID: o.ID, Updated: true})
	}
	return results, nil
}

// HandleWebhook applies a provider-pushed completion event. The event
// payload already carries the confirmed state, so the order is marked
// paid without a retrieval round-trip.
func (s *PaymentService) HandleWebhook(payload []byte, signature string) error {
	if err := s.gatewayReady(); err != nil {
		return err
	}
	evt, err := s.Gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	if evt == nil {
		// an event type we do not act on
		return nil
	}

	id, err := strconv.ParseUint(evt.OrderID, 10, 64)
	if err != nil || id == 0 {
		return apperr.Validation("orderId missing in session metadata")
	}

	_, updated, err := s.Orders.MarkPaid(uint(id), evt.SessionID, evt.PaymentIntentID)
	if err != nil {
		return err
	}
	if updated {
		log.Info().Uint64("orderId", id).Msg("order marked paid via webhook")
	}
	return nil
}
