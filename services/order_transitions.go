package services

import (
	"mealflow/entity"
	"mealflow/pkg/apperr"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// transitions is the full set of legal status moves. completed and
// cancelled are terminal; delivered is reserved and unreachable.
var transitions = map[entity.OrderStatus][]entity.OrderStatus{
	entity.StatusPendingPayment: {entity.StatusPaid, entity.StatusCancelled},
	entity.StatusPaid:           {entity.StatusPreparing, entity.StatusCancelled},
	entity.StatusPreparing:      {entity.StatusReady, entity.StatusCancelled},
	entity.StatusReady:          {entity.StatusCompleted, entity.StatusCancelled},
	entity.StatusCompleted:      {},
	entity.StatusCancelled:      {},
}

func KnownStatus(s entity.OrderStatus) bool {
	if _, ok := transitions[s]; ok {
		return true
	}
	return s == entity.StatusDelivered
}

func CanTransition(from, to entity.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionStatus moves an order to target if the move is legal from
// its current status. The UPDATE is guarded on the current status, so a
// concurrent transition makes this one fail rather than double-apply.
func (s *OrderService) TransitionStatus(orderID uint, target entity.OrderStatus) (*entity.Order, error) {
	if !KnownStatus(target) {
		return nil, apperr.Validation("unknown status %q", target)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		o, err := s.Repo.GetOrderTx(tx, orderID)
		if err != nil {
			return err
		}
		if !CanTransition(o.Status, target) {
			return &apperr.InvalidTransitionError{From: string(o.Status), To: string(target)}
		}
		affected, err := s.Repo.UpdateStatusGuard(tx, o.ID, o.Status, target)
		if err != nil {
			return err
		}
		if affected == 0 {
			return &apperr.InvalidTransitionError{From: string(o.Status), To: string(target)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	full, err := s.Repo.GetOrderWithItems(orderID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("orderId", full.ID).
		Str("status", string(full.Status)).
		Msg("order status changed")

	if s.Notifier != nil {
		s.Notifier.OrderStatusChanged(full)
	}
	return full, nil
}

// MarkPaid records a confirmed payment. It is idempotent: an order that
// is already paid (or further along) is a no-op success, never an error.
// The returned bool reports whether this call performed the write.
func (s *OrderService) MarkPaid(orderID uint, sessionID, intentID string) (*entity.Order, bool, error) {
	updated := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		o, err := s.Repo.GetOrderTx(tx, orderID)
		if err != nil {
			return err
		}

		if o.Status == entity.StatusPendingPayment {
			affected, err := s.Repo.UpdateStatusGuard(tx, o.ID, entity.StatusPendingPayment, entity.StatusPaid)
			if err != nil {
				return err
			}
			// zero affected rows: another confirmation won the race,
			// which is still a success for this caller
			updated = affected > 0
		}

		return s.Repo.SetPaymentRefs(tx, o.ID, sessionID, intentID)
	})
	if err != nil {
		return nil, false, err
	}

	full, err := s.Repo.GetOrderWithItems(orderID)
	if err != nil {
		return nil, false, err
	}

	if updated {
		log.Info().Uint("orderId", full.ID).Msg("order marked paid")
		if s.Notifier != nil {
			s.Notifier.OrderStatusChanged(full)
		}
	}
	return full, updated, nil
}
