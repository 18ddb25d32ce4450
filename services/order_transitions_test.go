package services

import (
	"errors"
	"testing"
	"time"

	"mealflow/entity"
	"mealflow/pkg/apperr"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to entity.OrderStatus
		ok       bool
	}{
		{entity.StatusPendingPayment, entity.StatusPaid, true},
		{entity.StatusPendingPayment, entity.StatusCancelled, true},
		{entity.StatusPendingPayment, entity.StatusPreparing, false},
		{entity.StatusPaid, entity.StatusPreparing, true},
		{entity.StatusPaid, entity.StatusReady, false},
		{entity.StatusPreparing, entity.StatusReady, true},
		{entity.StatusReady, entity.StatusCompleted, true},
		{entity.StatusReady, entity.StatusPaid, false},
		{entity.StatusCompleted, entity.StatusCancelled, false},
		{entity.StatusCancelled, entity.StatusPaid, false},
		{entity.StatusPaid, entity.StatusDelivered, false},
		{entity.StatusDelivered, entity.StatusCompleted, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestTransitionStatusFullLifecycle(t *testing.T) {
	svc := newTestOrderService(t)

	req := cardOrderReq()
	req.PaymentMethod = entity.PaymentMethodCOD
	order, err := svc.Create(nil, req)
	if err != nil {
		t.Fatal(err)
	}

	for _, next := range []entity.OrderStatus{
		entity.StatusPreparing, entity.StatusReady, entity.StatusCompleted,
	} {
		got, err := svc.TransitionStatus(order.ID, next)
		if err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
		if got.Status != next {
			t.Fatalf("status = %s, want %s", got.Status, next)
		}
	}
}

func TestTransitionStatusRejectsSkips(t *testing.T) {
	svc := newTestOrderService(t)

	req := cardOrderReq()
	req.PaymentMethod = entity.PaymentMethodCOD
	order, err := svc.Create(nil, req) // starts paid
	if err != nil {
		t.Fatal(err)
	}

	for _, target := range []entity.OrderStatus{
		entity.StatusReady, entity.StatusCompleted, entity.StatusPendingPayment,
	} {
		if _, err := svc.TransitionStatus(order.ID, target); !apperr.IsInvalidTransition(err) {
			t.Fatalf("paid -> %s: got %v, want invalid transition", target, err)
		}
	}

	got, err := svc.Repo.GetOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != entity.StatusPaid {
		t.Fatalf("status mutated to %s by rejected transitions", got.Status)
	}
}

func TestTransitionStatusTerminalStates(t *testing.T) {
	svc := newTestOrderService(t)

	req := cardOrderReq()
	req.PaymentMethod = entity.PaymentMethodCOD
	order, err := svc.Create(nil, req)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.TransitionStatus(order.ID, entity.StatusCancelled); err != nil {
		t.Fatal(err)
	}

	for _, target := range []entity.OrderStatus{
		entity.StatusPaid, entity.StatusPreparing, entity.StatusCompleted,
	} {
		if _, err := svc.TransitionStatus(order.ID, target); !apperr.IsInvalidTransition(err) {
			t.Fatalf("cancelled -> %s: got %v, want invalid transition", target, err)
		}
	}
}

// The test pool is capped at one connection, so a status write that
// reads outside its own transaction would never finish: the open
// transaction holds the only connection while the read waits for one.
func TestStatusWritesCompleteOnSingleConnection(t *testing.T) {
	svc := newTestOrderService(t)

	order, err := svc.Create(nil, cardOrderReq())
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		if _, _, err := svc.MarkPaid(order.ID, "cs_1", "pi_1"); err != nil {
			done <- err
			return
		}
		_, err := svc.TransitionStatus(order.ID, entity.StatusPreparing)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("status write starved the connection pool")
	}

	got, err := svc.Repo.GetOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != entity.StatusPreparing {
		t.Fatalf("status = %s, want preparing", got.Status)
	}
}

func TestTransitionStatusUnknownOrder(t *testing.T) {
	svc := newTestOrderService(t)

	if _, err := svc.TransitionStatus(9999, entity.StatusPaid); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("got %v, want not found", err)
	}
	if _, _, err := svc.MarkPaid(9999, "cs_x", "pi_x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestTransitionStatusUnknownTarget(t *testing.T) {
	svc := newTestOrderService(t)

	order, err := svc.Create(nil, cardOrderReq())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.TransitionStatus(order.ID, "refunded"); !apperr.IsValidation(err) {
		t.Fatalf("unknown status got %v, want validation error", err)
	}
}

func TestMarkPaidTransitionsPendingOrder(t *testing.T) {
	svc := newTestOrderService(t)

	order, err := svc.Create(nil, cardOrderReq())
	if err != nil {
		t.Fatal(err)
	}

	got, updated, err := svc.MarkPaid(order.ID, "cs_test_1", "pi_test_1")
	if err != nil {
		t.Fatal(err)
	}
	if !updated {
		t.Fatal("first MarkPaid did not report an update")
	}
	if got.Status != entity.StatusPaid {
		t.Fatalf("status = %s, want %s", got.Status, entity.StatusPaid)
	}
	if got.StripeSessionID != "cs_test_1" || got.PaymentIntentID != "pi_test_1" {
		t.Fatalf("payment refs not stored: %+v", got)
	}
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	svc := newTestOrderService(t)

	order, err := svc.Create(nil, cardOrderReq())
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.MarkPaid(order.ID, "cs_test_1", "pi_test_1"); err != nil {
		t.Fatal(err)
	}
	got, updated, err := svc.MarkPaid(order.ID, "cs_test_1", "pi_test_1")
	if err != nil {
		t.Fatalf("second MarkPaid errored: %v", err)
	}
	if updated {
		t.Fatal("second MarkPaid reported an update")
	}
	if got.Status != entity.StatusPaid {
		t.Fatalf("status = %s, want %s", got.Status, entity.StatusPaid)
	}
}

func TestMarkPaidDoesNotRegressKitchenStatus(t *testing.T) {
	svc := newTestOrderService(t)

	order, err := svc.Create(nil, cardOrderReq())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.MarkPaid(order.ID, "cs_test_1", "pi_test_1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.TransitionStatus(order.ID, entity.StatusPreparing); err != nil {
		t.Fatal(err)
	}

	// a late webhook replay must not pull the order back to paid
	got, updated, err := svc.MarkPaid(order.ID, "cs_test_1", "pi_test_1")
	if err != nil {
		t.Fatal(err)
	}
	if updated {
		t.Fatal("late confirmation reported an update")
	}
	if got.Status != entity.StatusPreparing {
		t.Fatalf("status regressed to %s", got.Status)
	}
}
