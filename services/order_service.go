package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"mealflow/entity"
	"mealflow/pkg/apperr"
	"mealflow/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// OrderNotifier receives order events for push delivery (websocket hub).
// May be nil; the lifecycle does not depend on it.
type OrderNotifier interface {
	OrderCreated(o *entity.Order)
	OrderStatusChanged(o *entity.Order)
}

// OrderService is the single authority for creating orders and moving
// them through their lifecycle. Nothing else writes the status column.
type OrderService struct {
	DB       *gorm.DB
	Repo     *repository.OrderRepository
	Counters *repository.CounterRepository
	Notifier OrderNotifier

	Now func() time.Time
}

func NewOrderService(db *gorm.DB, repo *repository.OrderRepository, counters *repository.CounterRepository) *OrderService {
	return &OrderService{DB: db, Repo: repo, Counters: counters, Now: time.Now}
}

// ----- DTOs from controller -----

type OrderItemIn struct {
	Name     string  `json:"name" binding:"required"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type CreateOrderReq struct {
	CustomerName   string        `json:"customerName"`
	CustomerMobile string        `json:"customerMobile"`
	AddressLine1   string        `json:"addressLine1"`
	AddressLine2   string        `json:"addressLine2"`
	City           string        `json:"city"`
	County         string        `json:"county"`
	Postcode       string        `json:"postcode"`
	Country        string        `json:"country"`
	PaymentMethod  string        `json:"paymentMethod" binding:"required,oneof=card cod"`
	Notes          string        `json:"notes"`
	TotalAmount    float64       `json:"totalAmount"`
	Items          []OrderItemIn `json:"items"`
}

// Create validates the submission, allocates the day sequence number and
// persists the order with its line-item snapshots in one transaction.
func (s *OrderService) Create(userID *uint, req *CreateOrderReq) (*entity.Order, error) {
	if len(req.Items) == 0 {
		return nil, apperr.Validation("no items to order")
	}

	var computed float64
	for _, it := range req.Items {
		if strings.TrimSpace(it.Name) == "" {
			return nil, apperr.Validation("item name is required")
		}
		if it.Quantity < 1 {
			return nil, apperr.Validation("invalid quantity for %q", it.Name)
		}
		if math.IsNaN(it.Price) || math.IsInf(it.Price, 0) || it.Price < 0 {
			return nil, apperr.Validation("invalid price for %q", it.Name)
		}
		computed += it.Price * float64(it.Quantity)
	}

	total := req.TotalAmount
	if total == 0 {
		total = computed
	}
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return nil, apperr.Validation("total amount must be positive")
	}

	// cash on delivery goes straight into the kitchen queue
	status := entity.StatusPendingPayment
	if req.PaymentMethod == entity.PaymentMethodCOD {
		status = entity.StatusPaid
	}

	now := s.Now()
	var created entity.Order
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		seq, err := s.Counters.NextSequence(tx, now)
		if err != nil {
			return err
		}

		order := entity.Order{
			UserID:         userID,
			CustomerName:   strings.TrimSpace(req.CustomerName),
			CustomerMobile: strings.TrimSpace(req.CustomerMobile),
			AddressLine1:   req.AddressLine1,
			AddressLine2:   req.AddressLine2,
			City:           req.City,
			County:         req.County,
			Postcode:       req.Postcode,
			Country:        req.Country,
			PaymentMethod:  req.PaymentMethod,
			Notes:          strings.TrimSpace(req.Notes),
			TotalAmount:    total,
			Status:         status,
			DisplayNo:      seq,
			DisplayCode:    DisplayCode(now, seq),
		}
		if err := s.Repo.CreateOrder(tx, &order); err != nil {
			return err
		}

		items := make([]entity.OrderItem, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, entity.OrderItem{
				OrderID:  order.ID,
				Name:     strings.TrimSpace(it.Name),
				Price:    it.Price,
				Quantity: it.Quantity,
			})
		}
		if err := s.Repo.CreateOrderItems(tx, items); err != nil {
			return err
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	full, err := s.Repo.GetOrderWithItems(created.ID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("orderId", full.ID).
		Str("displayCode", full.DisplayCode).
		Str("status", string(full.Status)).
		Msg("order created")

	if s.Notifier != nil {
		s.Notifier.OrderCreated(full)
	}
	return full, nil
}

// DisplayCode renders the human readable per-day code, e.g. MF241215-007.
func DisplayCode(t time.Time, seq int) string {
	return fmt.Sprintf("MF%s-%03d", t.Format("060102"), seq)
}

// ----- queries -----

func (s *OrderService) Live() ([]entity.Order, error) {
	return s.Repo.ListLive()
}

func (s *OrderService) Today() ([]entity.Order, error) {
	now := s.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)
	return s.Repo.ListByDateRange(start, end)
}

func (s *OrderService) HistoryForUser(userID uint) ([]entity.Order, error) {
	return s.Repo.ListForUser(userID)
}

// Receipt returns a single order to its owner or an admin.
func (s *OrderService) Receipt(orderID uint, userID uint, role string) (*entity.Order, error) {
	o, err := s.Repo.GetOrderWithItems(orderID)
	if err != nil {
		return nil, err
	}
	isOwner := o.UserID != nil && *o.UserID == userID
	if !isOwner && role != "admin" {
		return nil, apperr.ErrForbidden
	}
	return o, nil
}

func (s *OrderService) Search(p repository.SearchParams) (*repository.SearchResult, error) {
	return s.Repo.Search(p)
}
