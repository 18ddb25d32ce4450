package repository

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"mealflow/entity"
	"mealflow/pkg/apperr"

	"gorm.io/gorm"
)

type OrderRepository struct {
	DB *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

// ---------------- writes ----------------

func (r *OrderRepository) CreateOrder(tx *gorm.DB, o *entity.Order) error {
	return tx.Create(o).Error
}

func (r *OrderRepository) CreateOrderItems(tx *gorm.DB, items []entity.OrderItem) error {
	return tx.Create(&items).Error
}

// UpdateStatusGuard flips status only when the row still holds `from`.
// Zero rows affected means the transition lost a race or was illegal;
// the caller decides which.
func (r *OrderRepository) UpdateStatusGuard(tx *gorm.DB, orderID uint, from, to entity.OrderStatus) (int64, error) {
	res := tx.Model(&entity.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

// SetStripeSession stores the newest checkout session reference.
// A retried checkout simply overwrites the previous session id.
func (r *OrderRepository) SetStripeSession(orderID uint, sessionID string) error {
	return r.DB.Model(&entity.Order{}).
		Where("id = ?", orderID).
		Update("stripe_session_id", sessionID).Error
}

func (r *OrderRepository) SetPaymentRefs(tx *gorm.DB, orderID uint, sessionID, intentID string) error {
	updates := map[string]any{}
	if sessionID != "" {
		updates["stripe_session_id"] = sessionID
	}
	if intentID != "" {
		updates["payment_intent_id"] = intentID
	}
	if len(updates) == 0 {
		return nil
	}
	return tx.Model(&entity.Order{}).Where("id = ?", orderID).Updates(updates).Error
}

// ---------------- reads ----------------

func (r *OrderRepository) GetOrder(orderID uint) (*entity.Order, error) {
	return r.GetOrderTx(r.DB, orderID)
}

// GetOrderTx reads through the caller's transaction. Reads inside a
// transaction closure must use this: the root pool may have no free
// connection while the transaction holds one.
func (r *OrderRepository) GetOrderTx(tx *gorm.DB, orderID uint) (*entity.Order, error) {
	var o entity.Order
	if err := tx.First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetOrderWithItems(orderID uint) (*entity.Order, error) {
	var o entity.Order
	if err := r.DB.Preload("Items").First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetOrderBySessionID(sessionID string) (*entity.Order, error) {
	var o entity.Order
	if err := r.DB.Where("stripe_session_id = ?", sessionID).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// ListLive returns the kitchen queue: paid, preparing and ready orders.
func (r *OrderRepository) ListLive() ([]entity.Order, error) {
	var out []entity.Order
	err := r.DB.Preload("Items").
		Where("status IN ?", []entity.OrderStatus{entity.StatusPaid, entity.StatusPreparing, entity.StatusReady}).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *OrderRepository) ListByDateRange(start, end time.Time) ([]entity.Order, error) {
	var out []entity.Order
	err := r.DB.Preload("Items").
		Where("created_at BETWEEN ? AND ?", start, end).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *OrderRepository) ListForUser(userID uint) ([]entity.Order, error) {
	var out []entity.Order
	err := r.DB.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// ListPending feeds the reconciliation sweep: every order still in
// pending_payment, with or without a stored checkout session.
func (r *OrderRepository) ListPending() ([]entity.Order, error) {
	var out []entity.Order
	err := r.DB.
		Where("status = ?", entity.StatusPendingPayment).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// ---------------- admin search ----------------

type SearchParams struct {
	Query    string
	UserID   *uint
	Status   string
	Page     int
	PageSize int
	Sort     string
	Dir      string
}

type SearchResult struct {
	Rows      []entity.Order `json:"rows"`
	Count     int64          `json:"count"`
	Page      int            `json:"page"`
	PageSize  int            `json:"pageSize"`
	PageCount int            `json:"pageCount"`
}

var allowedSort = map[string]string{
	"createdAt":   "created_at",
	"totalAmount": "total_amount",
	"status":      "status",
	"id":          "id",
	"displayCode": "display_code",
}

func (r *OrderRepository) Search(p SearchParams) (*SearchResult, error) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 || p.PageSize > 100 {
		p.PageSize = 20
	}

	// fresh chain per query; gorm finishers pollute a shared chain
	filtered := func() *gorm.DB {
		q := r.DB.Model(&entity.Order{})
		if p.Status != "" {
			q = q.Where("status = ?", p.Status)
		}
		if p.UserID != nil {
			q = q.Where("user_id = ?", *p.UserID)
		}
		if s := strings.TrimSpace(p.Query); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			cond := r.DB.Where(
				"lower(display_code) LIKE ? OR lower(customer_name) LIKE ? OR lower(customer_mobile) LIKE ? OR lower(address_line1) LIKE ?",
				like, like, like, like,
			)
			if id, err := strconv.Atoi(s); err == nil {
				cond = cond.Or("id = ?", id)
			}
			q = q.Where(cond)
		}
		return q
	}

	var count int64
	if err := filtered().Count(&count).Error; err != nil {
		return nil, err
	}

	col, ok := allowedSort[p.Sort]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(p.Dir, "ASC") {
		dir = "ASC"
	}

	var rows []entity.Order
	err := filtered().Preload("Items").
		Order(col + " " + dir).
		Limit(p.PageSize).
		Offset((p.Page - 1) * p.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	pageCount := int((count + int64(p.PageSize) - 1) / int64(p.PageSize))
	return &SearchResult{
		Rows:      rows,
		Count:     count,
		Page:      p.Page,
		PageSize:  p.PageSize,
		PageCount: pageCount,
	}, nil
}
