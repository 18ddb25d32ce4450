package services

import (
	"path/filepath"
	"testing"
	"time"

	"mealflow/entity"
	"mealflow/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		// sqlite allows one writer; a single pooled connection keeps
		// concurrent test writers queued instead of racing into busy errors
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Order{}, &entity.OrderItem{}, &entity.OrderCounter{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestOrderService(t *testing.T) *OrderService {
	t.Helper()
	db := newTestDB(t)
	svc := NewOrderService(db, repository.NewOrderRepository(db), repository.NewCounterRepository(db))
	return svc
}

func fixedTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return ts
}

func cardOrderReq() *CreateOrderReq {
	return &CreateOrderReq{
		CustomerName:   "Asha Patel",
		CustomerMobile: "07700900123",
		AddressLine1:   "1 High Street",
		City:           "Leeds",
		Postcode:       "LS1 1AA",
		PaymentMethod:  entity.PaymentMethodCard,
		Items: []OrderItemIn{
			{Name: "Curry", Price: 9.50, Quantity: 2},
			{Name: "Rice", Price: 2.00, Quantity: 1},
		},
	}
}
