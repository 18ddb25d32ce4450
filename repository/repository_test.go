package repository

import (
	"path/filepath"
	"testing"

	"mealflow/entity"

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
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&entity.Order{}, &entity.OrderItem{}, &entity.OrderCounter{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, o entity.Order) *entity.Order {
	t.Helper()
	if o.Status == "" {
		o.Status = entity.StatusPendingPayment
	}
	if o.PaymentMethod == "" {
		o.PaymentMethod = entity.PaymentMethodCard
	}
	if o.TotalAmount == 0 {
		o.TotalAmount = 10
	}
	if err := db.Create(&o).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return &o
}
