package repository

import (
	"time"

	"gorm.io/gorm"
)

type CounterRepository struct {
	DB *gorm.DB
}

func NewCounterRepository(db *gorm.DB) *CounterRepository {
	return &CounterRepository{DB: db}
}

// NextSequence allocates the next per-day order number for date.
// The upsert-increment is a single statement so two orders created at
// the same instant can never be handed the same number; the row lock
// taken by DO UPDATE serializes concurrent callers on the same date.
func (r *CounterRepository) NextSequence(tx *gorm.DB, date time.Time) (int, error) {
	var next int
	err := tx.Raw(`
		INSERT INTO order_counters (counter_date, last_no)
		VALUES (?, 1)
		ON CONFLICT (counter_date)
		DO UPDATE SET last_no = order_counters.last_no + 1
		RETURNING last_no`, date.Format("2006-01-02")).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}
