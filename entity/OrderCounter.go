package entity

// OrderCounter holds the last issued per-day sequence number.
// Exactly one row per calendar date; incremented only through
// repository.CounterRepository.NextSequence.
type OrderCounter struct {
	CounterDate string `json:"counterDate" gorm:"primaryKey;size:10;column:counter_date"` // YYYY-MM-DD
	LastNo      int    `json:"lastNo" gorm:"not null;default:0"`
}

func (OrderCounter) TableName() string { return "order_counters" }
