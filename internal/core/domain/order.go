package domain

import "time"

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
)

// OrderLine is a finalized cart entry frozen at confirmation time.
type OrderLine struct {
	ISBN      string  `json:"isbn"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Order is the terminal record of one checkout cycle. Confirmation is an
// opaque token whose only contract is uniqueness.
type Order struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Confirmation string      `json:"confirmation"`
	Lines        []OrderLine `json:"lines"`
	Total        float64     `json:"total"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
}
