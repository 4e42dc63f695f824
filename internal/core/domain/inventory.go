package domain

import "time"

// InventoryItem tracks purchasable units for one catalog book.
// Quantity never goes below zero and is mutated only through the
// stock service increment/decrement operations.
type InventoryItem struct {
	ISBN      string
	Quantity  int
	Version   int // optimistic locking
	CreatedAt time.Time
	UpdatedAt time.Time
}
