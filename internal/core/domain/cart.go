package domain

import "time"

type CartState string

const (
	CartStateShopping  CartState = "shopping"
	CartStateConfirmed CartState = "confirmed"
)

// CartEntry is one line item in a cart. An entry with quantity zero is
// deleted from the cart, never persisted.
type CartEntry struct {
	Book     Book `json:"book"`
	Quantity int  `json:"quantity"`
}

// Cart holds one entry per distinct ISBN for a single user. Entry order
// carries no meaning. A cart outlives individual checkout cycles: confirming
// an order resets it to a fresh shopping state.
type Cart struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	State     CartState   `json:"state"`
	Entries   []CartEntry `json:"entries"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func NewCart(id string) *Cart {
	return &Cart{
		ID:        id,
		State:     CartStateShopping,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// Entry returns the line for the given ISBN, or nil.
func (c *Cart) Entry(isbn string) *CartEntry {
	for i := range c.Entries {
		if c.Entries[i].Book.ISBN == isbn {
			return &c.Entries[i]
		}
	}
	return nil
}

// Upsert merges n units into the existing entry for the book, or appends a
// new entry. n must already be validated as positive.
func (c *Cart) Upsert(book Book, n int) {
	if e := c.Entry(book.ISBN); e != nil {
		e.Quantity += n
		return
	}
	c.Entries = append(c.Entries, CartEntry{Book: book, Quantity: n})
}

// Reduce removes up to n units for the ISBN, clamping to the entry quantity,
// and deletes the entry when it reaches zero. Returns the units actually
// removed (zero when no entry exists).
func (c *Cart) Reduce(isbn string, n int) int {
	for i := range c.Entries {
		if c.Entries[i].Book.ISBN != isbn {
			continue
		}
		removed := n
		if removed > c.Entries[i].Quantity {
			removed = c.Entries[i].Quantity
		}
		c.Entries[i].Quantity -= removed
		if c.Entries[i].Quantity == 0 {
			c.Entries = append(c.Entries[:i], c.Entries[i+1:]...)
		}
		return removed
	}
	return 0
}

// TotalQuantity sums all entry quantities.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, e := range c.Entries {
		total += e.Quantity
	}
	return total
}

// BookSet snapshots the distinct books currently in the cart.
func (c *Cart) BookSet() BookSet {
	s := make(BookSet, len(c.Entries))
	for _, e := range c.Entries {
		s.Add(e.Book)
	}
	return s
}

// Reset clears all entries and returns the cart to the shopping state for
// the next cycle.
func (c *Cart) Reset() {
	c.Entries = nil
	c.State = CartStateShopping
	c.UpdatedAt = time.Now()
}
