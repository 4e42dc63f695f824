package domain

import "time"

// User is a storefront account. The cart is created before the user and
// attached at registration; authentication is not this system's concern.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CartID    string    `json:"cart_id"`
	CreatedAt time.Time `json:"created_at"`
}
