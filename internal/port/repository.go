package port

import (
	"context"
	"errors"

	"github.com/bookrow/storefront/internal/core/domain"
)

// ErrVersionConflict is returned by InventoryRepository.UpdateInventory when
// the stored version no longer matches the one being written.
var ErrVersionConflict = errors.New("inventory version conflict")

// Lookup methods return (nil, nil) when the identity does not exist; callers
// translate that into their own not-found error.

type BookRepository interface {
	SaveBook(ctx context.Context, book domain.Book) error
	GetBook(ctx context.Context, isbn string) (*domain.Book, error)
	ListBooks(ctx context.Context) ([]domain.Book, error)
}

type InventoryRepository interface {
	// SaveInventory inserts or replaces an item unconditionally (seeding,
	// restock administration).
	SaveInventory(ctx context.Context, item domain.InventoryItem) error

	GetInventory(ctx context.Context, isbn string) (*domain.InventoryItem, error)
	ListInventory(ctx context.Context) ([]domain.InventoryItem, error)

	// UpdateInventory writes the item only if the stored version matches
	// item.Version, bumping the version on success.
	UpdateInventory(ctx context.Context, item domain.InventoryItem) error
}

type CartRepository interface {
	SaveCart(ctx context.Context, cart *domain.Cart) error
	GetCart(ctx context.Context, id string) (*domain.Cart, error)
	GetCartByUser(ctx context.Context, userID string) (*domain.Cart, error)
}

// UserRepository doubles as the user-enumeration collaborator for the
// recommender; ListUsers must return a stable order across calls.
type UserRepository interface {
	SaveUser(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
}
