package storage

import (
	"context"
	"sync"
	"time"

	"github.com/bookrow/storefront/internal/core/domain"
	"github.com/bookrow/storefront/internal/port"
)

// MemoryStore implements every repository port in process memory. It backs
// the standalone server mode and the end-to-end tests. Enumeration order is
// insertion order, which keeps the recommender deterministic.
type MemoryStore struct {
	mu         sync.RWMutex
	books      map[string]domain.Book
	bookOrder  []string
	inventory  map[string]domain.InventoryItem
	carts      map[string]*domain.Cart
	cartByUser map[string]string
	users      map[string]domain.User
	userOrder  []string
	orders     map[string]domain.Order
	orderOrder []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:      make(map[string]domain.Book),
		inventory:  make(map[string]domain.InventoryItem),
		carts:      make(map[string]*domain.Cart),
		cartByUser: make(map[string]string),
		users:      make(map[string]domain.User),
		orders:     make(map[string]domain.Order),
	}
}

func (m *MemoryStore) SaveBook(ctx context.Context, book domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[book.ISBN]; !ok {
		m.bookOrder = append(m.bookOrder, book.ISBN)
	}
	m.books[book.ISBN] = book
	return nil
}

func (m *MemoryStore) GetBook(ctx context.Context, isbn string) (*domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	book, ok := m.books[isbn]
	if !ok {
		return nil, nil
	}
	return &book, nil
}

func (m *MemoryStore) ListBooks(ctx context.Context) ([]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Book, 0, len(m.bookOrder))
	for _, isbn := range m.bookOrder {
		out = append(out, m.books[isbn])
	}
	return out, nil
}

func (m *MemoryStore) SaveInventory(ctx context.Context, item domain.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.UpdatedAt = time.Now()
	m.inventory[item.ISBN] = item
	return nil
}

func (m *MemoryStore) GetInventory(ctx context.Context, isbn string) (*domain.InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.inventory[isbn]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m *MemoryStore) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.InventoryItem, 0, len(m.bookOrder))
	for _, isbn := range m.bookOrder {
		if item, ok := m.inventory[isbn]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *MemoryStore) UpdateInventory(ctx context.Context, item domain.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.inventory[item.ISBN]
	if !ok || stored.Version != item.Version {
		return port.ErrVersionConflict
	}
	item.Version++
	item.UpdatedAt = time.Now()
	m.inventory[item.ISBN] = item
	return nil
}

func copyCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Entries = append([]domain.CartEntry(nil), c.Entries...)
	return &cp
}

func (m *MemoryStore) SaveCart(ctx context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := copyCart(cart)
	cp.UpdatedAt = time.Now()
	m.carts[cp.ID] = cp
	if cp.UserID != "" {
		m.cartByUser[cp.UserID] = cp.ID
	}
	return nil
}

func (m *MemoryStore) GetCart(ctx context.Context, id string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cart, ok := m.carts[id]
	if !ok {
		return nil, nil
	}
	return copyCart(cart), nil
}

func (m *MemoryStore) GetCartByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.cartByUser[userID]
	if !ok {
		return nil, nil
	}
	return copyCart(m.carts[id]), nil
}

func (m *MemoryStore) SaveUser(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		m.userOrder = append(m.userOrder, user.ID)
	}
	m.users[user.ID] = user
	if user.CartID != "" {
		if cart, ok := m.carts[user.CartID]; ok && cart.UserID == "" {
			cart.UserID = user.ID
		}
		m.cartByUser[user.ID] = user.CartID
	}
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (m *MemoryStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		out = append(out, m.users[id])
	}
	return out, nil
}

func (m *MemoryStore) CreateOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		m.orderOrder = append(m.orderOrder, order.ID)
	}
	order.Lines = append([]domain.OrderLine(nil), order.Lines...)
	m.orders[order.ID] = order
	return nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	order.Lines = append([]domain.OrderLine(nil), order.Lines...)
	return &order, nil
}

func (m *MemoryStore) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Order
	for _, id := range m.orderOrder {
		order := m.orders[id]
		if order.UserID == userID {
			order.Lines = append([]domain.OrderLine(nil), order.Lines...)
			out = append(out, order)
		}
	}
	return out, nil
}
