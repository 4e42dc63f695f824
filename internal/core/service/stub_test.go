package service

import (
	"context"
	"sort"
	"sync"

	"github.com/bookrow/storefront/internal/core/domain"
	"github.com/bookrow/storefront/internal/port"
)

// In-memory fakes shared across the service tests.

type fakeInventoryRepo struct {
	mu        sync.Mutex
	items     map[string]domain.InventoryItem
	conflicts int   // fail the next n UpdateInventory calls with a version conflict
	updateErr error // fail every UpdateInventory with this error
}

func newFakeInventoryRepo(stock map[string]int) *fakeInventoryRepo {
	items := make(map[string]domain.InventoryItem, len(stock))
	for isbn, qty := range stock {
		items[isbn] = domain.InventoryItem{ISBN: isbn, Quantity: qty}
	}
	return &fakeInventoryRepo{items: items}
}

func (f *fakeInventoryRepo) SaveInventory(ctx context.Context, item domain.InventoryItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.ISBN] = item
	return nil
}

func (f *fakeInventoryRepo) GetInventory(ctx context.Context, isbn string) (*domain.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[isbn]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (f *fakeInventoryRepo) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	isbns := make([]string, 0, len(f.items))
	for isbn := range f.items {
		isbns = append(isbns, isbn)
	}
	sort.Strings(isbns)
	items := make([]domain.InventoryItem, 0, len(isbns))
	for _, isbn := range isbns {
		items = append(items, f.items[isbn])
	}
	return items, nil
}

func (f *fakeInventoryRepo) UpdateInventory(ctx context.Context, item domain.InventoryItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.conflicts > 0 {
		f.conflicts--
		return port.ErrVersionConflict
	}
	stored, ok := f.items[item.ISBN]
	if !ok || stored.Version != item.Version {
		return port.ErrVersionConflict
	}
	item.Version++
	f.items[item.ISBN] = item
	return nil
}

func (f *fakeInventoryRepo) quantity(isbn string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[isbn].Quantity
}

type fakeCartRepo struct {
	mu      sync.Mutex
	byUser  map[string]*domain.Cart
	saveErr error
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{byUser: make(map[string]*domain.Cart)}
}

func copyCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Entries = append([]domain.CartEntry(nil), c.Entries...)
	return &cp
}

func (f *fakeCartRepo) SaveCart(ctx context.Context, cart *domain.Cart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.byUser[cart.UserID] = copyCart(cart)
	return nil
}

func (f *fakeCartRepo) GetCart(ctx context.Context, id string) (*domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byUser {
		if c.ID == id {
			return copyCart(c), nil
		}
	}
	return nil, nil
}

func (f *fakeCartRepo) GetCartByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byUser[userID]
	if !ok {
		return nil, nil
	}
	return copyCart(c), nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users []domain.User
}

func (f *fakeUserRepo) SaveUser(ctx context.Context, user domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.users {
		if f.users[i].ID == user.ID {
			f.users[i] = user
			return nil
		}
	}
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUserRepo) GetUser(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.User(nil), f.users...), nil
}

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    []domain.Order
	createErr error
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, order domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeOrderRepo) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			order := o
			return &order, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeStockCache struct {
	mu    sync.Mutex
	stock map[string]int
	idem  map[string]bool
}

func newFakeStockCache() *fakeStockCache {
	return &fakeStockCache{stock: make(map[string]int), idem: make(map[string]bool)}
}

func (f *fakeStockCache) Reserve(ctx context.Context, isbn string, quantity int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	qty, ok := f.stock[isbn]
	if !ok || qty < quantity {
		return false, nil
	}
	f.stock[isbn] = qty - quantity
	return true, nil
}

func (f *fakeStockCache) Release(ctx context.Context, isbn string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock[isbn] += quantity
	return nil
}

func (f *fakeStockCache) SetStock(ctx context.Context, isbn string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock[isbn] = quantity
	return nil
}

func (f *fakeStockCache) GetStock(ctx context.Context, isbn string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	qty, ok := f.stock[isbn]
	return qty, ok, nil
}

func (f *fakeStockCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.idem[key] {
		return false, nil
	}
	f.idem[key] = true
	return true, nil
}

func (f *fakeStockCache) ReleaseIdempotency(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.idem, key)
	return nil
}

type fakePublisher struct {
	mu         sync.Mutex
	published  []domain.Order
	publishErr error
}

func (f *fakePublisher) PublishOrderConfirmed(ctx context.Context, order domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, order)
	return nil
}
