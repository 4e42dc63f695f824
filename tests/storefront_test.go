package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bookrow/storefront/internal/adapter/storage"
	"github.com/bookrow/storefront/internal/core/domain"
	"github.com/bookrow/storefront/internal/core/service"
	"github.com/bookrow/storefront/internal/seed"
)

type testEnv struct {
	store     *storage.MemoryStore
	stock     *service.StockService
	carts     *service.CartService
	checkout  *service.CheckoutService
	recommend *service.RecommendService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemoryStore()
	logger := zerolog.Nop()

	if err := seed.Run(ctx, store, store, store, store, logger); err != nil {
		t.Fatalf("seeding failed: %v", err)
	}

	stock := service.NewStockService(store, nil, service.GuardMutex, logger)
	return &testEnv{
		store:     store,
		stock:     stock,
		carts:     service.NewCartService(store, stock, logger),
		checkout:  service.NewCheckoutService(store, store, nil, nil, logger),
		recommend: service.NewRecommendService(store, store, logger),
	}
}

func (env *testEnv) mustBook(t *testing.T, ctx context.Context, isbn string) domain.Book {
	t.Helper()
	book, err := env.store.GetBook(ctx, isbn)
	if err != nil || book == nil {
		t.Fatalf("seeded book %s missing: %v", isbn, err)
	}
	return *book
}

func (env *testEnv) mustCart(t *testing.T, ctx context.Context, userID string) *domain.Cart {
	t.Helper()
	cart, err := env.carts.CartFor(ctx, userID)
	if err != nil {
		t.Fatalf("cart for %s: %v", userID, err)
	}
	return cart
}

// TestShoppingCycle walks a full storefront visit: browse stock, fill the
// cart, change your mind about one copy, and check out.
func TestShoppingCycle(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	mockingbird := env.mustBook(t, ctx, "0446310786")
	cart := env.mustCart(t, ctx, "user-1")

	// Seeded with 5 copies.
	if qty, _ := env.stock.Available(ctx, mockingbird.ISBN); qty != 5 {
		t.Fatalf("expected 5 copies seeded, got %d", qty)
	}

	// Add three copies: cart 3, stock 2.
	if err := env.carts.AddToCart(ctx, cart, mockingbird, 3); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	if qty, _ := env.stock.Available(ctx, mockingbird.ISBN); qty != 2 {
		t.Errorf("expected stock 2 after adding 3, got %d", qty)
	}
	if got := cart.TotalQuantity(); got != 3 {
		t.Errorf("expected 3 copies in cart, got %d", got)
	}

	// A sixth copy cannot be had.
	if err := env.carts.AddToCart(ctx, cart, mockingbird, 3); !errors.Is(err, service.ErrInsufficientStock) {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}

	// Put one back: cart 2, stock 3.
	if err := env.carts.RemoveFromCart(ctx, cart, mockingbird, 1); err != nil {
		t.Fatalf("RemoveFromCart failed: %v", err)
	}
	if qty, _ := env.stock.Available(ctx, mockingbird.ISBN); qty != 3 {
		t.Errorf("expected stock 3 after returning 1, got %d", qty)
	}

	if total := env.checkout.ComputeTotal(cart); total != 25.98 {
		t.Errorf("expected total 25.98, got %v", total)
	}

	order, err := env.checkout.Confirm(ctx, cart, "")
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if order.Confirmation == "" {
		t.Error("expected a confirmation token")
	}
	if order.Total != 25.98 {
		t.Errorf("expected order total 25.98, got %v", order.Total)
	}

	// The cart is fresh again; checkout already owned the stock, so the
	// count does not move.
	if len(cart.Entries) != 0 {
		t.Errorf("expected empty cart after confirm, got %d entries", len(cart.Entries))
	}
	if qty, _ := env.stock.Available(ctx, mockingbird.ISBN); qty != 3 {
		t.Errorf("expected stock 3 after confirm, got %d", qty)
	}

	// Nothing left to buy twice.
	if _, err := env.checkout.Confirm(ctx, cart, ""); !errors.Is(err, service.ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart on repeat confirm, got %v", err)
	}

	// The order survived in the store.
	orders, err := env.store.ListOrders(ctx, "user-1")
	if err != nil || len(orders) != 1 {
		t.Fatalf("expected 1 persisted order, got %d (%v)", len(orders), err)
	}
}

// TestRecommendationFlow builds overlapping carts across the seeded users
// and checks the closest neighbor's books surface first.
func TestRecommendationFlow(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	mockingbird := env.mustBook(t, ctx, "0446310786")
	kiteRunner := env.mustBook(t, ctx, "1573222453")
	watchman := env.mustBook(t, ctx, "978-0-06-240985-0")

	// user-1 owns {Mockingbird, Kite Runner}.
	target := env.mustCart(t, ctx, "user-1")
	for _, b := range []domain.Book{mockingbird, kiteRunner} {
		if err := env.carts.AddToCart(ctx, target, b, 1); err != nil {
			t.Fatalf("AddToCart failed: %v", err)
		}
	}

	// admin-owner shares Kite Runner (distance 1/2), user-2 shares only
	// Mockingbird alongside Watchman (distance 2/3).
	admin := env.mustCart(t, ctx, "admin-owner")
	if err := env.carts.AddToCart(ctx, admin, kiteRunner, 1); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	other := env.mustCart(t, ctx, "user-2")
	for _, b := range []domain.Book{mockingbird, watchman} {
		if err := env.carts.AddToCart(ctx, other, b, 1); err != nil {
			t.Fatalf("AddToCart failed: %v", err)
		}
	}

	books, err := env.recommend.Recommend(ctx, "user-1")
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	// The only title user-1 does not already own is Watchman.
	if len(books) != 1 || books[0].ISBN != watchman.ISBN {
		t.Fatalf("expected [%s], got %+v", watchman.ISBN, books)
	}

	// An unknown shopper gets no recommendations, not an error.
	books, err = env.recommend.Recommend(ctx, "stranger")
	if err != nil {
		t.Fatalf("Recommend for unknown user failed: %v", err)
	}
	if len(books) != 0 {
		t.Errorf("expected no recommendations for unknown user, got %+v", books)
	}
}
