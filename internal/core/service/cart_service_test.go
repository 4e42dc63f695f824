package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bookrow/storefront/internal/core/domain"
)

var (
	mockingbird = domain.Book{ISBN: "0446310786", Title: "To Kill a Mockingbird", Authors: []string{"Harper Lee"}, Price: 12.99, Publisher: "Grand Central Publishing", Genre: "Classical"}
	kiteRunner  = domain.Book{ISBN: "1573222453", Title: "The Kite Runner", Authors: []string{"Khaled Hosseini"}, Price: 22.00, Publisher: "Riverhead Books", Genre: "Historical fiction"}
	watchman    = domain.Book{ISBN: "978-0-06-240985-0", Title: "Go Set a Watchman", Authors: []string{"Harper Lee"}, Price: 14.99, Publisher: "Harper Collins", Genre: "Historical fiction"}
)

func newCartFixture(stock map[string]int) (*CartService, *fakeInventoryRepo, *fakeCartRepo) {
	repo := newFakeInventoryRepo(stock)
	carts := newFakeCartRepo()
	stockSvc := NewStockService(repo, nil, GuardMutex, zerolog.Nop())
	return NewCartService(carts, stockSvc, zerolog.Nop()), repo, carts
}

func shoppingCart(userID string) *domain.Cart {
	cart := domain.NewCart("cart-" + userID)
	cart.UserID = userID
	return cart
}

func TestAddToCart_NewEntry(t *testing.T) {
	svc, repo, carts := newCartFixture(map[string]int{mockingbird.ISBN: 5})
	cart := shoppingCart("user-1")

	if err := svc.AddToCart(context.Background(), cart, mockingbird, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.quantity(mockingbird.ISBN) != 2 {
		t.Errorf("expected stock 2, got %d", repo.quantity(mockingbird.ISBN))
	}
	if cart.TotalQuantity() != 3 {
		t.Errorf("expected total quantity 3, got %d", cart.TotalQuantity())
	}
	saved, _ := carts.GetCartByUser(context.Background(), "user-1")
	if saved == nil || saved.TotalQuantity() != 3 {
		t.Error("cart not persisted after add")
	}
}

func TestAddToCart_MergesExistingEntry(t *testing.T) {
	svc, _, _ := newCartFixture(map[string]int{mockingbird.ISBN: 5})
	cart := shoppingCart("user-1")

	if err := svc.AddToCart(context.Background(), cart, mockingbird, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.AddToCart(context.Background(), cart, mockingbird, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cart.Entries) != 1 {
		t.Fatalf("expected one entry per distinct book, got %d", len(cart.Entries))
	}
	if cart.Entries[0].Quantity != 3 {
		t.Errorf("expected merged quantity 3, got %d", cart.Entries[0].Quantity)
	}
}

func TestAddToCart_InsufficientStock(t *testing.T) {
	svc, repo, carts := newCartFixture(map[string]int{watchman.ISBN: 2})
	cart := shoppingCart("user-1")

	err := svc.AddToCart(context.Background(), cart, watchman, 3)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if repo.quantity(watchman.ISBN) != 2 {
		t.Errorf("stock changed on failed add: %d", repo.quantity(watchman.ISBN))
	}
	if len(cart.Entries) != 0 {
		t.Error("cart entry created on failed add")
	}
	if saved, _ := carts.GetCartByUser(context.Background(), "user-1"); saved != nil {
		t.Error("cart persisted on failed add")
	}
}

func TestAddToCart_NonPositiveQuantityIsNoop(t *testing.T) {
	svc, repo, _ := newCartFixture(map[string]int{mockingbird.ISBN: 5})
	cart := shoppingCart("user-1")

	if err := svc.AddToCart(context.Background(), cart, mockingbird, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.AddToCart(context.Background(), cart, mockingbird, -2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.quantity(mockingbird.ISBN) != 5 || len(cart.Entries) != 0 {
		t.Error("non-positive add mutated state")
	}
}

func TestAddToCart_SaveFailureRestoresStock(t *testing.T) {
	svc, repo, carts := newCartFixture(map[string]int{mockingbird.ISBN: 5})
	carts.saveErr = errors.New("database down")
	cart := shoppingCart("user-1")

	if err := svc.AddToCart(context.Background(), cart, mockingbird, 3); err == nil {
		t.Fatal("expected error when cart save fails")
	}

	if repo.quantity(mockingbird.ISBN) != 5 {
		t.Errorf("expected stock restored to 5, got %d", repo.quantity(mockingbird.ISBN))
	}
	if len(cart.Entries) != 0 {
		t.Error("cart entry left behind after failed save")
	}
}

func TestRemoveFromCart_SaveFailureRestoresState(t *testing.T) {
	svc, repo, carts := newCartFixture(map[string]int{mockingbird.ISBN: 5})
	cart := shoppingCart("user-1")

	if err := svc.AddToCart(context.Background(), cart, mockingbird, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	carts.saveErr = errors.New("database down")

	if err := svc.RemoveFromCart(context.Background(), cart, mockingbird, 2); err == nil {
		t.Fatal("expected error when cart save fails")
	}

	if repo.quantity(mockingbird.ISBN) != 2 {
		t.Errorf("expected stock unchanged at 2, got %d", repo.quantity(mockingbird.ISBN))
	}
	if cart.TotalQuantity() != 3 {
		t.Errorf("expected cart quantity unchanged at 3, got %d", cart.TotalQuantity())
	}
}

func TestRemoveFromCart_ClampsToEntryQuantity(t *testing.T) {
	svc, repo, _ := newCartFixture(map[string]int{watchman.ISBN: 2})
	cart := shoppingCart("user-1")

	if err := svc.AddToCart(context.Background(), cart, watchman, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.RemoveFromCart(context.Background(), cart, watchman, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.quantity(watchman.ISBN) != 2 {
		t.Errorf("expected stock restored to 2, got %d", repo.quantity(watchman.ISBN))
	}
	if len(cart.Entries) != 0 {
		t.Error("zero-quantity entry retained")
	}
}

func TestRemoveFromCart_PartialKeepsEntry(t *testing.T) {
	svc, repo, _ := newCartFixture(map[string]int{mockingbird.ISBN: 5})
	cart := shoppingCart("user-1")

	if err := svc.AddToCart(context.Background(), cart, mockingbird, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.RemoveFromCart(context.Background(), cart, mockingbird, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.quantity(mockingbird.ISBN) != 3 {
		t.Errorf("expected stock 3, got %d", repo.quantity(mockingbird.ISBN))
	}
	if cart.TotalQuantity() != 2 {
		t.Errorf("expected total quantity 2, got %d", cart.TotalQuantity())
	}
}

func TestRemoveFromCart_MissingEntryIsNoop(t *testing.T) {
	svc, repo, _ := newCartFixture(map[string]int{mockingbird.ISBN: 5})
	cart := shoppingCart("user-1")

	if err := svc.RemoveFromCart(context.Background(), cart, mockingbird, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.quantity(mockingbird.ISBN) != 5 {
		t.Errorf("stock changed on no-op remove: %d", repo.quantity(mockingbird.ISBN))
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	svc, repo, _ := newCartFixture(map[string]int{kiteRunner.ISBN: 10})
	cart := shoppingCart("user-1")

	if err := svc.AddToCart(context.Background(), cart, kiteRunner, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.RemoveFromCart(context.Background(), cart, kiteRunner, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.quantity(kiteRunner.ISBN) != 10 {
		t.Errorf("round trip did not restore stock: %d", repo.quantity(kiteRunner.ISBN))
	}
	if len(cart.Entries) != 0 {
		t.Error("round trip did not remove the created entry")
	}
}

func TestCartFor(t *testing.T) {
	svc, _, carts := newCartFixture(nil)

	if _, err := svc.CartFor(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	cart := shoppingCart("user-1")
	if err := carts.SaveCart(context.Background(), cart); err != nil {
		t.Fatalf("save cart: %v", err)
	}
	got, err := svc.CartFor(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != cart.ID {
		t.Errorf("expected cart %s, got %s", cart.ID, got.ID)
	}
}
