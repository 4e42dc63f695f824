// Command stress hammers AddToCart with concurrent shoppers competing for
// the same title and verifies the stock guard never oversells.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookrow/storefront/internal/adapter/storage"
	"github.com/bookrow/storefront/internal/core/domain"
	"github.com/bookrow/storefront/internal/core/service"
)

const isbn = "0446310786"

func main() {
	guard := flag.String("guard", "mutex", "stock guard strategy: mutex or optimistic")
	stock := flag.Int("stock", 20, "initial stock")
	requests := flag.Int("requests", 50, "concurrent shoppers, one copy each")
	flag.Parse()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	logger := zerolog.Nop()

	book := domain.Book{ISBN: isbn, Title: "To Kill a Mockingbird", Price: 12.99}
	if err := store.SaveBook(ctx, book); err != nil {
		log.Fatalf("failed to save book: %v", err)
	}
	if err := store.SaveInventory(ctx, domain.InventoryItem{ISBN: isbn, Quantity: *stock}); err != nil {
		log.Fatalf("failed to save inventory: %v", err)
	}

	stockSvc := service.NewStockService(store, nil, service.GuardStrategy(*guard), logger)
	cartSvc := service.NewCartService(store, stockSvc, logger)

	carts := make([]*domain.Cart, *requests)
	for i := range carts {
		cart := domain.NewCart(fmt.Sprintf("cart-%d", i))
		cart.UserID = fmt.Sprintf("user-%d", i)
		if err := store.SaveCart(ctx, cart); err != nil {
			log.Fatalf("failed to save cart: %v", err)
		}
		carts[i] = cart
	}

	var successCount, failCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for _, cart := range carts {
		wg.Add(1)
		go func(cart *domain.Cart) {
			defer wg.Done()
			if err := cartSvc.AddToCart(ctx, cart, book, 1); err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(cart)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()
	remaining, err := stockSvc.Available(ctx, isbn)
	if err != nil {
		log.Fatalf("failed to read stock: %v", err)
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Guard:            %s\n", *guard)
	fmt.Printf("Initial Stock:    %d\n", *stock)
	fmt.Printf("Total Requests:   %d\n", *requests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Remaining Stock:  %d\n", remaining)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if int(success)+remaining == *stock {
		fmt.Println("PASS: every sold copy came out of stock exactly once")
	} else {
		fmt.Printf("FAIL: %d sold + %d remaining != %d initial\n", success, remaining, *stock)
	}
}
