// Package seed loads the demo catalog and users so a fresh server has
// something to sell.
package seed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bookrow/storefront/internal/core/domain"
	"github.com/bookrow/storefront/internal/port"
)

type entry struct {
	book  domain.Book
	stock int
}

var catalog = []entry{
	{
		book: domain.Book{
			ISBN:          "0446310786",
			Title:         "To Kill a Mockingbird",
			Authors:       []string{"Harper Lee"},
			Price:         12.99,
			PublishedDate: "1960-07-11",
			CoverURL:      "https://m.media-amazon.com/images/W/AVIF_800250-T2/images/I/71FxgtFKcQL._SL1500_.jpg",
			Publisher:     "Grand Central Publishing",
			Genre:         "Classical",
			Description:   "Compassionate, dramatic, and deeply moving, To Kill A Mockingbird takes readers to the roots of human behavior - to innocence and experience, kindness and cruelty, love and hatred, humor and pathos.",
		},
		stock: 5,
	},
	{
		book: domain.Book{
			ISBN:          "1573222453",
			Title:         "The Kite Runner",
			Authors:       []string{"Khaled Hosseini"},
			Price:         22.00,
			PublishedDate: "2003-05-29",
			CoverURL:      "https://upload.wikimedia.org/wikipedia/en/6/62/Kite_runner.jpg",
			Publisher:     "Riverhead Books",
			Genre:         "Historical fiction",
			Description:   "The Kite Runner tells the story of Amir, a young boy from the Wazir Akbar Khan district of Kabul",
		},
		stock: 10,
	},
	{
		book: domain.Book{
			ISBN:          "978-0-06-240985-0",
			Title:         "Go Set a Watchman",
			Authors:       []string{"Harper Lee"},
			Price:         14.99,
			PublishedDate: "2015-07-14",
			CoverURL:      "https://m.media-amazon.com/images/I/61lFywIUwzL.jpg",
			Publisher:     "Harper Collins",
			Genre:         "Historical fiction",
			Description:   "Twenty-six-year-old Jean Louise Finch returns home to Maycomb, Alabama from New York City to visit her aging father, Atticus.",
		},
		stock: 2,
	},
}

var users = []domain.User{
	{ID: "admin-owner", Name: "AdminOwner", CartID: "cart-admin-owner"},
	{ID: "user-1", Name: "User1", CartID: "cart-user-1"},
	{ID: "user-2", Name: "User2", CartID: "cart-user-2"},
}

// Run seeds books, inventory, users, and their carts. Carts are saved
// before the users that own them so user creation can attach them.
// Re-running on an already seeded store overwrites books and resets stock.
func Run(
	ctx context.Context,
	books port.BookRepository,
	inventory port.InventoryRepository,
	userRepo port.UserRepository,
	carts port.CartRepository,
	logger zerolog.Logger,
) error {
	for _, e := range catalog {
		if err := books.SaveBook(ctx, e.book); err != nil {
			return fmt.Errorf("seed book %s: %w", e.book.ISBN, err)
		}
		if err := inventory.SaveInventory(ctx, domain.InventoryItem{ISBN: e.book.ISBN, Quantity: e.stock}); err != nil {
			return fmt.Errorf("seed inventory %s: %w", e.book.ISBN, err)
		}
	}

	for _, u := range users {
		if err := carts.SaveCart(ctx, domain.NewCart(u.CartID)); err != nil {
			return fmt.Errorf("seed cart %s: %w", u.CartID, err)
		}
		if err := userRepo.SaveUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	logger.Info().Int("books", len(catalog)).Int("users", len(users)).Msg("demo data seeded")
	return nil
}
