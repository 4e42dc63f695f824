package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bookrow/storefront/internal/core/domain"
	"github.com/bookrow/storefront/internal/port"
)

// CartService mutates a user's cart while keeping aggregate stock
// consistent: units live either in inventory or in a cart, never both.
type CartService struct {
	carts port.CartRepository
	stock *StockService
	log   zerolog.Logger
}

func NewCartService(carts port.CartRepository, stock *StockService, logger zerolog.Logger) *CartService {
	return &CartService{
		carts: carts,
		stock: stock,
		log:   logger.With().Str("component", "cart").Logger(),
	}
}

// CartFor loads the cart owned by the user.
func (s *CartService) CartFor(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.GetCartByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart == nil {
		return nil, ErrNotFound
	}
	return cart, nil
}

// AddToCart reserves n units of the book from stock and merges them into the
// cart. When the reservation fails the cart is left untouched; when saving
// the cart fails the reservation is returned to stock.
func (s *CartService) AddToCart(ctx context.Context, cart *domain.Cart, book domain.Book, n int) error {
	if n <= 0 {
		return nil
	}

	if _, err := s.stock.Decrement(ctx, book.ISBN, n); err != nil {
		return err
	}

	cart.Upsert(book, n)
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		cart.Reduce(book.ISBN, n)
		if _, rbErr := s.stock.Increment(ctx, book.ISBN, n); rbErr != nil {
			s.log.Error().Err(rbErr).Str("isbn", book.ISBN).Int("quantity", n).
				Msg("stock rollback failed after cart save error")
		}
		return fmt.Errorf("save cart: %w", err)
	}

	s.log.Debug().Str("user_id", cart.UserID).Str("isbn", book.ISBN).
		Int("quantity", n).Int("total_in_cart", cart.TotalQuantity()).
		Msg("added to cart")
	return nil
}

// RemoveFromCart returns up to n units of the book from the cart to stock,
// clamping to the quantity actually held. Removing a book that is not in the
// cart is a no-op.
func (s *CartService) RemoveFromCart(ctx context.Context, cart *domain.Cart, book domain.Book, n int) error {
	if n <= 0 {
		return nil
	}

	entry := cart.Entry(book.ISBN)
	if entry == nil {
		return nil
	}

	removing := n
	if removing > entry.Quantity {
		removing = entry.Quantity
	}

	if _, err := s.stock.Increment(ctx, book.ISBN, removing); err != nil {
		return err
	}

	cart.Reduce(book.ISBN, removing)
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		cart.Upsert(book, removing)
		if _, rbErr := s.stock.Decrement(ctx, book.ISBN, removing); rbErr != nil {
			s.log.Error().Err(rbErr).Str("isbn", book.ISBN).Int("quantity", removing).
				Msg("stock rollback failed after cart save error")
		}
		return fmt.Errorf("save cart: %w", err)
	}

	s.log.Debug().Str("user_id", cart.UserID).Str("isbn", book.ISBN).
		Int("quantity", removing).Int("total_in_cart", cart.TotalQuantity()).
		Msg("removed from cart")
	return nil
}
