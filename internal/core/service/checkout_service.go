package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bookrow/storefront/internal/core/domain"
	"github.com/bookrow/storefront/internal/port"
)

// CheckoutService finalizes a shopping cart into a confirmed order. The
// shopping/confirmed transition is one-shot per cycle: after a successful
// confirm the cart is a fresh empty cart, so repeating the call cannot
// double-charge or touch stock again.
type CheckoutService struct {
	carts  port.CartRepository
	orders port.OrderRepository
	cache  port.StockCache     // optional, guards duplicate confirm requests
	events port.EventPublisher // optional
	log    zerolog.Logger
}

func NewCheckoutService(carts port.CartRepository, orders port.OrderRepository, cache port.StockCache, events port.EventPublisher, logger zerolog.Logger) *CheckoutService {
	return &CheckoutService{
		carts:  carts,
		orders: orders,
		cache:  cache,
		events: events,
		log:    logger.With().Str("component", "checkout").Logger(),
	}
}

// ComputeTotal sums quantity times price over all entries, rounded half-up
// at the cents boundary. Pure; entry order does not affect the result.
func (s *CheckoutService) ComputeTotal(cart *domain.Cart) float64 {
	var total float64
	for _, e := range cart.Entries {
		total += float64(e.Quantity) * e.Book.Price
	}
	return math.Round(total*100) / 100
}

// Confirm transitions the cart from shopping to confirmed, persists the
// resulting order, and resets the cart for the next cycle. Stock was already
// decremented when entries were added, so no inventory mutation happens
// here. Confirming an empty cart fails with ErrEmptyCart. A non-empty
// requestID is checked against the idempotency cache when one is configured.
func (s *CheckoutService) Confirm(ctx context.Context, cart *domain.Cart, requestID string) (*domain.Order, error) {
	if len(cart.Entries) == 0 {
		return nil, ErrEmptyCart
	}

	idempotencyKey := ""
	if requestID != "" && s.cache != nil {
		idempotencyKey = "checkout:" + cart.ID + ":" + requestID
		ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency check: %w", err)
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
	}

	cart.State = domain.CartStateConfirmed

	order := domain.Order{
		ID:           uuid.NewString(),
		UserID:       cart.UserID,
		Confirmation: uuid.NewString(),
		Total:        s.ComputeTotal(cart),
		Status:       domain.OrderStatusConfirmed,
		CreatedAt:    time.Now(),
	}
	for _, e := range cart.Entries {
		order.Lines = append(order.Lines, domain.OrderLine{
			ISBN:      e.Book.ISBN,
			Title:     e.Book.Title,
			Quantity:  e.Quantity,
			UnitPrice: e.Book.Price,
		})
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		cart.State = domain.CartStateShopping
		// Free the requestID so the client may retry the transient failure.
		if idempotencyKey != "" {
			if rbErr := s.cache.ReleaseIdempotency(ctx, idempotencyKey); rbErr != nil {
				s.log.Error().Err(rbErr).Str("request_id", requestID).
					Msg("idempotency key release failed after order persist error")
			}
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	cart.Reset()
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishOrderConfirmed(ctx, order); err != nil {
			s.log.Warn().Err(err).Str("order_id", order.ID).
				Msg("order confirmed event publish failed")
		}
	}

	s.log.Info().Str("user_id", order.UserID).Str("order_id", order.ID).
		Float64("total", order.Total).Msg("order confirmed")
	return &order, nil
}
