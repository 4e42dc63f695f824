package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bookrow/storefront/internal/port"
)

// GuardStrategy selects how concurrent stock mutations against the same ISBN
// are serialized.
type GuardStrategy string

const (
	// GuardMutex serializes mutations through a per-ISBN mutex.
	GuardMutex GuardStrategy = "mutex"
	// GuardOptimistic relies on version-checked repository updates and
	// retries on conflict.
	GuardOptimistic GuardStrategy = "optimistic"
	// GuardCache reserves stock atomically in the cache first and writes
	// through to the repository, rolling the reservation back on failure.
	GuardCache GuardStrategy = "cache"
)

const defaultMaxRetries = 5

// StockService owns the available-quantity counter per catalog book. All
// reads and mutations of stock go through here.
type StockService struct {
	repo       port.InventoryRepository
	cache      port.StockCache // optional, required for GuardCache
	guard      GuardStrategy
	maxRetries int
	log        zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStockService builds the service with the given guard. An unknown
// guard, or GuardCache without a cache, falls back to GuardMutex.
func NewStockService(repo port.InventoryRepository, cache port.StockCache, guard GuardStrategy, logger zerolog.Logger) *StockService {
	log := logger.With().Str("component", "stock").Logger()
	switch guard {
	case GuardMutex, GuardOptimistic:
	case GuardCache:
		if cache == nil {
			log.Warn().Msg("cache guard requested without a stock cache, using mutex guard")
			guard = GuardMutex
		}
	default:
		log.Warn().Str("guard", string(guard)).Msg("unknown stock guard, using mutex guard")
		guard = GuardMutex
	}
	return &StockService{
		repo:       repo,
		cache:      cache,
		guard:      guard,
		maxRetries: defaultMaxRetries,
		log:        log,
		locks:      make(map[string]*sync.Mutex),
	}
}

// SetMaxRetries bounds how often the optimistic guard retries on a
// version conflict before giving up. Values below 1 are ignored.
func (s *StockService) SetMaxRetries(n int) {
	if n >= 1 {
		s.maxRetries = n
	}
}

// Available reports the current purchasable quantity for the ISBN.
func (s *StockService) Available(ctx context.Context, isbn string) (int, error) {
	if s.cache != nil {
		if qty, ok, err := s.cache.GetStock(ctx, isbn); err == nil && ok {
			return qty, nil
		}
	}
	item, err := s.repo.GetInventory(ctx, isbn)
	if err != nil {
		return 0, fmt.Errorf("load inventory: %w", err)
	}
	if item == nil {
		return 0, ErrNotFound
	}
	return item.Quantity, nil
}

// Decrement reserves n units, failing with ErrInsufficientStock when n
// exceeds the available quantity. Returns the new quantity.
func (s *StockService) Decrement(ctx context.Context, isbn string, n int) (int, error) {
	if n <= 0 {
		return s.Available(ctx, isbn)
	}

	switch s.guard {
	case GuardMutex:
		unlock := s.lock(isbn)
		defer unlock()
		return s.apply(ctx, isbn, -n)

	case GuardCache:
		ok, err := s.cache.Reserve(ctx, isbn, n)
		if err != nil {
			return 0, fmt.Errorf("reserve stock: %w", err)
		}
		if !ok {
			return 0, ErrInsufficientStock
		}
		qty, err := s.apply(ctx, isbn, -n)
		if err != nil {
			if rbErr := s.cache.Release(ctx, isbn, n); rbErr != nil {
				s.log.Error().Err(rbErr).Str("isbn", isbn).Int("quantity", n).
					Msg("stock reservation rollback failed")
			}
			return 0, err
		}
		return qty, nil

	default: // GuardOptimistic
		return s.apply(ctx, isbn, -n)
	}
}

// Increment restocks n units, typically on remove-from-cart. No upper bound
// is enforced. Returns the new quantity.
func (s *StockService) Increment(ctx context.Context, isbn string, n int) (int, error) {
	if n <= 0 {
		return s.Available(ctx, isbn)
	}
	if s.guard == GuardMutex {
		unlock := s.lock(isbn)
		defer unlock()
	}
	if s.guard == GuardCache {
		if err := s.cache.Release(ctx, isbn, n); err != nil {
			return 0, fmt.Errorf("release stock: %w", err)
		}
	}
	return s.apply(ctx, isbn, n)
}

// WarmCache mirrors every inventory quantity into the stock cache. Called at
// startup so cache reads and reservations see the persisted truth.
func (s *StockService) WarmCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	items, err := s.repo.ListInventory(ctx)
	if err != nil {
		return fmt.Errorf("list inventory: %w", err)
	}
	for _, item := range items {
		if err := s.cache.SetStock(ctx, item.ISBN, item.Quantity); err != nil {
			return fmt.Errorf("warm stock %s: %w", item.ISBN, err)
		}
	}
	s.log.Info().Int("items", len(items)).Msg("stock cache warmed")
	return nil
}

// apply performs a read-check-write of delta against the repository,
// retrying on version conflicts. The mutex guard makes conflicts impossible
// within this process; the retry loop covers the optimistic and cache paths.
func (s *StockService) apply(ctx context.Context, isbn string, delta int) (int, error) {
	var lastErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		item, err := s.repo.GetInventory(ctx, isbn)
		if err != nil {
			return 0, fmt.Errorf("load inventory: %w", err)
		}
		if item == nil {
			return 0, ErrNotFound
		}

		next := item.Quantity + delta
		if next < 0 {
			return 0, ErrInsufficientStock
		}

		item.Quantity = next
		if err := s.repo.UpdateInventory(ctx, *item); err != nil {
			if errors.Is(err, port.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return 0, fmt.Errorf("update inventory: %w", err)
		}

		s.mirror(ctx, isbn, next)
		return next, nil
	}
	return 0, fmt.Errorf("update inventory after %d attempts: %w", s.maxRetries, lastErr)
}

// mirror keeps the cache in step with the repository for read paths. Under
// GuardCache the reservation itself maintains the counter, and overwriting it
// here could undo a concurrent reservation, so the cache is left alone.
func (s *StockService) mirror(ctx context.Context, isbn string, qty int) {
	if s.cache == nil || s.guard == GuardCache {
		return
	}
	if err := s.cache.SetStock(ctx, isbn, qty); err != nil {
		s.log.Warn().Err(err).Str("isbn", isbn).Msg("stock cache mirror failed")
	}
}

func (s *StockService) lock(isbn string) func() {
	s.mu.Lock()
	m, ok := s.locks[isbn]
	if !ok {
		m = &sync.Mutex{}
		s.locks[isbn] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}
