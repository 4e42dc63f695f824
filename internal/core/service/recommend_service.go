package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/bookrow/storefront/internal/core/domain"
	"github.com/bookrow/storefront/internal/port"
)

// Recommender produces book suggestions for a user. Isolated behind an
// interface so an indexed or approximate strategy can replace the exhaustive
// scan without changing callers.
type Recommender interface {
	Recommend(ctx context.Context, userID string) ([]domain.Book, error)
}

// JaccardDistance measures dissimilarity between two book sets as
// 1 - |intersection| / |union|. Two empty sets are maximally distant (1),
// which also avoids dividing by zero.
func JaccardDistance(a, b domain.BookSet) float64 {
	intersection := 0
	for isbn := range a {
		if b.Contains(isbn) {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 1
	}
	return 1 - float64(intersection)/float64(union)
}

// RecommendService suggests books by nearest-neighbor similarity over all
// users' cart book sets.
type RecommendService struct {
	users port.UserRepository
	carts port.CartRepository
	log   zerolog.Logger
}

func NewRecommendService(users port.UserRepository, carts port.CartRepository, logger zerolog.Logger) *RecommendService {
	return &RecommendService{
		users: users,
		carts: carts,
		log:   logger.With().Str("component", "recommend").Logger(),
	}
}

// BookSetFor snapshots the distinct books in the user's cart.
func (s *RecommendService) BookSetFor(ctx context.Context, userID string) (domain.BookSet, error) {
	cart, err := s.carts.GetCartByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart == nil {
		return domain.BookSet{}, nil
	}
	return cart.BookSet(), nil
}

// Recommend ranks every other user by ascending Jaccard distance to the
// target user's book set (ties keep enumeration order) and accumulates, from
// closest to farthest, the books those neighbors hold that the target does
// not. The result is an unordered set; an unknown or empty userID yields an
// empty result without error.
func (s *RecommendService) Recommend(ctx context.Context, userID string) ([]domain.Book, error) {
	if userID == "" {
		return nil, nil
	}
	target, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if target == nil {
		return nil, nil
	}

	targetSet, err := s.BookSetFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	type neighbor struct {
		set      domain.BookSet
		distance float64
	}
	neighbors := make([]neighbor, 0, len(users))
	for _, u := range users {
		if u.ID == userID {
			continue
		}
		set, err := s.BookSetFor(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		neighbors = append(neighbors, neighbor{set: set, distance: JaccardDistance(targetSet, set)})
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].distance < neighbors[j].distance
	})

	recommended := domain.BookSet{}
	for _, nb := range neighbors {
		for isbn, book := range nb.set {
			if !targetSet.Contains(isbn) {
				recommended.Add(book)
			}
		}
	}

	s.log.Debug().Str("user_id", userID).Int("neighbors", len(neighbors)).
		Int("recommended", len(recommended)).Msg("recommendations computed")
	return recommended.Books(), nil
}
