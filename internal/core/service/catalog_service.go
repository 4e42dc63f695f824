package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bookrow/storefront/internal/core/domain"
	"github.com/bookrow/storefront/internal/port"
)

type SortCriteria string

const (
	SortLowToHigh    SortCriteria = "low_to_high"
	SortHighToLow    SortCriteria = "high_to_low"
	SortAlphabetical SortCriteria = "alphabetical"
)

// CatalogQuery narrows the storefront listing. Zero values mean "no
// restriction"; an empty Sort falls back to low_to_high.
type CatalogQuery struct {
	Search      string
	Sort        SortCriteria
	Authors     []string
	Genres      []string
	Publishers  []string
	InStockOnly bool
}

// CatalogItem pairs a book with its available quantity for display.
type CatalogItem struct {
	Book      domain.Book `json:"book"`
	Available int         `json:"available"`
}

// CatalogFacets lists the distinct filterable values across the catalog.
type CatalogFacets struct {
	Authors    []string `json:"authors"`
	Genres     []string `json:"genres"`
	Publishers []string `json:"publishers"`
}

// CatalogService answers storefront browse queries: search, sort, and
// filter over books joined with their stock.
type CatalogService struct {
	books     port.BookRepository
	inventory port.InventoryRepository
	log       zerolog.Logger
}

func NewCatalogService(books port.BookRepository, inventory port.InventoryRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{
		books:     books,
		inventory: inventory,
		log:       logger.With().Str("component", "catalog").Logger(),
	}
}

// Get returns a single catalog item by ISBN.
func (s *CatalogService) Get(ctx context.Context, isbn string) (*CatalogItem, error) {
	book, err := s.books.GetBook(ctx, isbn)
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	if book == nil {
		return nil, ErrNotFound
	}
	available := 0
	if item, err := s.inventory.GetInventory(ctx, isbn); err == nil && item != nil {
		available = item.Quantity
	}
	return &CatalogItem{Book: *book, Available: available}, nil
}

// List applies the query's search, filters, and sort to the full catalog.
func (s *CatalogService) List(ctx context.Context, q CatalogQuery) ([]CatalogItem, error) {
	books, err := s.books.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	stock, err := s.stockByISBN(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]CatalogItem, 0, len(books))
	for _, b := range books {
		if !matchesSearch(b, q.Search) {
			continue
		}
		if !matchesAny(b.Authors, q.Authors) {
			continue
		}
		if len(q.Genres) > 0 && !containsFold(q.Genres, b.Genre) {
			continue
		}
		if len(q.Publishers) > 0 && !containsFold(q.Publishers, b.Publisher) {
			continue
		}
		available := stock[b.ISBN]
		if q.InStockOnly && available <= 0 {
			continue
		}
		items = append(items, CatalogItem{Book: b, Available: available})
	}

	sortItems(items, q.Sort)
	return items, nil
}

// Facets returns the distinct authors, genres, and publishers across the
// catalog, each sorted alphabetically.
func (s *CatalogService) Facets(ctx context.Context) (*CatalogFacets, error) {
	books, err := s.books.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	authors := map[string]struct{}{}
	genres := map[string]struct{}{}
	publishers := map[string]struct{}{}
	for _, b := range books {
		for _, a := range b.Authors {
			authors[a] = struct{}{}
		}
		if b.Genre != "" {
			genres[b.Genre] = struct{}{}
		}
		if b.Publisher != "" {
			publishers[b.Publisher] = struct{}{}
		}
	}

	return &CatalogFacets{
		Authors:    sortedKeys(authors),
		Genres:     sortedKeys(genres),
		Publishers: sortedKeys(publishers),
	}, nil
}

func (s *CatalogService) stockByISBN(ctx context.Context) (map[string]int, error) {
	items, err := s.inventory.ListInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	stock := make(map[string]int, len(items))
	for _, item := range items {
		stock[item.ISBN] = item.Quantity
	}
	return stock, nil
}

func sortItems(items []CatalogItem, criteria SortCriteria) {
	switch criteria {
	case SortHighToLow:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Book.Price > items[j].Book.Price
		})
	case SortAlphabetical:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Book.Title < items[j].Book.Title
		})
	default: // SortLowToHigh
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Book.Price < items[j].Book.Price
		})
	}
}

func matchesSearch(b domain.Book, search string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	return strings.Contains(strings.ToLower(b.Title), search) ||
		strings.Contains(strings.ToLower(b.ISBN), search)
}

// matchesAny reports whether any of the wanted values appears in have.
// An empty want list matches everything.
func matchesAny(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, h := range have {
		if containsFold(want, h) {
			return true
		}
	}
	return false
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
