package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/bookrow/storefront/internal/core/domain"
	"github.com/bookrow/storefront/internal/core/service"
	"github.com/bookrow/storefront/internal/port"
)

const (
	userHeader    = "X-User-ID"
	requestHeader = "X-Request-ID"
)

type ctxKey int

const userKey ctxKey = 0

// HTTPHandler exposes the storefront over JSON. Caller identity comes
// from the X-User-ID header; user management itself lives elsewhere.
type HTTPHandler struct {
	users     port.UserRepository
	books     port.BookRepository
	catalog   *service.CatalogService
	carts     *service.CartService
	checkout  *service.CheckoutService
	recommend *service.RecommendService
	log       zerolog.Logger
}

func NewHTTPHandler(
	users port.UserRepository,
	books port.BookRepository,
	catalog *service.CatalogService,
	carts *service.CartService,
	checkout *service.CheckoutService,
	recommend *service.RecommendService,
	logger zerolog.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		users:     users,
		books:     books,
		catalog:   catalog,
		carts:     carts,
		checkout:  checkout,
		recommend: recommend,
		log:       logger.With().Str("component", "http").Logger(),
	}
}

// Router builds the chi mux for the storefront API.
func (h *HTTPHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			r.Get("/", h.ListBooks)
			r.Get("/facets", h.BookFacets)
			r.Get("/{isbn}", h.GetBook)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireUser)
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Get("/total", h.CartTotal)
				r.Post("/items", h.AddItem)
				r.Delete("/items/{isbn}", h.RemoveItem)
			})
			r.Get("/checkout", h.CheckoutPreview)
			r.Post("/checkout", h.ConfirmCheckout)
			r.Get("/recommendations", h.Recommendations)
		})
	})

	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireUser resolves X-User-ID against the user repository and stashes
// the user on the request context.
func (h *HTTPHandler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(userHeader)
		if id == "" {
			writeError(w, http.StatusUnauthorized, "missing "+userHeader+" header")
			return
		}
		user, err := h.users.GetUser(r.Context(), id)
		if err != nil {
			h.internalError(w, r, err)
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}
		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestUser(r *http.Request) *domain.User {
	u, _ := r.Context().Value(userKey).(*domain.User)
	return u
}

func (h *HTTPHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := service.CatalogQuery{
		Search:     q.Get("search"),
		Sort:       service.SortCriteria(q.Get("sort")),
		Authors:    q["author"],
		Genres:     q["genre"],
		Publishers: q["publisher"],
	}
	if v := q.Get("in_stock"); v != "" {
		query.InStockOnly, _ = strconv.ParseBool(v)
	}

	items, err := h.catalog.List(r.Context(), query)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": items})
}

func (h *HTTPHandler) BookFacets(w http.ResponseWriter, r *http.Request) {
	facets, err := h.catalog.Facets(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, facets)
}

func (h *HTTPHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.Get(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartForRequest(w, r)
	if cart == nil || err != nil {
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *HTTPHandler) CartTotal(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartForRequest(w, r)
	if cart == nil || err != nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    h.checkout.ComputeTotal(cart),
		"quantity": cart.TotalQuantity(),
	})
}

type addItemRequest struct {
	ISBN     string `json:"isbn"`
	Quantity int    `json:"quantity"`
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ISBN == "" || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "isbn and a positive quantity are required")
		return
	}

	book, err := h.books.GetBook(r.Context(), req.ISBN)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if book == nil {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	cart, err := h.cartForRequest(w, r)
	if cart == nil || err != nil {
		return
	}

	if err := h.carts.AddToCart(r.Context(), cart, *book, req.Quantity); err != nil {
		if errors.Is(err, service.ErrInsufficientStock) {
			writeError(w, http.StatusConflict, "insufficient stock")
			return
		}
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	isbn := chi.URLParam(r, "isbn")
	n := 1
	if v := r.URL.Query().Get("quantity"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "quantity must be a positive integer")
			return
		}
		n = parsed
	}

	cart, err := h.cartForRequest(w, r)
	if cart == nil || err != nil {
		return
	}

	entry := cart.Entry(isbn)
	if entry == nil {
		writeJSON(w, http.StatusOK, cart)
		return
	}

	if err := h.carts.RemoveFromCart(r.Context(), cart, entry.Book, n); err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *HTTPHandler) CheckoutPreview(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartForRequest(w, r)
	if cart == nil || err != nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": cart.Entries,
		"total":   h.checkout.ComputeTotal(cart),
	})
}

func (h *HTTPHandler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartForRequest(w, r)
	if cart == nil || err != nil {
		return
	}

	order, err := h.checkout.Confirm(r.Context(), cart, r.Header.Get(requestHeader))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, "cart is empty")
		case errors.Is(err, service.ErrDuplicateRequest):
			writeError(w, http.StatusConflict, "duplicate checkout request")
		default:
			h.internalError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *HTTPHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	user := requestUser(r)
	books, err := h.recommend.Recommend(r.Context(), user.ID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if books == nil {
		books = []domain.Book{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

// cartForRequest loads the caller's cart, writing the error response
// itself on failure.
func (h *HTTPHandler) cartForRequest(w http.ResponseWriter, r *http.Request) (*domain.Cart, error) {
	user := requestUser(r)
	cart, err := h.carts.CartFor(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "cart not found")
			return nil, err
		}
		h.internalError(w, r, err)
		return nil, err
	}
	return cart, nil
}

func (h *HTTPHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
