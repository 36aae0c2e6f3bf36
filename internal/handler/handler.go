// Package handler exposes the storefront REST surface. Every response uses
// the uniform {success, message?, data?, error?} envelope; list endpoints
// additionally carry pagination fields.
package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maisonnoir/storefront/internal/domain/cart"
	"github.com/maisonnoir/storefront/internal/domain/catalog"
	"github.com/maisonnoir/storefront/internal/domain/coupon"
	"github.com/maisonnoir/storefront/internal/domain/order"
	"github.com/maisonnoir/storefront/internal/domain/pricing"
	"github.com/maisonnoir/storefront/internal/domain/session"
)

// sessionHeader identifies the storefront session. Requests without a valid
// value get a fresh session ID, echoed back on the response.
const sessionHeader = "X-Session-ID"

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// SuggestLimit caps the suggestion list size.
	SuggestLimit int
	// Pricing is the shipping and tax policy applied when rendering totals.
	Pricing pricing.Config
}

// Handler wires the storefront's domain services to HTTP.
type Handler struct {
	cfg      Config
	products catalog.Repository
	coupons  coupon.Validator
	carts    *cart.Manager
	orders   *order.Service
	sessions *session.Manager
	lg       *zap.Logger
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products catalog.Repository,
	coupons coupon.Validator,
	carts *cart.Manager,
	orders *order.Service,
	sessions *session.Manager,
	lg *zap.Logger,
) *Handler {
	if cfg.SuggestLimit <= 0 {
		cfg.SuggestLimit = 8
	}
	return &Handler{
		cfg:      cfg,
		products: products,
		coupons:  coupons,
		carts:    carts,
		orders:   orders,
		sessions: sessions,
		lg:       lg,
	}
}

// Register mounts all API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("GET /api/suggestions", h.suggestions)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("PATCH /api/cart/items", h.updateCartItem)
	mux.HandleFunc("DELETE /api/cart/items", h.removeCartItem)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
	mux.HandleFunc("POST /api/cart/coupon", h.applyCoupon)
	mux.HandleFunc("DELETE /api/cart/coupon", h.removeCoupon)

	mux.HandleFunc("POST /api/checkout", h.checkout)

	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/logout", h.logout)
	mux.HandleFunc("GET /api/auth/me", h.me)
	mux.HandleFunc("PUT /api/auth/profile", h.updateProfile)
}

// sessionID returns the request's session ID, issuing and echoing a new one
// when the header is absent or not a UUID.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(sessionHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.New().String()
	}
	w.Header().Set(sessionHeader, id)
	return id
}

// serverError logs err with the request-scoped logger and responds 500.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error, op string) {
	zctx.From(r.Context()).Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
