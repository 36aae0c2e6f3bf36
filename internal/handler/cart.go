package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/maisonnoir/storefront/internal/domain/cart"
	"github.com/maisonnoir/storefront/internal/domain/catalog"
	"github.com/maisonnoir/storefront/internal/domain/coupon"
	"github.com/maisonnoir/storefront/internal/domain/pricing"
)

// cartLineView is the API representation of one cart line.
type cartLineView struct {
	ProductID string  `json:"productId"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
}

// totalsView is the API representation of a pricing result.
type totalsView struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// cartView is the full cart response: lines plus freshly computed totals.
type cartView struct {
	Lines      []cartLineView `json:"lines"`
	CouponCode string         `json:"couponCode,omitempty"`
	Totals     totalsView     `json:"totals"`
}

func toTotalsView(res pricing.Result) totalsView {
	return totalsView{
		Subtotal: res.Subtotal.InexactFloat64(),
		Discount: res.Discount.InexactFloat64(),
		Shipping: res.Shipping.InexactFloat64(),
		Tax:      res.Tax.InexactFloat64(),
		Total:    res.Total.InexactFloat64(),
	}
}

func toCartView(state cart.State, res pricing.Result) cartView {
	lines := make([]cartLineView, len(state.Lines))
	for i, l := range state.Lines {
		lines[i] = cartLineView{
			ProductID: l.ProductID,
			Size:      l.Size,
			Color:     l.Color,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.InexactFloat64(),
			Name:      l.Name,
			Image:     l.Image,
		}
	}
	return cartView{
		Lines:      lines,
		CouponCode: state.CouponCode,
		Totals:     toTotalsView(res),
	}
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

type couponRequest struct {
	Code string `json:"code"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Get(r.Context(), h.sessionID(w, r))
	h.renderCart(w, r, store)
}

// addCartItem snapshots the product's current price (sale price when one is
// set) into a new or merged cart line.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "quantity must be positive")
		return
	}

	p, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusUnprocessableEntity, "product not found")
			return
		}
		h.serverError(w, r, err, "get product")
		return
	}

	price := p.Price
	if p.SalePrice != nil {
		price = *p.SalePrice
	}

	store := h.carts.Get(r.Context(), h.sessionID(w, r))
	line := cart.Line{
		Key:       cart.Key{ProductID: req.ProductID, Size: req.Size, Color: req.Color},
		Quantity:  req.Quantity,
		UnitPrice: price,
		Name:      p.Name,
		Image:     p.Image,
	}
	if err := store.AddItem(r.Context(), line); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.renderCart(w, r, store)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	store := h.carts.Get(r.Context(), h.sessionID(w, r))
	key := cart.Key{ProductID: req.ProductID, Size: req.Size, Color: req.Color}
	store.UpdateQuantity(r.Context(), key, req.Quantity)

	h.renderCart(w, r, store)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	store := h.carts.Get(r.Context(), h.sessionID(w, r))
	store.RemoveItem(r.Context(), cart.Key{ProductID: req.ProductID, Size: req.Size, Color: req.Color})

	h.renderCart(w, r, store)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Get(r.Context(), h.sessionID(w, r))
	store.Clear(r.Context())
	h.renderCart(w, r, store)
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !decodeBody(w, r, &req) {
		return
	}

	store := h.carts.Get(r.Context(), h.sessionID(w, r))
	if _, err := store.ApplyCoupon(r.Context(), req.Code); err != nil {
		switch {
		case errors.Is(err, coupon.ErrUnknownCoupon):
			writeError(w, http.StatusUnprocessableEntity, "unknown coupon code")
		case errors.Is(err, coupon.ErrExpired):
			writeError(w, http.StatusUnprocessableEntity, "coupon expired")
		case errors.Is(err, coupon.ErrUsageLimitReached):
			writeError(w, http.StatusUnprocessableEntity, "coupon usage limit reached")
		case errors.Is(err, cart.ErrCouponAlreadyApplied):
			writeError(w, http.StatusConflict, "a coupon is already applied")
		default:
			h.serverError(w, r, err, "apply coupon")
		}
		return
	}

	h.renderCart(w, r, store)
}

func (h *Handler) removeCoupon(w http.ResponseWriter, r *http.Request) {
	store := h.carts.Get(r.Context(), h.sessionID(w, r))
	store.RemoveCoupon(r.Context())
	h.renderCart(w, r, store)
}

// renderCart recomputes totals from current state and writes the cart view.
// Totals are always derived on demand, never cached.
func (h *Handler) renderCart(w http.ResponseWriter, r *http.Request, store *cart.Store) {
	state := store.State()

	var rule *coupon.Rule
	if state.CouponCode != "" {
		resolved, err := h.coupons.Resolve(r.Context(), state.CouponCode)
		if err != nil {
			// The coupon was valid when applied; render without the
			// discount rather than failing the whole cart.
			zctx.From(r.Context()).Warn("applied coupon no longer resolves",
				zap.String("code", state.CouponCode),
				zap.Error(err),
			)
		} else {
			rule = resolved
		}
	}

	items := make([]pricing.Item, len(state.Lines))
	for i, l := range state.Lines {
		items[i] = pricing.Item{UnitPrice: l.UnitPrice, Quantity: l.Quantity}
	}

	res, err := pricing.Compute(items, rule, h.cfg.Pricing)
	if err != nil {
		h.serverError(w, r, err, "compute totals")
		return
	}

	writeData(w, http.StatusOK, toCartView(state, res))
}
