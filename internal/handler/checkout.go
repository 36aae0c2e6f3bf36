package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/maisonnoir/storefront/internal/domain/coupon"
	"github.com/maisonnoir/storefront/internal/domain/order"
	"github.com/maisonnoir/storefront/internal/domain/pricing"
)

// orderView is the API representation of a completed checkout.
type orderView struct {
	ID         string         `json:"id"`
	Lines      []cartLineView `json:"lines"`
	Subtotal   float64        `json:"subtotal"`
	Discount   float64        `json:"discount"`
	Shipping   float64        `json:"shipping"`
	Tax        float64        `json:"tax"`
	Total      float64        `json:"total"`
	CouponCode string         `json:"couponCode,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)

	o, err := h.orders.Checkout(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, "cart is empty")
		case errors.Is(err, coupon.ErrUnknownCoupon),
			errors.Is(err, coupon.ErrExpired),
			errors.Is(err, coupon.ErrUsageLimitReached):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			var invalid *pricing.InvalidInputError
			if errors.As(err, &invalid) {
				writeError(w, http.StatusUnprocessableEntity, invalid.Error())
				return
			}
			h.serverError(w, r, err, "checkout")
		}
		return
	}

	lines := make([]cartLineView, len(o.Lines))
	for i, l := range o.Lines {
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

	writeData(w, http.StatusCreated, orderView{
		ID:         o.ID,
		Lines:      lines,
		Subtotal:   o.Subtotal.InexactFloat64(),
		Discount:   o.Discount.InexactFloat64(),
		Shipping:   o.Shipping.InexactFloat64(),
		Tax:        o.Tax.InexactFloat64(),
		Total:      o.Total.InexactFloat64(),
		CouponCode: o.CouponCode,
		CreatedAt:  o.CreatedAt,
	})
}
