package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/maisonnoir/storefront/internal/domain/cart"
	"github.com/maisonnoir/storefront/internal/domain/coupon"
	"github.com/maisonnoir/storefront/internal/domain/pricing"
)

// ErrEmptyCart is returned when checkout is attempted on an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// Service turns a session's cart into a persisted order.
type Service struct {
	carts      *cart.Manager
	coupons    coupon.Validator
	orders     Repository
	pricingCfg pricing.Config
}

// NewService creates an order Service with the required dependencies.
func NewService(carts *cart.Manager, coupons coupon.Validator, orders Repository, pricingCfg pricing.Config) *Service {
	return &Service{
		carts:      carts,
		coupons:    coupons,
		orders:     orders,
		pricingCfg: pricingCfg,
	}
}

// Checkout prices the session's cart, persists the order, redeems the
// coupon, and clears the cart. The cart is cleared only after the order row
// is committed.
func (s *Service) Checkout(ctx context.Context, sessionID string) (*Order, error) {
	store := s.carts.Get(ctx, sessionID)
	state := store.State()

	if len(state.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	// Re-resolve the applied coupon: it may have expired or hit its usage
	// limit since it was applied to the cart.
	var rule *coupon.Rule
	if state.CouponCode != "" {
		resolved, err := s.coupons.Resolve(ctx, state.CouponCode)
		if err != nil {
			return nil, errors.Wrap(err, "resolve coupon")
		}
		rule = resolved
	}

	items := make([]pricing.Item, len(state.Lines))
	for i, line := range state.Lines {
		items[i] = pricing.Item{UnitPrice: line.UnitPrice, Quantity: line.Quantity}
	}

	result, err := pricing.Compute(items, rule, s.pricingCfg)
	if err != nil {
		return nil, errors.Wrap(err, "price cart")
	}

	o := &Order{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Lines:      state.Lines,
		Subtotal:   result.Subtotal,
		Discount:   result.Discount,
		Shipping:   result.Shipping,
		Tax:        result.Tax,
		Total:      result.Total,
		CouponCode: state.CouponCode,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if rule != nil {
		if err := s.coupons.Redeem(ctx, rule.Code); err != nil {
			return nil, errors.Wrap(err, "redeem coupon")
		}
	}

	store.Clear(ctx)
	return o, nil
}
