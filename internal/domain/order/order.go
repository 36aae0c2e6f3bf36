package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/maisonnoir/storefront/internal/domain/cart"
)

// Order is a completed checkout with its full pricing breakdown.
type Order struct {
	ID         string
	SessionID  string
	Lines      []cart.Line
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Shipping   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	CouponCode string
	CreatedAt  time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
}
