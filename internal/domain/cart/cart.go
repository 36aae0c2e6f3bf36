// Package cart holds one shopping session's line items and applied coupon.
//
// State transitions are pure functions over a State value; the Store wraps
// them with validation and write-through snapshot persistence so the
// transition logic stays testable without a storage backend.
package cart

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrCouponAlreadyApplied is returned when a coupon is applied while another
// is active. The active coupon must be removed explicitly first.
var ErrCouponAlreadyApplied = errors.New("a coupon is already applied")

// Key identifies a cart line. The same product in a different size or color
// is a distinct line.
type Key struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// Line is one cart entry. UnitPrice is snapshotted at add time and does not
// track later catalog changes. Name and Image are display-only.
type Line struct {
	Key
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
}

// State is the full cart contents. Lines keep insertion order for display;
// order does not affect totals.
type State struct {
	Lines      []Line `json:"lines"`
	CouponCode string `json:"couponCode,omitempty"`
}

// Add merges item into an existing line when the identity matches,
// otherwise appends it. The input state is not mutated.
func Add(s State, item Line) State {
	next := clone(s)
	for i := range next.Lines {
		if next.Lines[i].Key == item.Key {
			next.Lines[i].Quantity += item.Quantity
			return next
		}
	}
	next.Lines = append(next.Lines, item)
	return next
}

// Remove deletes the line matching key. Removing an absent line is a no-op.
func Remove(s State, key Key) State {
	next := clone(s)
	for i := range next.Lines {
		if next.Lines[i].Key == key {
			next.Lines = append(next.Lines[:i], next.Lines[i+1:]...)
			return next
		}
	}
	return next
}

// SetQuantity sets the quantity of the line matching key, clamped to a
// minimum of 1. Removal is a separate explicit operation, never a side
// effect of clamping. Absent key is a no-op.
func SetQuantity(s State, key Key, quantity int) State {
	if quantity < 1 {
		quantity = 1
	}
	next := clone(s)
	for i := range next.Lines {
		if next.Lines[i].Key == key {
			next.Lines[i].Quantity = quantity
			return next
		}
	}
	return next
}

// Clear empties all lines and drops any applied coupon.
func Clear(State) State {
	return State{}
}

// SetCoupon records code as the applied coupon. The caller validates the
// code first; this transition only enforces the one-active-coupon rule.
func SetCoupon(s State, code string) (State, error) {
	if s.CouponCode != "" {
		return s, ErrCouponAlreadyApplied
	}
	next := clone(s)
	next.CouponCode = code
	return next, nil
}

// RemoveCoupon drops the applied coupon, keeping the lines.
func RemoveCoupon(s State) State {
	next := clone(s)
	next.CouponCode = ""
	return next
}

func clone(s State) State {
	lines := make([]Line, len(s.Lines))
	copy(lines, s.Lines)
	return State{Lines: lines, CouponCode: s.CouponCode}
}
