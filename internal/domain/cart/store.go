package cart

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/maisonnoir/storefront/internal/domain/coupon"
)

// InvalidInputError indicates a caller bug: an add with a non-positive
// quantity or negative unit price.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid cart input: %s", e.Reason)
}

// SnapshotRepository persists cart snapshots per session. Persistence is
// best-effort: the cart is not a system of record, so a write lost between
// mutation and persist costs only the latest mutation.
type SnapshotRepository interface {
	Save(ctx context.Context, sessionID string, state State) error
	Load(ctx context.Context, sessionID string) (State, error)
}

// Store owns one session's cart state. Mutations validate, apply the pure
// transition, then write the new snapshot through to the repository.
type Store struct {
	sessionID string
	snapshots SnapshotRepository
	coupons   coupon.Validator
	lg        *zap.Logger

	mu    sync.Mutex
	state State
}

// NewStore creates a Store for the given session, starting from initial.
func NewStore(sessionID string, initial State, snapshots SnapshotRepository, coupons coupon.Validator, lg *zap.Logger) *Store {
	return &Store{
		sessionID: sessionID,
		snapshots: snapshots,
		coupons:   coupons,
		lg:        lg,
		state:     initial,
	}
}

// State returns a copy of the current cart state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.state)
}

// AddItem merges item into the cart. Quantity must be positive and the unit
// price non-negative.
func (s *Store) AddItem(ctx context.Context, item Line) error {
	if item.Quantity <= 0 {
		return &InvalidInputError{Reason: "quantity must be positive"}
	}
	if item.UnitPrice.IsNegative() {
		return &InvalidInputError{Reason: "unit price must not be negative"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Add(s.state, item)
	s.persist(ctx)
	return nil
}

// RemoveItem deletes the matching line. Absent lines are a no-op.
func (s *Store) RemoveItem(ctx context.Context, key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Remove(s.state, key)
	s.persist(ctx)
}

// UpdateQuantity sets the matching line's quantity, clamped to at least 1.
func (s *Store) UpdateQuantity(ctx context.Context, key Key, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SetQuantity(s.state, key, quantity)
	s.persist(ctx)
}

// Clear empties the cart, including any applied coupon.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Clear(s.state)
	s.persist(ctx)
}

// ApplyCoupon validates code and records it as the active coupon. Unknown,
// expired, or exhausted codes are rejected and the state is unchanged.
// A second code while one is active returns ErrCouponAlreadyApplied.
func (s *Store) ApplyCoupon(ctx context.Context, code string) (*coupon.Rule, error) {
	rule, err := s.coupons.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := SetCoupon(s.state, rule.Code)
	if err != nil {
		return nil, err
	}
	s.state = next
	s.persist(ctx)
	return rule, nil
}

// RemoveCoupon drops the applied coupon. A no-op when none is applied.
func (s *Store) RemoveCoupon(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = RemoveCoupon(s.state)
	s.persist(ctx)
}

// persist writes the current snapshot through to the repository.
// Must be called with s.mu held.
func (s *Store) persist(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, s.sessionID, s.state); err != nil {
		s.lg.Warn("cart snapshot save failed",
			zap.String("session_id", s.sessionID),
			zap.Error(err),
		)
	}
}
