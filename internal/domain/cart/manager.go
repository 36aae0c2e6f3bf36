package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/maisonnoir/storefront/internal/domain/coupon"
)

// Manager hands out per-session cart stores, rehydrating persisted
// snapshots the first time a session is seen.
type Manager struct {
	snapshots SnapshotRepository
	coupons   coupon.Validator
	lg        *zap.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager creates a Manager backed by the given snapshot repository and
// coupon validator.
func NewManager(snapshots SnapshotRepository, coupons coupon.Validator, lg *zap.Logger) *Manager {
	return &Manager{
		snapshots: snapshots,
		coupons:   coupons,
		lg:        lg,
		stores:    make(map[string]*Store),
	}
}

// Get returns the cart store for sessionID, creating it on first use. A
// persisted snapshot, when present, seeds the new store; a load failure
// starts the session from an empty cart.
func (m *Manager) Get(ctx context.Context, sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[sessionID]; ok {
		return s
	}

	initial := State{}
	if m.snapshots != nil {
		loaded, err := m.snapshots.Load(ctx, sessionID)
		if err != nil {
			m.lg.Warn("cart snapshot load failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		} else {
			initial = loaded
		}
	}

	s := NewStore(sessionID, initial, m.snapshots, m.coupons, m.lg)
	m.stores[sessionID] = s
	return s
}
