package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maisonnoir/storefront/internal/domain/cart"
)

const (
	saveSnapshotSQL = `INSERT INTO cart_snapshots (session_id, state, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (session_id) DO UPDATE SET state = $2, updated_at = NOW()`

	loadSnapshotSQL = `SELECT state FROM cart_snapshots WHERE session_id = $1`
)

var _ cart.SnapshotRepository = (*SnapshotRepository)(nil)

// SnapshotRepository persists per-session cart snapshots in a JSONB column.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository returns a SnapshotRepository that uses the given pool.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Save upserts the session's cart snapshot.
func (r *SnapshotRepository) Save(ctx context.Context, sessionID string, state cart.State) error {
	if _, err := r.pool.Exec(ctx, saveSnapshotSQL, sessionID, cart.EncodeSnapshot(state)); err != nil {
		return fmt.Errorf("saving cart snapshot for %q: %w", sessionID, err)
	}
	return nil
}

// Load returns the session's persisted cart snapshot. A session with no
// snapshot starts from an empty cart.
func (r *SnapshotRepository) Load(ctx context.Context, sessionID string) (cart.State, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, loadSnapshotSQL, sessionID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cart.State{}, nil
		}
		return cart.State{}, fmt.Errorf("loading cart snapshot for %q: %w", sessionID, err)
	}
	return cart.DecodeSnapshot(raw)
}
