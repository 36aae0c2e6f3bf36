package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item. The catalog is read-only from the storefront's
// point of view; products are owned by the upstream catalog feed.
type Product struct {
	ID        string
	Name      string
	Brand     string
	Category  string
	Price     decimal.Decimal
	SalePrice *decimal.Decimal
	Rating    float64
	Tags      []string
	Sizes     []string
	Colors    []string
	Image     string
	CreatedAt time.Time
}

// Repository defines read operations over the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	// Search matches name or category case-insensitively, capped at limit.
	Search(ctx context.Context, query string, limit int) ([]Product, error)
	Categories(ctx context.Context) ([]string, error)
}
