package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/maisonnoir/storefront/internal/domain/catalog"
)

const (
	productColumns = `id, name, brand, category, price, sale_price, rating, tags, sizes, colors, image, created_at`

	listProductsSQL = `SELECT ` + productColumns + `
		FROM products ORDER BY created_at DESC, id`

	getProductByIDSQL = `SELECT ` + productColumns + `
		FROM products WHERE id = $1`

	searchProductsSQL = `SELECT ` + productColumns + `
		FROM products
		WHERE name ILIKE '%' || $1 || '%' OR category ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC, id
		LIMIT $2`

	listCategoriesSQL = `SELECT DISTINCT category FROM products ORDER BY category`

	upsertProductSQL = `INSERT INTO products
			(id, name, brand, category, price, sale_price, rating, tags, sizes, colors, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			brand = EXCLUDED.brand,
			category = EXCLUDED.category,
			price = EXCLUDED.price,
			sale_price = EXCLUDED.sale_price,
			rating = EXCLUDED.rating,
			tags = EXCLUDED.tags,
			sizes = EXCLUDED.sizes,
			colors = EXCLUDED.colors,
			image = EXCLUDED.image`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns the full catalog, newest first. This is the relevance order
// the filter pipeline preserves.
func (r *ProductRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Search returns products whose name or category contains query,
// case-insensitively, capped at limit.
func (r *ProductRepository) Search(ctx context.Context, query string, limit int) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, searchProductsSQL, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching products for %q: %w", query, err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Categories returns the distinct category labels in the catalog.
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var c string
		err := row.Scan(&c)
		return c, err
	})
}

// Upsert inserts or updates a product. Used by the catalog seeder.
func (r *ProductRepository) Upsert(ctx context.Context, p catalog.Product) error {
	_, err := r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Brand, p.Category, p.Price, p.SalePrice, p.Rating,
		p.Tags, p.Sizes, p.Colors, p.Image,
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p         catalog.Product
		price     decimal.Decimal
		salePrice *decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Brand, &p.Category, &price, &salePrice, &p.Rating,
		&p.Tags, &p.Sizes, &p.Colors, &p.Image, &p.CreatedAt,
	)
	p.Price = price
	p.SalePrice = salePrice
	return p, err
}
