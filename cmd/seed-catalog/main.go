package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/maisonnoir/storefront/internal/domain/catalog"
	"github.com/maisonnoir/storefront/internal/domain/coupon"
	"github.com/maisonnoir/storefront/internal/repository"
)

type productJSON struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Brand     string           `json:"brand"`
	Category  string           `json:"category"`
	Price     decimal.Decimal  `json:"price"`
	SalePrice *decimal.Decimal `json:"salePrice"`
	Rating    float64          `json:"rating"`
	Tags      []string         `json:"tags"`
	Sizes     []string         `json:"sizes"`
	Colors    []string         `json:"colors"`
	Image     string           `json:"image"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, repository.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCoupons(ctx, repository.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *repository.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		err := repo.Upsert(ctx, catalog.Product{
			ID:        p.ID,
			Name:      p.Name,
			Brand:     p.Brand,
			Category:  p.Category,
			Price:     p.Price,
			SalePrice: p.SalePrice,
			Rating:    p.Rating,
			Tags:      p.Tags,
			Sizes:     p.Sizes,
			Colors:    p.Colors,
			Image:     p.Image,
		})
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, repo *repository.CouponRepository) error {
	slog.Info("seeding storefront coupons")

	rules := []coupon.Rule{
		{
			Code:        "SAVE10",
			Percent:     decimal.NewFromInt(10),
			Description: "10% off the entire order",
		},
		{
			Code:        "WELCOME15",
			Percent:     decimal.NewFromInt(15),
			Description: "Welcome offer: 15% off your first order",
			MaxUses:     1000,
		},
		{
			Code:        "ATELIER20",
			Percent:     decimal.NewFromInt(20),
			Description: "Private sale: 20% off",
		},
	}

	for _, rule := range rules {
		if err := repo.Upsert(ctx, rule); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", rule.Code)
		}

		slog.Info("upserted coupon", slog.String("code", rule.Code), slog.String("description", rule.Description))
	}

	return nil
}
