// Command seed-db loads products from a JSON file into the PostgreSQL store.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/product-catalog/internal/domain/product"
	"github.com/xenking/product-catalog/internal/storage/postgres"
)

type config struct {
	DatabaseURL  string `env:"DATABASE_URL" flag:"database-url" usage:"PostgreSQL connection URL (or DATABASE_URL env)"`
	ProductsFile string `env:"PRODUCTS_FILE" flag:"products-file" default:"db/seed/products.json" usage:"JSON array of products, optionally .gz"`
	Workers      int    `env:"WORKERS" flag:"workers" default:"4" usage:"Concurrent inserts"`
}

func main() {
	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	var cfg config
	if err := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CATALOG_SEED",
		SkipFiles: true,
	}).Load(); err != nil {
		lg.Fatal("Load config", zap.Error(err))
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url, CATALOG_SEED_DATABASE_URL or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, cfg); err != nil {
		lg.Error("Seed failed", zap.Error(err))
		cancel()
		_ = lg.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, lg *zap.Logger, cfg config) error {
	dtos, err := readProducts(cfg.ProductsFile)
	if err != nil {
		return errors.Wrap(err, "read products")
	}
	lg.Info("Read products", zap.String("path", cfg.ProductsFile), zap.Int("count", len(dtos)))

	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{URL: cfg.DatabaseURL})
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	svc := product.NewService(postgres.NewProductRepository(pool))
	res, err := seed(ctx, lg, svc, dtos, cfg.Workers)
	if err != nil {
		return err
	}
	lg.Info("Seed completed", zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
	return nil
}
